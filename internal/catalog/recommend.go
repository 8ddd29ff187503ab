package catalog

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/chrisdamba/orderly/internal/models"
)

const (
	maxRecommendations = 5
	probabilityCap     = 0.98
	coordinateJitter   = 0.01
	youngCustomerAge   = 30
)

type RecommendRequest struct {
	Age    int    `json:"age" validate:"gte=0,lte=120"`
	Gender string `json:"gender" validate:"oneof=M F O"`
	City   string `json:"city" validate:"required,max=100"`
}

func DefaultRecommendRequest() RecommendRequest {
	return RecommendRequest{Age: 25, Gender: "M", City: "Haridwar"}
}

// Recommender scores the city's restaurants for a customer. Scores carry a
// little random noise so equal restaurants do not always rank the same way.
type Recommender struct {
	catalog *Catalog
	mu      sync.Mutex
	rng     *rand.Rand
}

func NewRecommender(c *Catalog, seed int64) *Recommender {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Recommender{catalog: c, rng: rand.New(rand.NewSource(seed))}
}

func (r *Recommender) Recommend(req RecommendRequest) models.RecommendationResult {
	restaurants := r.catalog.Restaurants(req.City)
	centre := models.BangaloreCentre
	if req.City == "Haridwar" {
		centre = models.HaridwarCentre
	}
	agePreference := 0.8
	if req.Age < youngCustomerAge {
		agePreference = 0.9
	}

	r.mu.Lock()
	recs := make([]models.Recommendation, 0, len(restaurants))
	for i, rest := range restaurants {
		ratingScore := rest.Rating / 5
		distanceScore := math.Max(0, 1-rest.Distance/5)
		p := ratingScore*0.4 + distanceScore*0.4 + agePreference*0.2
		p = math.Min(probabilityCap, p+r.rng.Float64()*0.1-0.05)

		recs = append(recs, models.Recommendation{
			VendorID:    i + 1,
			Name:        rest.Name,
			Cuisine:     rest.Cuisine,
			Rating:      rest.Rating,
			Distance:    rest.Distance,
			Latitude:    centre.Lat + (r.rng.Float64()-0.5)*coordinateJitter,
			Longitude:   centre.Lon + (r.rng.Float64()-0.5)*coordinateJitter,
			Probability: math.Round(p*1000) / 1000,
		})
	}
	r.mu.Unlock()

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Probability > recs[j].Probability
	})
	total := len(recs)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return models.RecommendationResult{
		Recommendations: recs,
		TotalFound:      total,
		City:            req.City,
	}
}
