package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendHaridwar(t *testing.T) {
	r := NewRecommender(MustLoad(), 42)

	res := r.Recommend(DefaultRecommendRequest())

	assert.Equal(t, "Haridwar", res.City)
	assert.Equal(t, 5, res.TotalFound)
	require.Len(t, res.Recommendations, 5)
	for i, rec := range res.Recommendations {
		if i > 0 {
			assert.GreaterOrEqual(t, res.Recommendations[i-1].Probability, rec.Probability)
		}
		assert.LessOrEqual(t, rec.Probability, 0.98)
		assert.InDelta(t, 29.9457, rec.Latitude, 0.005)
		assert.InDelta(t, 78.1642, rec.Longitude, 0.005)
		assert.Equal(t, rec.Probability, math.Round(rec.Probability*1000)/1000)
		assert.True(t, rec.VendorID >= 1 && rec.VendorID <= 5)
	}
}

func TestRecommendScoreBounds(t *testing.T) {
	r := NewRecommender(MustLoad(), 7)

	for i := 0; i < 50; i++ {
		res := r.Recommend(RecommendRequest{Age: 40, Gender: "F", City: "Mumbai"})
		for _, rec := range res.Recommendations {
			base := rec.Rating/5*0.4 + math.Max(0, 1-rec.Distance/5)*0.4 + 0.8*0.2
			assert.InDelta(t, base, rec.Probability, 0.0505, rec.Name)
			assert.InDelta(t, 12.9716, rec.Latitude, 0.005, "non-Haridwar cities centre on Bangalore")
		}
	}
}

func TestRecommendUnknownCityUsesFallback(t *testing.T) {
	res := NewRecommender(MustLoad(), 1).Recommend(RecommendRequest{Age: 25, Gender: "M", City: "Atlantis"})

	assert.Equal(t, 3, res.TotalFound)
	assert.Len(t, res.Recommendations, 3)
	assert.Equal(t, "Atlantis", res.City)
}

func TestRecommendDeterministicWithSeed(t *testing.T) {
	req := RecommendRequest{Age: 22, Gender: "O", City: "Pune"}
	a := NewRecommender(MustLoad(), 99).Recommend(req)
	b := NewRecommender(MustLoad(), 99).Recommend(req)
	assert.Equal(t, a, b)
}
