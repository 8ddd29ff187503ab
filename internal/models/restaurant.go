package models

// Restaurant is a static catalog entry for a city.
type Restaurant struct {
	Name     string  `json:"name"`
	Cuisine  string  `json:"cuisine"`
	Rating   float64 `json:"rating"`
	Distance float64 `json:"distance"` // km from the city centre
}

type Recommendation struct {
	VendorID    int     `json:"vendor_id"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine"`
	Rating      float64 `json:"rating"`
	Distance    float64 `json:"distance"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Probability float64 `json:"probability"`
}

type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalFound      int              `json:"total_found"`
	City            string           `json:"city"`
}
