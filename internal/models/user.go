package models

type Customer struct {
	CustomerID   int     `json:"customer_id"`
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	Language     string  `json:"language"`
	State        string  `json:"state"`
	City         string  `json:"city"`
	LoyaltyScore float64 `json:"loyalty_score"`
}
