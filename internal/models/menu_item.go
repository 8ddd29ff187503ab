package models

type MenuItem struct {
	DishID   int     `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Price    float64 `json:"price"`
}
