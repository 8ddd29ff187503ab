package models

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

var (
	HaridwarCentre  = Location{Lat: 29.9457, Lon: 78.1642}
	BangaloreCentre = Location{Lat: 12.9716, Lon: 77.5946}
)
