// Package catalog serves the static restaurant, menu and customer tables.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strconv"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/goccy/go-json"
)

//go:embed data/*.json
var dataFS embed.FS

type restaurantTable struct {
	Cities   map[string][]models.Restaurant `json:"cities"`
	Fallback []models.Restaurant            `json:"fallback"`
}

type Catalog struct {
	restaurants map[string][]models.Restaurant
	fallback    []models.Restaurant
	menus       map[string]map[int][]models.MenuItem
	customers   []models.Customer
}

// Load parses the embedded tables.
func Load() (*Catalog, error) {
	var rt restaurantTable
	if err := readJSON("data/restaurants.json", &rt); err != nil {
		return nil, err
	}
	var rawMenus map[string]map[string][]models.MenuItem
	if err := readJSON("data/menus.json", &rawMenus); err != nil {
		return nil, err
	}
	var customers []models.Customer
	if err := readJSON("data/customers.json", &customers); err != nil {
		return nil, err
	}

	menus := make(map[string]map[int][]models.MenuItem, len(rawMenus))
	for city, vendors := range rawMenus {
		menus[city] = make(map[int][]models.MenuItem, len(vendors))
		for id, items := range vendors {
			vendorID, err := strconv.Atoi(id)
			if err != nil {
				return nil, fmt.Errorf("menus.json: vendor id %q in %s: %w", id, city, err)
			}
			menus[city][vendorID] = items
		}
	}
	return &Catalog{
		restaurants: rt.Cities,
		fallback:    rt.Fallback,
		menus:       menus,
		customers:   customers,
	}, nil
}

// MustLoad is Load for callers that treat a broken binary as fatal.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func readJSON(name string, v any) error {
	b, err := dataFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Restaurants returns the city's restaurants, or the generic fallback list
// for cities the catalog does not know.
func (c *Catalog) Restaurants(city string) []models.Restaurant {
	list, ok := c.restaurants[city]
	if !ok {
		list = c.fallback
	}
	return append([]models.Restaurant(nil), list...)
}

func (c *Catalog) Cities() []string {
	cities := make([]string, 0, len(c.restaurants))
	for city := range c.restaurants {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// Menu returns an empty, non-nil list for unknown vendors or cities.
func (c *Catalog) Menu(vendorID int, city string) []models.MenuItem {
	items := c.menus[city][vendorID]
	return append([]models.MenuItem{}, items...)
}

func (c *Catalog) Customers() []models.Customer {
	return append([]models.Customer(nil), c.customers...)
}
