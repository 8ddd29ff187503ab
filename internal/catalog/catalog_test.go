package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedTables(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Cities(), 12)
	assert.Len(t, c.Customers(), 5)

	haridwar := c.Restaurants("Haridwar")
	require.Len(t, haridwar, 5)
	assert.Equal(t, "Hoshiyarpuri", haridwar[0].Name)
	assert.Equal(t, 4.1, haridwar[0].Rating)
	assert.Equal(t, 0.8, haridwar[0].Distance)
}

func TestRestaurantsFallback(t *testing.T) {
	c := MustLoad()

	rest := c.Restaurants("Atlantis")
	require.Len(t, rest, 3)
	assert.Equal(t, "Local Restaurant", rest[0].Name)
	assert.Equal(t, "Regional Dhaba", rest[2].Name)
}

func TestMenu(t *testing.T) {
	c := MustLoad()

	menu := c.Menu(1, "Haridwar")
	require.Len(t, menu, 3)
	assert.Equal(t, 1, menu[0].DishID)
	assert.Equal(t, "Chole Bhature", menu[0].DishName)
	assert.Equal(t, 120.0, menu[0].Price)

	assert.Equal(t, "Rabri", c.Menu(5, "Agra")[2].DishName)

	unknown := c.Menu(9, "Haridwar")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
	assert.Empty(t, c.Menu(1, "Atlantis"))
}

func TestCustomers(t *testing.T) {
	customers := MustLoad().Customers()

	assert.Equal(t, 1, customers[0].CustomerID)
	assert.Equal(t, "New Delhi", customers[0].City)
	assert.Equal(t, 0.85, customers[3].LoyaltyScore)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	c := MustLoad()
	c.Restaurants("Haridwar")[0].Name = "changed"
	assert.Equal(t, "Hoshiyarpuri", c.Restaurants("Haridwar")[0].Name)
}
