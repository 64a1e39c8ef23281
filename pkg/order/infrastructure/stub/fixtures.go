package stub

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Fixtures seed the stub with restaurants, menus and driver positions.
type Fixtures struct {
	Restaurants []RestaurantFixture `json:"restaurants"`
	Drivers     []DriverFixture     `json:"drivers"`
}

type RestaurantFixture struct {
	ID   string        `json:"_id"`
	Name string        `json:"name"`
	Menu []MenuFixture `json:"menu"`
}

type MenuFixture struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// DriverFixture positions are [lon, lat].
type DriverFixture struct {
	ID       string     `json:"_id"`
	Location [2]float64 `json:"location"`
}

func LoadFixtures(filePath string) (Fixtures, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return Fixtures{}, err
	}

	var data Fixtures
	if err = json.Unmarshal(file, &data); err != nil {
		return Fixtures{}, errors.Wrapf(err, "parse fixtures %s", filePath)
	}
	return data, nil
}

func SaveFixtures(filePath string, fixtures Fixtures) error {
	jsonData, err := json.MarshalIndent(fixtures, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, 0666)
}

// DefaultFixtures is what the stub serves when no fixture file is given.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Restaurants: []RestaurantFixture{
			{
				ID:   "rest-pizza",
				Name: "Pizza Place",
				Menu: []MenuFixture{
					{ID: "margherita", Name: "Margherita", Price: "12.99"},
					{ID: "pepperoni", Name: "Pepperoni", Price: "14.50"},
					{ID: "cola", Name: "Cola", Price: "4.99"},
				},
			},
			{
				ID:   "rest-sushi",
				Name: "Sushi Bar",
				Menu: []MenuFixture{
					{ID: "salmon-roll", Name: "Salmon Roll", Price: "9.75"},
					{ID: "miso", Name: "Miso Soup", Price: "3.20"},
				},
			},
		},
		Drivers: []DriverFixture{
			{ID: "driver-1", Location: [2]float64{79.8612, 6.9271}},
			{ID: "driver-2", Location: [2]float64{79.9000, 6.8500}},
		},
	}
}
