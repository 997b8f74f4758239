package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/signalsfoundry/strategic-map/model"
)

var (
	// ErrCityExists indicates a city with the same name is already loaded.
	ErrCityExists = errors.New("city already exists")
	// ErrCityNotFound indicates a requested city is not in the catalog.
	ErrCityNotFound = errors.New("city not found")
	// ErrInvalidCity indicates a city failed validation.
	ErrInvalidCity = errors.New("invalid city")
)

// Catalog is an in-memory, thread-safe store of reference cities. Cities
// keep their insertion order, which is the order link endpoints are drawn
// from, so loading the same file always yields the same catalog.
type Catalog struct {
	mu sync.RWMutex

	order  []model.City
	byName map[string]int
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// DefaultCatalog returns a catalog preloaded with DefaultCapitals.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, city := range DefaultCapitals() {
		// The built-in list is unique and in range.
		_ = c.AddCity(city)
	}
	return c
}

// AddCity appends a city. Names are matched case-insensitively.
func (c *Catalog) AddCity(city model.City) error {
	if err := validate(city); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(city.Name)
	if _, exists := c.byName[key]; exists {
		return fmt.Errorf("%w: %q", ErrCityExists, city.Name)
	}
	c.byName[key] = len(c.order)
	c.order = append(c.order, city)
	return nil
}

// GetCity returns the city with the given name.
func (c *Catalog) GetCity(name string) (model.City, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return model.City{}, fmt.Errorf("%w: %q", ErrCityNotFound, name)
	}
	return c.order[idx], nil
}

// Cities returns a snapshot of all cities in insertion order.
func (c *Catalog) Cities() []model.City {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.City(nil), c.order...)
}

// Len returns the number of cities.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func validate(city model.City) error {
	switch {
	case strings.TrimSpace(city.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidCity)
	case city.Lat < -90 || city.Lat > 90:
		return fmt.Errorf("%w: %q latitude %v out of range", ErrInvalidCity, city.Name, city.Lat)
	case city.Lon < -180 || city.Lon > 180:
		return fmt.Errorf("%w: %q longitude %v out of range", ErrInvalidCity, city.Name, city.Lon)
	}
	return nil
}

// LoadCities reads a JSON array of {"name","lat","lon"} objects from r into
// a new catalog. It fails on decode errors and on the first invalid or
// duplicate entry.
func LoadCities(r io.Reader) (*Catalog, error) {
	var payload []model.City
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadCities: decode failed: %w", err)
	}

	c := NewCatalog()
	for i, city := range payload {
		if err := c.AddCity(city); err != nil {
			return nil, fmt.Errorf("LoadCities: entry %d: %w", i, err)
		}
	}
	return c, nil
}

// LoadCitiesFile loads a catalog from the JSON file at path, or returns
// DefaultCatalog when path is empty.
func LoadCitiesFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city catalog %q: %w", path, err)
	}
	defer f.Close()
	return LoadCities(f)
}

// DefaultCapitals is the built-in set of world capitals (approximate
// coordinates).
func DefaultCapitals() []model.City {
	return []model.City{
		{Name: "London", Lat: 51.507, Lon: -0.128},
		{Name: "Paris", Lat: 48.857, Lon: 2.352},
		{Name: "Berlin", Lat: 52.520, Lon: 13.405},
		{Name: "Rome", Lat: 41.903, Lon: 12.496},
		{Name: "Madrid", Lat: 40.417, Lon: -3.704},
		{Name: "Oslo", Lat: 59.913, Lon: 10.752},
		{Name: "Stockholm", Lat: 59.330, Lon: 18.069},
		{Name: "Helsinki", Lat: 60.170, Lon: 24.938},
		{Name: "Warsaw", Lat: 52.230, Lon: 21.012},
		{Name: "Prague", Lat: 50.075, Lon: 14.438},
		{Name: "Vienna", Lat: 48.208, Lon: 16.373},
		{Name: "Athens", Lat: 37.984, Lon: 23.728},
		{Name: "Ankara", Lat: 39.933, Lon: 32.860},
		{Name: "Cairo", Lat: 30.044, Lon: 31.236},
		{Name: "Riyadh", Lat: 24.713, Lon: 46.676},
		{Name: "Tehran", Lat: 35.690, Lon: 51.389},
		{Name: "New Delhi", Lat: 28.614, Lon: 77.209},
		{Name: "Islamabad", Lat: 33.693, Lon: 73.065},
		{Name: "Beijing", Lat: 39.904, Lon: 116.407},
		{Name: "Tokyo", Lat: 35.676, Lon: 139.650},
		{Name: "Seoul", Lat: 37.566, Lon: 126.978},
		{Name: "Bangkok", Lat: 13.756, Lon: 100.502},
		{Name: "Jakarta", Lat: -6.208, Lon: 106.845},
		{Name: "Canberra", Lat: -35.280, Lon: 149.130},
		{Name: "Wellington", Lat: -41.286, Lon: 174.776},
		{Name: "Ottawa", Lat: 45.421, Lon: -75.697},
		{Name: "Mexico City", Lat: 19.432, Lon: -99.133},
		{Name: "Brasilia", Lat: -15.794, Lon: -47.883},
		{Name: "Buenos Aires", Lat: -34.603, Lon: -58.381},
		{Name: "Santiago", Lat: -33.449, Lon: -70.669},
		{Name: "Lima", Lat: -12.046, Lon: -77.043},
		{Name: "Bogota", Lat: 4.711, Lon: -74.072},
		{Name: "Pretoria", Lat: -25.747, Lon: 28.229},
		{Name: "Nairobi", Lat: -1.286, Lon: 36.817},
	}
}
