// Package routes holds the static catalog of known city-pair distances.
package routes

import (
	"fmt"
	"slices"
	"strings"
)

// Route is one known undirected edge between two named places.
type Route struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

// Catalog is an immutable, ordered collection of routes.
// It is safe for concurrent use since nothing mutates it after construction.
type Catalog struct {
	routes []Route
	cities []string
}

// NewCatalog validates the given routes and builds a catalog from a copy of them.
func NewCatalog(routes []Route) (*Catalog, error) {
	owned := make([]Route, len(routes))
	copy(owned, routes)

	seen := make(map[string]struct{}, len(owned)*2)
	cities := make([]string, 0, len(owned)*2)

	for i, r := range owned {
		if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
			return nil, fmt.Errorf("route %d: origin and destination must not be empty", i)
		}
		if !(r.DistanceKm > 0) {
			return nil, fmt.Errorf("route %d (%s - %s): distance must be greater than 0, got %f",
				i, r.Origin, r.Destination, r.DistanceKm)
		}
		for _, name := range []string{r.Origin, r.Destination} {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			cities = append(cities, name)
		}
	}
	slices.Sort(cities)

	return &Catalog{routes: owned, cities: cities}, nil
}

// DefaultCatalog returns the compiled-in catalog of Brazilian city pairs.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRoutes)
	if err != nil {
		// The built-in table is covered by tests; a failure here is a programming error.
		panic(fmt.Sprintf("routes: invalid built-in catalog: %v", err))
	}
	return c
}

// Cities returns the sorted, deduplicated place names appearing in any route.
func (c *Catalog) Cities() []string {
	return slices.Clone(c.cities)
}

// Routes returns a copy of the routes in catalog order.
func (c *Catalog) Routes() []Route {
	return slices.Clone(c.routes)
}

// Len returns the number of routes in the catalog.
func (c *Catalog) Len() int {
	return len(c.routes)
}

// FindDistance returns the distance in km between a and b, in either direction.
// Names are trimmed and compared case-insensitively. A forward match
// (origin a, destination b) is preferred over a reverse one. The boolean is
// false when no route connects the two places.
func (c *Catalog) FindDistance(a, b string) (float64, bool) {
	from := normalize(a)
	to := normalize(b)

	for _, r := range c.routes {
		if strings.ToLower(r.Origin) == from && strings.ToLower(r.Destination) == to {
			return r.DistanceKm, true
		}
	}
	for _, r := range c.routes {
		if strings.ToLower(r.Origin) == to && strings.ToLower(r.Destination) == from {
			return r.DistanceKm, true
		}
	}
	return 0, false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
