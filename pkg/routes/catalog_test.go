package routes

import (
	"slices"
	"testing"
)

func TestDefaultCatalog_FindDistanceSymmetric(t *testing.T) {
	c := DefaultCatalog()

	for _, r := range c.Routes() {
		forward, ok := c.FindDistance(r.Origin, r.Destination)
		if !ok {
			t.Fatalf("FindDistance(%q, %q) not found", r.Origin, r.Destination)
		}
		reverse, ok := c.FindDistance(r.Destination, r.Origin)
		if !ok {
			t.Fatalf("FindDistance(%q, %q) not found", r.Destination, r.Origin)
		}
		if forward != r.DistanceKm || reverse != r.DistanceKm {
			t.Errorf("%s - %s: forward=%v reverse=%v, want %v",
				r.Origin, r.Destination, forward, reverse, r.DistanceKm)
		}
	}
}

func TestFindDistance_Normalization(t *testing.T) {
	c := DefaultCatalog()

	want, ok := c.FindDistance("São Paulo, SP", "Rio de Janeiro, RJ")
	if !ok {
		t.Fatal("expected São Paulo - Rio de Janeiro to be known")
	}
	if want != 430 {
		t.Errorf("expected 430 km, got %v", want)
	}

	tests := []struct {
		name string
		a, b string
	}{
		{"padded and lowercase", " São Paulo, SP ", "rio de janeiro, rj"},
		{"uppercase", "SÃO PAULO, SP", "RIO DE JANEIRO, RJ"},
		{"reversed", "rio de janeiro, rj", "\tsão paulo, sp\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.FindDistance(tt.a, tt.b)
			if !ok {
				t.Fatalf("FindDistance(%q, %q) not found", tt.a, tt.b)
			}
			if got != want {
				t.Errorf("FindDistance(%q, %q) = %v, want %v", tt.a, tt.b, got, want)
			}
		})
	}
}

func TestFindDistance_Unknown(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name string
		a, b string
	}{
		{"unknown city", "Atlantis, XX", "São Paulo, SP"},
		{"known cities without a route", "Manaus, AM", "Porto Alegre, RS"},
		{"empty names", "", ""},
		{"same city", "São Paulo, SP", "São Paulo, SP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d, ok := c.FindDistance(tt.a, tt.b); ok {
				t.Errorf("FindDistance(%q, %q) = %v, expected not found", tt.a, tt.b, d)
			}
		})
	}
}

func TestFindDistance_ForwardMatchWins(t *testing.T) {
	c, err := NewCatalog([]Route{
		{Origin: "B", Destination: "A", DistanceKm: 20},
		{Origin: "A", Destination: "B", DistanceKm: 10},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	if d, _ := c.FindDistance("a", "b"); d != 10 {
		t.Errorf("expected forward match 10, got %v", d)
	}
	if d, _ := c.FindDistance("b", "a"); d != 20 {
		t.Errorf("expected forward match 20, got %v", d)
	}
}

func TestCities(t *testing.T) {
	c := DefaultCatalog()
	cities := c.Cities()

	if !slices.IsSorted(cities) {
		t.Errorf("cities are not sorted: %v", cities)
	}

	distinct := make(map[string]struct{})
	for _, r := range c.Routes() {
		distinct[r.Origin] = struct{}{}
		distinct[r.Destination] = struct{}{}
	}
	if len(cities) != len(distinct) {
		t.Errorf("expected %d cities, got %d", len(distinct), len(cities))
	}

	for i := 1; i < len(cities); i++ {
		if cities[i] == cities[i-1] {
			t.Errorf("duplicate city %q", cities[i])
		}
	}

	// Callers must not be able to mutate the catalog through the returned slice.
	cities[0] = "mutated"
	if c.Cities()[0] == "mutated" {
		t.Error("Cities() exposed internal state")
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
	}{
		{"zero distance", []Route{{Origin: "A", Destination: "B", DistanceKm: 0}}},
		{"negative distance", []Route{{Origin: "A", Destination: "B", DistanceKm: -1}}},
		{"empty origin", []Route{{Origin: " ", Destination: "B", DistanceKm: 1}}},
		{"empty destination", []Route{{Origin: "A", Destination: "", DistanceKm: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.routes); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCatalog_Idempotent(t *testing.T) {
	c := DefaultCatalog()

	first, _ := c.FindDistance("Curitiba, PR", "Florianópolis, SC")
	second, _ := c.FindDistance("Curitiba, PR", "Florianópolis, SC")
	if first != second {
		t.Errorf("repeated lookups differ: %v vs %v", first, second)
	}
	if !slices.Equal(c.Cities(), c.Cities()) {
		t.Error("repeated Cities() calls differ")
	}
}
