package emission

import "strings"

// Mode is a transport mode tag.
type Mode string

// Known transport modes.
const (
	Bicycle Mode = "bicycle"
	Car     Mode = "car"
	Plane   Mode = "plane"
	Boat    Mode = "boat"
	Bus     Mode = "bus"
	Truck   Mode = "truck"
)

// Baseline is the mode every comparison is measured against.
const Baseline = Car

var knownModes = []Mode{Bicycle, Car, Plane, Boat, Bus, Truck}

// Modes returns every known mode in a fixed order.
func Modes() []Mode {
	out := make([]Mode, len(knownModes))
	copy(out, knownModes)
	return out
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, k := range knownModes {
		if m == k {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

var modeAliases = map[string]Mode{
	"bicycle":   Bicycle,
	"bike":      Bicycle,
	"cycling":   Bicycle,
	"bicicleta": Bicycle,
	"car":       Car,
	"driving":   Car,
	"drive":     Car,
	"carro":     Car,
	"plane":     Plane,
	"airplane":  Plane,
	"flight":    Plane,
	"aviao":     Plane,
	"avião":     Plane,
	"boat":      Boat,
	"ship":      Boat,
	"ferry":     Boat,
	"barco":     Boat,
	"bus":       Bus,
	"coach":     Bus,
	"onibus":    Bus,
	"ônibus":    Bus,
	"truck":     Truck,
	"lorry":     Truck,
	"caminhao":  Truck,
	"caminhão":  Truck,
}

// ParseMode maps a user-supplied mode name or alias to a Mode.
func ParseMode(s string) (Mode, bool) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// Display is UI metadata for a mode. The engine never reads it.
type Display struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var displays = map[Mode]Display{
	Bicycle: {Label: "Bicicleta", Icon: "🚲", Color: "#10b981"},
	Car:     {Label: "Carro", Icon: "🚗", Color: "#3b82f6"},
	Plane:   {Label: "Avião", Icon: "✈️", Color: "#ef4444"},
	Boat:    {Label: "Barco", Icon: "🚢", Color: "#0ea5e9"},
	Bus:     {Label: "Ônibus", Icon: "🚌", Color: "#f59e0b"},
	Truck:   {Label: "Caminhão", Icon: "🚚", Color: "#8b5cf6"},
}

// DisplayFor returns the UI metadata of m, or a zero Display for unknown modes.
func DisplayFor(m Mode) Display {
	return displays[m]
}
