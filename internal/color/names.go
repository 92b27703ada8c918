package color

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// NamedMatch is a reference color ranked by perceptual distance.
type NamedMatch struct {
	Name     string  `json:"name"`
	Hex      string  `json:"hex"`
	Distance float64 `json:"distance"`
}

var namedColors = map[string]string{
	"Black":     "#000000",
	"White":     "#ffffff",
	"Red":       "#ff0000",
	"Green":     "#008000",
	"Blue":      "#0000ff",
	"Yellow":    "#ffff00",
	"Cyan":      "#00ffff",
	"Magenta":   "#ff00ff",
	"Gray":      "#808080",
	"Silver":    "#c0c0c0",
	"Maroon":    "#800000",
	"Olive":     "#808000",
	"Lime":      "#00ff00",
	"Teal":      "#008080",
	"Navy":      "#000080",
	"Purple":    "#800080",
	"Orange":    "#ffa500",
	"Pink":      "#ffc0cb",
	"Brown":     "#a52a2a",
	"Gold":      "#ffd700",
	"Beige":     "#f5f5dc",
	"Turquoise": "#40e0d0",
	"Lavender":  "#e6e6fa",
	"Chocolate": "#d2691e",
	"Coral":     "#ff7f50",
}

// Nearest returns up to n named colors closest to value in CIE Lab space.
// Unparseable values return nil.
func Nearest(value string, n int) []NamedMatch {
	input, ok := Parse(value)
	if !ok || n <= 0 {
		return nil
	}

	matches := make([]NamedMatch, 0, len(namedColors))
	for name, hex := range namedColors {
		reference, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		matches = append(matches, NamedMatch{Name: name, Hex: hex, Distance: input.DistanceLab(reference)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Name < matches[j].Name
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

// NearestName is the name of the closest reference color, or "".
func NearestName(value string) string {
	matches := Nearest(value, 1)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Name
}
