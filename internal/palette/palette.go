// Package palette pairs the color of a bottom garment with compatible top
// colors.
package palette

const Fallback = "Neutrale Farben empfohlen"

const defaultSwatch = "#9CA3AF"

type BottomOption struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Swatch string `json:"swatch"`
}

var bottomOptions = []BottomOption{
	{Key: "jeans", Name: "Jeans", Swatch: "#4682B4"},
	{Key: "schwarz", Name: "Schwarz", Swatch: "#000000"},
	{Key: "beige", Name: "Beige", Swatch: "#F5F5DC"},
	{Key: "weiß", Name: "Weiß", Swatch: "#FFFFFF"},
	{Key: "braun", Name: "Braun", Swatch: "#8B4513"},
	{Key: "pink", Name: "Pink", Swatch: "#FFC0CB"},
}

var pairings = map[string][]string{
	"jeans":   {"Blau", "Weiß", "Schwarz", "Rot", "Lila", "Pink", "Grün", "Braun"},
	"schwarz": {"Alle Farben", "Orange", "Gelb", "Rot", "Weiß", "Grau", "Pink", "Grün"},
	"beige":   {"Schwarz", "Dunkelblau", "Braun", "Dunkelgrün", "Bordeaux"},
	"pink":    {"Schwarz", "Dunkelblau", "Weiß", "Grau"},
	"weiß":    {"Alle Farben möglich", "Blau", "Schwarz", "Rot", "Grün", "Gelb"},
	"braun":   {"Babyblau", "Schwarz", "Creme", "Weiß"},
}

var swatches = map[string]string{
	"Blau":       "#3B82F6",
	"Weiß":       "#FFFFFF",
	"Schwarz":    "#000000",
	"Rot":        "#EF4444",
	"Lila":       "#A855F7",
	"Pink":       "#EC4899",
	"Grün":       "#22C55E",
	"Braun":      "#B45309",
	"Orange":     "#F97316",
	"Gelb":       "#FACC15",
	"Grau":       "#6B7280",
	"Dunkelblau": "#1E40AF",
	"Dunkelgrün": "#166534",
	"Bordeaux":   "#991B1B",
	"Babyblau":   "#93C5FD",
	"Creme":      "#FEF3C7",
}

// SuggestTopColors returns the top colors for a bottom color key in display
// order. Keys match exactly; anything unknown yields the fallback.
func SuggestTopColors(bottomColorKey string) []string {
	colors, ok := pairings[bottomColorKey]
	if !ok {
		return []string{Fallback}
	}
	out := make([]string, len(colors))
	copy(out, colors)
	return out
}

func IsKnown(bottomColorKey string) bool {
	_, ok := pairings[bottomColorKey]
	return ok
}

func BottomOptions() []BottomOption {
	out := make([]BottomOption, len(bottomOptions))
	copy(out, bottomOptions)
	return out
}

// Option looks up the selectable bottom color for key.
func Option(key string) (BottomOption, bool) {
	for _, opt := range bottomOptions {
		if opt.Key == key {
			return opt, true
		}
	}
	return BottomOption{}, false
}

func Swatch(colorName string) string {
	if hex, ok := swatches[colorName]; ok {
		return hex
	}
	return defaultSwatch
}
