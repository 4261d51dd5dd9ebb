// Package outfit maps weather conditions to a clothing recommendation.
package outfit

import (
	"strings"

	"github.com/vzahanych/outfit-wizard/internal/weather"
)

const (
	RainThreshold = 60
	WindThreshold = 20

	rainJacket = "Regenjacke"
	windJacket = "Windjacke"
	jacket     = "Jacke"
)

type Flags struct {
	Rainy bool `json:"rainy"`
	Windy bool `json:"windy"`
}

type Outfit struct {
	BottomWear        string   `json:"bottom_wear"`
	TopWear           []string `json:"top_wear"`
	Outerwear         []string `json:"outerwear"`
	Accessories       []string `json:"accessories"`
	SourceTemperature int      `json:"source_temperature"`
	Flags             Flags    `json:"flags"`
}

type band struct {
	// upper is the inclusive upper bound; the last band has none.
	upper       int
	open        bool
	bottomWear  string
	topWear     []string
	outerwear   []string
	accessories []string
}

// Bands are ordered; the first whose upper bound holds wins. t < 0 is
// expressed as t <= -1 since temperatures are whole degrees.
var bands = []band{
	{
		upper:       -1,
		bottomWear:  "Dicke Hose",
		topWear:     []string{"Langarmshirt", "Pulli"},
		outerwear:   []string{"Winterjacke"},
		accessories: []string{"Mütze", "Schal", "Handschuhe"},
	},
	{
		upper:       10,
		bottomWear:  "Lange Hose",
		topWear:     []string{"Langarmshirt", "Pulli"},
		outerwear:   []string{"Jacke"},
		accessories: []string{"Schal"},
	},
	{
		upper:      15,
		bottomWear: "Hose",
		topWear:    []string{"Langarmshirt", "Pulli"},
		outerwear:  []string{"Leichte Jacke"},
	},
	{
		upper:      20,
		bottomWear: "Dünne Hose",
		topWear:    []string{"T-Shirt"},
		outerwear:  []string{"Pulli (optional)"},
	},
	{
		upper:      25,
		bottomWear: "Kurze Hose oder dünne Hose",
		topWear:    []string{"T-Shirt oder Top"},
		outerwear:  []string{"Leichter Pulli (abends)"},
	},
	{
		open:       true,
		bottomWear: "Kurze Hose",
		topWear:    []string{"Top oder dünnes T-Shirt"},
	},
}

func bandFor(temperature int) band {
	for _, b := range bands {
		if b.open || temperature <= b.upper {
			return b
		}
	}
	return bands[len(bands)-1]
}

// Decide builds the outfit for a snapshot. It is pure and total.
func Decide(w weather.Snapshot) Outfit {
	b := bandFor(w.Temperature)

	flags := Flags{
		Rainy: w.RainProbability > RainThreshold,
		Windy: w.WindSpeed > WindThreshold,
	}

	outerwear := clone(b.outerwear)

	// Rain is applied first so that a Regenjacke also covers the wind.
	if flags.Rainy && !contains(outerwear, rainJacket) {
		outerwear = append(outerwear, rainJacket)
	}
	if flags.Windy && !anyContains(outerwear, jacket) {
		outerwear = append(outerwear, windJacket)
	}

	return Outfit{
		BottomWear:        b.bottomWear,
		TopWear:           clone(b.topWear),
		Outerwear:         outerwear,
		Accessories:       clone(b.accessories),
		SourceTemperature: w.Temperature,
		Flags:             flags,
	}
}

func clone(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func anyContains(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(item, substr) {
			return true
		}
	}
	return false
}
