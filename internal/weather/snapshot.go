package weather

import "context"

type Condition string

const (
	ConditionSunny  Condition = "sunny"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
)

var Conditions = []Condition{ConditionSunny, ConditionCloudy, ConditionRainy}

// Snapshot describes the current conditions at a location. Downstream stages
// treat it as an opaque, immutable input.
type Snapshot struct {
	Temperature     int       `json:"temperature" validate:"min=-100,max=100"`
	Condition       Condition `json:"condition" validate:"required,oneof=sunny cloudy rainy"`
	RainProbability int       `json:"rain_probability" validate:"min=0,max=100"`
	WindSpeed       int       `json:"wind_speed" validate:"min=0"`
	Humidity        int       `json:"humidity" validate:"min=0,max=100"`
	FeelsLike       int       `json:"feels_like"`
	Description     string    `json:"description"`
}

// Source is the WeatherSource capability: anything that can produce a
// Snapshot for a location.
type Source interface {
	Current(ctx context.Context, location string) (Snapshot, error)
	Name() string
}
