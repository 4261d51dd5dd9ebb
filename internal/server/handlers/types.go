package handlers

import (
	"github.com/vzahanych/outfit-wizard/internal/server/utils"
	"github.com/vzahanych/outfit-wizard/internal/stage"
)

// LocationRequest carries a typed or preset location
type LocationRequest struct {
	Location string `json:"location" validate:"max=100"`
	// Preset marks a one-click preset, which skips the typing delay.
	Preset bool `json:"preset"`
}

// CurrentLocationRequest is the outcome of the browser geolocation query.
// Either coordinates or an error outcome are sent.
type CurrentLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_without=Error"`
	Longitude *float64 `json:"longitude" validate:"required_without=Error"`
	Error     string   `json:"error" validate:"omitempty,oneof=denied unsupported unavailable timeout"`
}

type BottomColorRequest struct {
	BottomColor string `json:"bottom_color" validate:"required,bottomcolor"`
}

// ColorsResponse is the stateless pairing lookup result
type ColorsResponse struct {
	Key         string              `json:"key"`
	Name        string              `json:"name"`
	Swatch      string              `json:"swatch"`
	Suggestions []stage.ColorSwatch `json:"suggestions"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string                  `json:"error" validate:"required,min=1,max=500"`
	Code    string                  `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details string                  `json:"details,omitempty" validate:"omitempty,max=1000"`
	Fields  []utils.ValidationError `json:"fields,omitempty"`
	// View is the unchanged wizard view for errors that leave a notice.
	View *stage.View `json:"view,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string            `json:"status" validate:"required,oneof=ok alive ready degraded unavailable"`
	Uptime    string            `json:"uptime" validate:"required"`
	Timestamp string            `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Checks    map[string]string `json:"checks,omitempty"`
}
