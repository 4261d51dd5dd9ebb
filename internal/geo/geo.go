// Package geo turns the outcome of a device geolocation query into a wizard
// location.
package geo

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CurrentLocation replaces the coarse device position; positions are not
// reverse-geocoded.
const CurrentLocation = "Aktueller Standort (Berlin)"

var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnsupported      = errors.New("geolocation not supported")
)

var validate = validator.New()

// Outcome codes reported by the client when the device query fails.
const (
	OutcomeDenied      = "denied"
	OutcomeUnsupported = "unsupported"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
)

type Position struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Report is what the client sends after querying the device.
type Report struct {
	Position *Position `json:"position,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Resolve maps a report to a location. Every failure is either
// ErrUnsupported or wraps ErrPermissionDenied.
func Resolve(r Report) (string, error) {
	switch r.Error {
	case "":
	case OutcomeUnsupported:
		return "", ErrUnsupported
	default:
		return "", fmt.Errorf("%w: %s", ErrPermissionDenied, r.Error)
	}

	if r.Position == nil {
		return "", fmt.Errorf("%w: no position reported", ErrPermissionDenied)
	}
	if err := validate.Struct(r.Position); err != nil {
		return "", fmt.Errorf("%w: position out of range: %v", ErrPermissionDenied, err)
	}

	return CurrentLocation, nil
}
