package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSuccess(t *testing.T) {
	loc, err := Resolve(Report{Position: &Position{Latitude: 48.13, Longitude: 11.58}})
	require.NoError(t, err)
	assert.Equal(t, CurrentLocation, loc)
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   error
	}{
		{"denied", Report{Error: OutcomeDenied}, ErrPermissionDenied},
		{"timeout", Report{Error: OutcomeTimeout}, ErrPermissionDenied},
		{"unsupported", Report{Error: OutcomeUnsupported}, ErrUnsupported},
		{"no position", Report{}, ErrPermissionDenied},
		{"out of range", Report{Position: &Position{Latitude: 91}}, ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Resolve(tt.report)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, loc)
		})
	}
}
