package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/outfit-wizard/internal/config"
)

const currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation_probability,weather_code,wind_speed_10m"

var ErrLocationNotFound = errors.New("location not found")

type OpenMeteoSource struct {
	baseURL      string
	geocodingURL string
	client       *http.Client
	params       map[string]string
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature              float64 `json:"temperature_2m"`
		RelativeHumidity         float64 `json:"relative_humidity_2m"`
		ApparentTemperature      float64 `json:"apparent_temperature"`
		PrecipitationProbability float64 `json:"precipitation_probability"`
		WeatherCode              int     `json:"weather_code"`
		WindSpeed                float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func NewOpenMeteoSourceWithConfig(cfg config.WeatherServiceConfig, timeout time.Duration) *OpenMeteoSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenMeteoSource{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		geocodingURL: strings.TrimRight(cfg.GeocodingURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		params: cfg.Params,
	}
}

func (s *OpenMeteoSource) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoSource) Current(ctx context.Context, location string) (Snapshot, error) {
	lat, lon, err := s.geocode(ctx, searchName(location))
	if err != nil {
		return Snapshot{}, err
	}

	u, err := url.Parse(fmt.Sprintf("%s/forecast", s.baseURL))
	if err != nil {
		return Snapshot{}, err
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("current", currentFields)
	q.Set("wind_speed_unit", "kmh")

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()

	var result forecastResponse
	if err := s.getJSON(ctx, u.String(), &result); err != nil {
		return Snapshot{}, fmt.Errorf("fetch current conditions: %w", err)
	}

	cur := result.Current
	return Snapshot{
		Temperature:     round(cur.Temperature),
		Condition:       conditionFromCode(cur.WeatherCode),
		RainProbability: clampPercent(round(cur.PrecipitationProbability)),
		WindSpeed:       round(cur.WindSpeed),
		Humidity:        clampPercent(round(cur.RelativeHumidity)),
		FeelsLike:       round(cur.ApparentTemperature),
		Description:     describeCode(cur.WeatherCode),
	}, nil
}

func (s *OpenMeteoSource) geocode(ctx context.Context, name string) (float64, float64, error) {
	u, err := url.Parse(fmt.Sprintf("%s/search", s.geocodingURL))
	if err != nil {
		return 0, 0, err
	}

	q := u.Query()
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "de")
	u.RawQuery = q.Encode()

	var result geocodingResponse
	if err := s.getJSON(ctx, u.String(), &result); err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(result.Results) == 0 {
		return 0, 0, fmt.Errorf("geocode %q: %w", name, ErrLocationNotFound)
	}

	return result.Results[0].Latitude, result.Results[0].Longitude, nil
}

func (s *OpenMeteoSource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// searchName turns "Aktueller Standort (Berlin)" into "Berlin".
func searchName(location string) string {
	location = strings.TrimSpace(location)
	open := strings.LastIndex(location, "(")
	if open >= 0 && strings.HasSuffix(location, ")") {
		if inner := strings.TrimSpace(location[open+1 : len(location)-1]); inner != "" {
			return inner
		}
	}
	return location
}

// WMO weather interpretation codes.
func conditionFromCode(code int) Condition {
	switch {
	case code <= 1:
		return ConditionSunny
	case code >= 51 && code <= 67, code >= 71 && code <= 86, code >= 95:
		return ConditionRainy
	default:
		return ConditionCloudy
	}
}

func describeCode(code int) string {
	switch {
	case code == 0:
		return "Klarer Himmel"
	case code <= 3:
		return "Teilweise bewölkt"
	case code == 45 || code == 48:
		return "Nebel"
	case code >= 51 && code <= 57:
		return "Nieselregen"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "Regen"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "Schnee"
	case code >= 95:
		return "Gewitter"
	default:
		return "Bewölkt"
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
