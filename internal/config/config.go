package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Wizard      WizardConfig    `mapstructure:"wizard"`
	Session     SessionConfig   `mapstructure:"session"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

type WeatherConfig struct {
	Source   string                          `mapstructure:"source"`
	Services map[string]WeatherServiceConfig `mapstructure:"services"`
	Timeout  int                             `mapstructure:"timeout"`
	CacheTTL int                             `mapstructure:"cache_ttl"`
	DelayMS  int                             `mapstructure:"delay_ms"`
}

type WeatherServiceConfig struct {
	Type         string            `mapstructure:"type"`
	Enabled      bool              `mapstructure:"enabled"`
	BaseURL      string            `mapstructure:"base_url"`
	GeocodingURL string            `mapstructure:"geocoding_url"`
	Params       map[string]string `mapstructure:"params"`
}

// WizardConfig holds the simulated delays of the location and outfit stages.
type WizardConfig struct {
	LocationDelayMS int `mapstructure:"location_delay_ms"`
	OutfitDelayMS   int `mapstructure:"outfit_delay_ms"`
}

type SessionConfig struct {
	Store      string       `mapstructure:"store"`
	TTL        int          `mapstructure:"ttl"`
	CookieName string       `mapstructure:"cookie_name"`
	Workers    int          `mapstructure:"workers"`
	QueueSize  int          `mapstructure:"queue_size"`
	Valkey     ValkeyConfig `mapstructure:"valkey"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Weather: WeatherConfig{
			Source: "random",
			Services: map[string]WeatherServiceConfig{
				"random": {
					Type:    "random",
					Enabled: true,
				},
				"open-meteo": {
					Type:         "open-meteo",
					Enabled:      false,
					BaseURL:      "https://api.open-meteo.com/v1",
					GeocodingURL: "https://geocoding-api.open-meteo.com/v1",
					Params: map[string]string{
						"timezone": "auto",
					},
				},
			},
			Timeout:  10,
			CacheTTL: 0,
			DelayMS:  2000,
		},
		Wizard: WizardConfig{
			LocationDelayMS: 1000,
			OutfitDelayMS:   1500,
		},
		Session: SessionConfig{
			Store:      "memory",
			TTL:        3600,
			CookieName: "wizard_session",
			Workers:    4,
			QueueSize:  64,
			Valkey: ValkeyConfig{
				Addr:   "localhost:6379",
				Prefix: "wizard",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "outfit-wizard",
		},
	}
}
