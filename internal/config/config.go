package config

import (
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/logging"
	"github.com/spf13/viper"
)

const (
	envPrefix            = "MERIDIAN"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "meridian.db"
	defaultLogLevel      = "info"
	defaultNearbyRadius  = 1.0
	defaultNearbyMinDist = 0.05
	defaultNearbyLimit   = 5
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress         string
	DatabasePath        string
	LogLevel            string
	FlightStatusBaseURL string
	NearbyRadiusKm      float64
	NearbyMinDistanceKm float64
	NearbyLimit         int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("flights.base_url", "")
	configViper.SetDefault("nearby.radius_km", defaultNearbyRadius)
	configViper.SetDefault("nearby.min_distance_km", defaultNearbyMinDist)
	configViper.SetDefault("nearby.limit", defaultNearbyLimit)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:         configViper.GetString("http.address"),
		DatabasePath:        configViper.GetString("database.path"),
		LogLevel:            configViper.GetString("log.level"),
		FlightStatusBaseURL: configViper.GetString("flights.base_url"),
		NearbyRadiusKm:      configViper.GetFloat64("nearby.radius_km"),
		NearbyMinDistanceKm: configViper.GetFloat64("nearby.min_distance_km"),
		NearbyLimit:         configViper.GetInt("nearby.limit"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.NearbyRadiusKm <= 0 {
		return fmt.Errorf("nearby.radius_km must be positive")
	}
	if c.NearbyMinDistanceKm < 0 {
		return fmt.Errorf("nearby.min_distance_km must not be negative")
	}
	if c.NearbyLimit <= 0 {
		return fmt.Errorf("nearby.limit must be positive")
	}
	return nil
}
