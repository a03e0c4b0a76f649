package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// The env tag names the variable and is used in validation errors.
type Config struct {
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" validate:"required,min=1,dive,required"`
	KafkaSourceTopic string        `env:"KAFKA_SOURCE_TOPIC" validate:"required"`
	KafkaSinkTopic   string        `env:"KAFKA_SINK_TOPIC" validate:"required"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" validate:"required"`
	HTTPAddr         string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel         string        `env:"LOG_LEVEL"`
	LogFormat        string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT"`

	BatchSize          int           `env:"BATCH_SIZE"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL"`

	// OpenWeatherMap wind lookups for reports that carry only a location.
	OpenWeatherAPIKey  string        `env:"OPENWEATHER_API_KEY"`
	OpenWeatherEnabled bool          `env:"OPENWEATHER_ENABLED"`
	OpenWeatherUnits   string        `env:"OPENWEATHER_UNITS" validate:"oneof=standard metric imperial"`
	OpenWeatherTimeout time.Duration `env:"OPENWEATHER_TIMEOUT" validate:"gt=0"`
	WeatherCacheSize   int           `env:"WEATHER_CACHE_SIZE" validate:"min=1"`
	WeatherCacheTTL    time.Duration `env:"WEATHER_CACHE_TTL" validate:"min=0"`

	// Scene defaults applied when a report leaves them unset.
	SceneMaxDepth     int     `env:"SCENE_MAX_DEPTH" validate:"min=1"`
	SceneLayout       string  `env:"SCENE_LAYOUT" validate:"oneof=ring tower"`
	ClimateAnomalyHue float64 `env:"CLIMATE_ANOMALY_HUE" validate:"gte=0,lte=180"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first; it never overrides the
// real environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	owTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("WEATHER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("WEATHER_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	maxDepth, err := parseInt("SCENE_MAX_DEPTH", 60)
	if err != nil {
		return nil, err
	}
	hueSwing, err := parseFloat("CLIMATE_ANOMALY_HUE", 25)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	owEnabled := apiKey != ""
	if v := os.Getenv("OPENWEATHER_ENABLED"); v != "" {
		owEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "wind-readings"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "eisenscript-scenes"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "pointy-clumps"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		OpenWeatherAPIKey:  apiKey,
		OpenWeatherEnabled: owEnabled,
		OpenWeatherUnits:   strings.ToLower(sharedcfg.EnvOrDefault("OPENWEATHER_UNITS", "metric")),
		OpenWeatherTimeout: owTimeout,
		WeatherCacheSize:   cacheSize,
		WeatherCacheTTL:    cacheTTL,

		SceneMaxDepth:     maxDepth,
		SceneLayout:       strings.ToLower(sharedcfg.EnvOrDefault("SCENE_LAYOUT", "ring")),
		ClimateAnomalyHue: hueSwing,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return f, nil
}
