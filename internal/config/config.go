package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	AppEnv          string
	ShutdownTimeout time.Duration

	// Default options for every namespace's classifier.
	SVMOptions domain.Options

	DBPath              string
	PersistDictionaries bool

	// OpenWeatherMap proxy configuration.
	WeatherAppID    string
	WeatherEnabled  bool
	WeatherTimeout  time.Duration
	WeatherCacheTTL time.Duration

	// Kafka training ingestion.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaTrainingTopic string
	KafkaEventsTopic   string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	DeployVersion string
}

// Production reports whether the service runs with APP_ENV=production.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	weatherCacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "10m")
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

	svmOptions, err := parseSVMOptions()
	if err != nil {
		return nil, err
	}

	weatherAppID := os.Getenv("WEATHERMAP_APPID")
	weatherEnabled := weatherAppID != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		weatherEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        httpAddr(),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		AppEnv:          sharedcfg.EnvOrDefault("APP_ENV", "development"),
		ShutdownTimeout: shutdownTimeout,

		SVMOptions: svmOptions,

		DBPath:              sharedcfg.EnvOrDefault("DB_PATH", "gearsmarts.db"),
		PersistDictionaries: os.Getenv("PERSIST_DICTIONARIES") == "true",

		WeatherAppID:    weatherAppID,
		WeatherEnabled:  weatherEnabled,
		WeatherTimeout:  weatherTimeout,
		WeatherCacheTTL: weatherCacheTTL,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTrainingTopic: sharedcfg.EnvOrDefault("KAFKA_TRAINING_TOPIC", "training-observations"),
		KafkaEventsTopic:   sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "training-events"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "gear-smarts"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DeployVersion: os.Getenv("DEPLOY_VERSION"),
	}

	if cfg.WeatherEnabled && cfg.WeatherAppID == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHERMAP_APPID is not set")
	}
	if (cfg.WeatherEnabled || cfg.PersistDictionaries) && cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTrainingTopic == "" {
			return nil, errors.New("KAFKA_TRAINING_TOPIC is required")
		}
		if cfg.KafkaEventsTopic == "" {
			return nil, errors.New("KAFKA_EVENTS_TOPIC is required")
		}
	}

	return cfg, nil
}

// httpAddr prefers HTTP_ADDR and falls back to the platform-provided PORT.
func httpAddr() string {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		return v
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func parsePositiveDuration(name, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseSVMOptions() (domain.Options, error) {
	raw := sharedcfg.EnvOrDefault("SVM_OPTIONS", "{}")
	var opts domain.Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("invalid SVM_OPTIONS: %w", err)
	}
	return opts, nil
}
