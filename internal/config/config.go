// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Nothing at all: every value is then read from the environment
//     (DBURI, APIKEY, HTTP_SERVER_ADDR, ...) or falls back to its default.
//
// Environment variables always override values from the YAML file.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers accepted by Storage.Driver.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// HTTPServer is embedded so its fields are promoted: cfg.Addr.
	HTTPServer `yaml:"http_server"`

	Storage  Storage  `yaml:"storage"`
	Geocoder Geocoder `yaml:"geocoder"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. ":8082".
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:":8082" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo" validate:"oneof=mongo sqlite"`

	// URI is the MongoDB connection string.
	URI        string `yaml:"uri" env:"DBURI" validate:"required_if=Driver mongo"`
	Database   string `yaml:"database" env:"DB_NAME" env-default:"homeowners"`
	Collection string `yaml:"collection" env:"DB_COLLECTION" env-default:"homeowners"`

	// Path is the SQLite database file.
	Path string `yaml:"path" env:"STORAGE_PATH" validate:"required_if=Driver sqlite"`
}

// Geocoder configures the external geocoding provider.
type Geocoder struct {
	BaseURL string        `yaml:"base_url" env:"GEOCODER_URL" env-default:"https://api.geoapify.com" validate:"required,url"`
	APIKey  string        `yaml:"api_key" env:"APIKEY"`
	Timeout time.Duration `yaml:"timeout" env:"GEOCODER_TIMEOUT" env-default:"10s" validate:"gt=0"`
}

// Load reads the config file at path, or only the environment when path
// is empty, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
