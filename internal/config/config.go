package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	dBUsername    string
	dBPassword    string
	dBHost        string
	sentryDSN     string
	bridgeURL     string
	bridgeToken   string
	pathsFile     string
	checkInterval time.Duration
	maxActive     int
	port          string
	env           environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBHost() string {
	return c.dBHost
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// BridgeURL is the base URL of the game-server bridge plugin the hook
// adapters talk to.
func (c *Config) BridgeURL() string {
	return c.bridgeURL
}

func (c *Config) BridgeToken() string {
	return c.bridgeToken
}

func (c *Config) PathsFile() string {
	return c.pathsFile
}

func (c *Config) CheckInterval() time.Duration {
	return c.checkInterval
}

// MaxActivePaths is the per-player cap on concurrently active paths.
func (c *Config) MaxActivePaths() int {
	return c.maxActive
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, pathsFile: %s, checkInterval: %s, maxActivePaths: %d, ...}",
		string(c.env), c.pathsFile, c.checkInterval, c.maxActive,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("PATHWAYS_ENVIRONMENT")
	if !ok {
		return missingKey("PATHWAYS_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: PATHWAYS_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	sentryDSN := os.Getenv("SENTRY_DSN")
	bridgeURL := os.Getenv("BRIDGE_URL")
	bridgeToken := os.Getenv("BRIDGE_TOKEN")

	pathsFile := os.Getenv("PATHS_FILE")
	if pathsFile == "" {
		pathsFile = "paths.yml"
	}

	checkInterval := 5 * time.Minute
	if rawInterval := os.Getenv("CHECK_INTERVAL"); rawInterval != "" {
		parsed, err := time.ParseDuration(rawInterval)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("%w: CHECK_INTERVAL (%s)", ErrInvalidValue, rawInterval)
		}
		checkInterval = parsed
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	maxActive := 1
	if rawMaxActive := os.Getenv("MAX_ACTIVE_PATHS"); rawMaxActive != "" {
		parsed, err := strconv.Atoi(rawMaxActive)
		if err != nil || parsed < 1 {
			return Config{}, fmt.Errorf("%w: MAX_ACTIVE_PATHS (%s)", ErrInvalidValue, rawMaxActive)
		}
		maxActive = parsed
	}

	if env == production || env == staging {
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if dbHost == "" {
			return missingKey("DB_HOST")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if bridgeURL == "" {
			return missingKey("BRIDGE_URL")
		}
		if bridgeToken == "" {
			return missingKey("BRIDGE_TOKEN")
		}
	}

	return Config{
		dBUsername:    dbUsername,
		dBPassword:    dbPassword,
		dBHost:        dbHost,
		sentryDSN:     sentryDSN,
		bridgeURL:     bridgeURL,
		bridgeToken:   bridgeToken,
		pathsFile:     pathsFile,
		checkInterval: checkInterval,
		maxActive:     maxActive,
		port:          port,
		env:           env,
	}, nil
}
