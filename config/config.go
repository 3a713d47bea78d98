package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Auth
	AuthMode              string // "none", "password" or "oauth"
	OAuthClientID         string
	OAuthClientSecret     string
	OAuthIssuerURL        string
	OAuthRedirectURI      string
	OAuthExpectedUsername string

	// Debug settings
	DBLogQueries bool
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("FML_DATA_DIR", "./data")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 4000),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "fourminutelog.sqlite"),

		// Auth
		AuthMode:              getEnv("FML_AUTH_MODE", "none"),
		OAuthClientID:         getEnv("FML_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret:     getEnv("FML_OAUTH_CLIENT_SECRET", ""),
		OAuthIssuerURL:        getEnv("FML_OAUTH_ISSUER_URL", ""),
		OAuthRedirectURI:      getEnv("FML_OAUTH_REDIRECT_URI", ""),
		OAuthExpectedUsername: getEnv("FML_EXPECTED_USERNAME", ""),

		// Debug
		DBLogQueries: getEnv("DB_LOG_QUERIES", "") == "1",
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
