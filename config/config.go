// Package config provides configuration management for the lojinha application.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and collective
// error reporting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // Lifetime of issued access tokens
}

// UpstreamConfig holds configuration for the backend API the storefront talks to.
type UpstreamConfig struct {
	BaseURL       string        // Base URL of the backend, e.g. http://localhost:8000
	Timeout       time.Duration // Per-request timeout
	MockMode      bool          // Force the embedded mock data, never hit the network
	ProbeInterval time.Duration // How often the health prober re-checks the backend
}

// StoreConfig holds configuration for the local key-value store.
type StoreConfig struct {
	Path string // Filesystem path of the SQLite file
}

// StorefrontConfig holds the store business rules that were constants in the
// original frontend.
type StorefrontConfig struct {
	CouponCode      string        // The single accepted coupon code
	CouponDiscount  float64       // Fractional discount the coupon grants
	ProductsPerPage int           // Fixed catalog page size
	SearchDebounce  time.Duration // Quiet interval before a search is applied
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Server     *ServerConfig
	Auth       *AuthConfig
	Upstream   *UpstreamConfig
	Store      *StoreConfig
	Storefront *StorefrontConfig
}

// getRequiredEnv reads a required environment variable, appending an error to
// the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an optional environment variable parsed as an int.
// Uses defaultValue if not set; appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvFloat reads an optional environment variable parsed as a float64.
func getOptionalEnvFloat(key string, defaultValue float64, errors *[]string) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected number, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueFloat
}

// getOptionalEnvBool reads an optional environment variable parsed as a bool.
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

// getOptionalEnvDuration reads an optional environment variable parsed as a
// time.Duration ("15m", "1h30s"). Uses defaultValue if not set; appends an
// error if parsing fails.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading and
// returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Server
	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	// Auth
	jwtSecret := getRequiredEnv("JWT_SECRET", &errors)
	tokenDuration := getOptionalEnvDuration("TOKEN_DURATION", 30*time.Minute, &errors)
	authConfig := &AuthConfig{
		JWTSecret:     jwtSecret,
		TokenDuration: tokenDuration,
	}

	// Upstream backend
	upstreamConfig := &UpstreamConfig{
		BaseURL:       getOptionalEnv("UPSTREAM_BASE_URL", "http://localhost:8000"),
		Timeout:       getOptionalEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second, &errors),
		MockMode:      getOptionalEnvBool("MOCK_MODE", false, &errors),
		ProbeInterval: getOptionalEnvDuration("HEALTH_PROBE_INTERVAL", 15*time.Second, &errors),
	}

	// Local store
	storeConfig := &StoreConfig{
		Path: getOptionalEnv("STORE_PATH", "./lojinha.db"),
	}

	// Storefront business rules
	couponDiscount := getOptionalEnvFloat("COUPON_DISCOUNT", 0.10, &errors)
	if couponDiscount < 0 || couponDiscount > 1 {
		errors = append(errors, fmt.Sprintf("COUPON_DISCOUNT must be within [0, 1], got %v", couponDiscount))
	}
	productsPerPage := getOptionalEnvInt("PRODUCTS_PER_PAGE", 9, &errors)
	if productsPerPage < 1 {
		errors = append(errors, fmt.Sprintf("PRODUCTS_PER_PAGE must be at least 1, got %d", productsPerPage))
	}
	storefrontConfig := &StorefrontConfig{
		CouponCode:      getOptionalEnv("COUPON_CODE", "ALUNO10"),
		CouponDiscount:  couponDiscount,
		ProductsPerPage: productsPerPage,
		SearchDebounce:  getOptionalEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond, &errors),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Server:     serverConfig,
		Auth:       authConfig,
		Upstream:   upstreamConfig,
		Store:      storeConfig,
		Storefront: storefrontConfig,
	}, nil
}
