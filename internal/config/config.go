package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Expense store
	DataBackend    string
	ExpensesAPIURL string
	SQLiteDBPath   string

	// Receipt images
	BlobBackend           string
	FirebaseStorageBucket string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Auth
	AuthBackend     string
	FirebaseAPIKey  string
	LocalAuthSecret string
	SessionFile     string

	// Exchange rates
	ExchangeAPIURL string
	BaseCurrency   string
	RatesCacheTTL  time.Duration

	// Remote calls
	RequestTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validDataBackends = []string{"rest", "sqlite", "memory"}
	validBlobBackends = []string{"firebase", "memory"}
	validAuthBackends = []string{"firebase", "local"}
	currencyCode      = regexp.MustCompile(`^[A-Z]{3}$`)
)

func Load() *Config {
	cfg := &Config{
		DataBackend:    getEnv("DATA_BACKEND", "rest"),
		ExpensesAPIURL: strings.TrimRight(getEnv("EXPENSES_API_URL", ""), "/"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		BlobBackend:           getEnv("BLOB_BACKEND", "firebase"),
		FirebaseStorageBucket: getEnv("FIREBASE_STORAGE_BUCKET", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		AuthBackend:     getEnv("AUTH_BACKEND", "firebase"),
		FirebaseAPIKey:  getEnv("FIREBASE_API_KEY", ""),
		LocalAuthSecret: getEnv("LOCAL_AUTH_SECRET", ""),
		SessionFile:     getEnv("SESSION_FILE", defaultSessionFile()),

		ExchangeAPIURL: strings.TrimRight(getEnv("EXCHANGE_API_URL", ""), "/"),
		BaseCurrency:   strings.ToUpper(getEnv("BASE_CURRENCY", "MYR")),
		RatesCacheTTL:  getEnvDuration("RATES_CACHE_TTL", 10*time.Minute),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !oneOf(validDataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validDataBackends))
	}

	switch c.DataBackend {
	case "rest":
		if c.ExpensesAPIURL == "" {
			errors = append(errors, "EXPENSES_API_URL is required when using rest backend")
		} else if err := validateHTTPURL(c.ExpensesAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid EXPENSES_API_URL '%s': %v", c.ExpensesAPIURL, err))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if !oneOf(validBlobBackends, c.BlobBackend) {
		errors = append(errors, fmt.Sprintf("invalid blob backend '%s': must be one of %v", c.BlobBackend, validBlobBackends))
	}
	if c.BlobBackend == "firebase" {
		if c.FirebaseStorageBucket == "" {
			errors = append(errors, "FIREBASE_STORAGE_BUCKET is required when using firebase blob backend")
		}
		hasFile := c.GoogleCredentialsFile != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for firebase blob backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if !oneOf(validAuthBackends, c.AuthBackend) {
		errors = append(errors, fmt.Sprintf("invalid auth backend '%s': must be one of %v", c.AuthBackend, validAuthBackends))
	}
	switch c.AuthBackend {
	case "firebase":
		if c.FirebaseAPIKey == "" {
			errors = append(errors, "FIREBASE_API_KEY is required when using firebase auth backend")
		}
	case "local":
		if len(c.LocalAuthSecret) < 16 {
			errors = append(errors, "LOCAL_AUTH_SECRET must be at least 16 characters when using local auth backend")
		}
	}
	if c.SessionFile == "" {
		errors = append(errors, "SESSION_FILE cannot be empty")
	}

	if c.ExchangeAPIURL != "" {
		if err := validateHTTPURL(c.ExchangeAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid EXCHANGE_API_URL '%s': %v", c.ExchangeAPIURL, err))
		}
	}
	if !currencyCode.MatchString(c.BaseCurrency) {
		errors = append(errors, fmt.Sprintf("invalid base currency '%s': must be a 3-letter code", c.BaseCurrency))
	}
	if c.RatesCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid rates cache TTL %v: must not be negative", c.RatesCacheTTL))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	} else if c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at most 5 minutes", c.RequestTimeout))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".moneymanager-session.json"
	}
	return filepath.Join(dir, "moneymanager", "session.json")
}

func oneOf(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Plain integers are seconds.
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
