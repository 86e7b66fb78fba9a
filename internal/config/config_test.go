package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// baseConfig returns a config that validates with the offline backends.
func baseConfig() Config {
	return Config{
		DataBackend:     "memory",
		BlobBackend:     "memory",
		AuthBackend:     "local",
		LocalAuthSecret: "0123456789abcdef",
		SessionFile:     "./session.json",
		BaseCurrency:    "MYR",
		RatesCacheTTL:   10 * time.Minute,
		RequestTimeout:  20 * time.Second,
		LogFormat:       "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid rest backend config",
			mutate: func(c *Config) {
				c.DataBackend = "rest"
				c.ExpensesAPIURL = "https://api.example.com/expenses"
			},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			mutate: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = "./test.db"
			},
			wantErr: false,
		},
		{
			name: "valid firebase auth config",
			mutate: func(c *Config) {
				c.AuthBackend = "firebase"
				c.FirebaseAPIKey = "key"
				c.LocalAuthSecret = ""
			},
			wantErr: false,
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			wantErr:     true,
			errorString: "invalid data backend 'postgres': must be one of [rest sqlite memory]",
		},
		{
			name:        "rest backend without url",
			mutate:      func(c *Config) { c.DataBackend = "rest" },
			wantErr:     true,
			errorString: "EXPENSES_API_URL is required when using rest backend",
		},
		{
			name: "rest backend with non-http url",
			mutate: func(c *Config) {
				c.DataBackend = "rest"
				c.ExpensesAPIURL = "ftp://example.com"
			},
			wantErr:     true,
			errorString: "invalid EXPENSES_API_URL 'ftp://example.com': scheme must be http or https",
		},
		{
			name: "sqlite backend with empty path",
			mutate: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = ""
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "invalid blob backend",
			mutate:      func(c *Config) { c.BlobBackend = "s3" },
			wantErr:     true,
			errorString: "invalid blob backend 's3': must be one of [firebase memory]",
		},
		{
			name: "firebase blob backend without bucket",
			mutate: func(c *Config) {
				c.BlobBackend = "firebase"
				c.GoogleCredentialsJSON = "{}"
			},
			wantErr:     true,
			errorString: "FIREBASE_STORAGE_BUCKET is required when using firebase blob backend",
		},
		{
			name: "firebase blob backend without credentials",
			mutate: func(c *Config) {
				c.BlobBackend = "firebase"
				c.FirebaseStorageBucket = "demo.appspot.com"
			},
			wantErr:     true,
			errorString: "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for firebase blob backend",
		},
		{
			name: "firebase blob backend with missing credentials file",
			mutate: func(c *Config) {
				c.BlobBackend = "firebase"
				c.FirebaseStorageBucket = "demo.appspot.com"
				c.GoogleCredentialsFile = "/non/existent/file.json"
			},
			wantErr:     true,
			errorString: "Google credentials file does not exist: /non/existent/file.json",
		},
		{
			name:        "invalid auth backend",
			mutate:      func(c *Config) { c.AuthBackend = "ldap" },
			wantErr:     true,
			errorString: "invalid auth backend 'ldap': must be one of [firebase local]",
		},
		{
			name: "firebase auth without api key",
			mutate: func(c *Config) {
				c.AuthBackend = "firebase"
			},
			wantErr:     true,
			errorString: "FIREBASE_API_KEY is required when using firebase auth backend",
		},
		{
			name:        "local auth with short secret",
			mutate:      func(c *Config) { c.LocalAuthSecret = "short" },
			wantErr:     true,
			errorString: "LOCAL_AUTH_SECRET must be at least 16 characters when using local auth backend",
		},
		{
			name:        "empty session file",
			mutate:      func(c *Config) { c.SessionFile = "" },
			wantErr:     true,
			errorString: "SESSION_FILE cannot be empty",
		},
		{
			name:        "invalid exchange api url",
			mutate:      func(c *Config) { c.ExchangeAPIURL = "not a url" },
			wantErr:     true,
			errorString: "invalid EXCHANGE_API_URL 'not a url'",
		},
		{
			name:        "invalid base currency",
			mutate:      func(c *Config) { c.BaseCurrency = "RM" },
			wantErr:     true,
			errorString: "invalid base currency 'RM': must be a 3-letter code",
		},
		{
			name:        "negative rates cache ttl",
			mutate:      func(c *Config) { c.RatesCacheTTL = -time.Second },
			wantErr:     true,
			errorString: "invalid rates cache TTL -1s: must not be negative",
		},
		{
			name:        "request timeout too short",
			mutate:      func(c *Config) { c.RequestTimeout = 500 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid request timeout 500ms: must be at least 1 second",
		},
		{
			name:        "request timeout too long",
			mutate:      func(c *Config) { c.RequestTimeout = 10 * time.Minute },
			wantErr:     true,
			errorString: "invalid request timeout 10m0s: must be at most 5 minutes",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml': must be 'text' or 'json'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateMultipleErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.DataBackend = "bogus"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Config.Validate() expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:\n- ") {
		t.Errorf("unexpected error prefix: %q", msg)
	}
	if strings.Count(msg, "\n- ") != 2 {
		t.Errorf("expected two combined errors, got %q", msg)
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tempDir := t.TempDir()
	credentialsFile := filepath.Join(tempDir, "service-account.json")
	if err := os.WriteFile(credentialsFile, []byte(`{"type":"service_account"}`), 0600); err != nil {
		t.Fatalf("Failed to create credentials file: %v", err)
	}

	cfg := baseConfig()
	cfg.BlobBackend = "firebase"
	cfg.FirebaseStorageBucket = "demo.appspot.com"
	cfg.GoogleCredentialsFile = credentialsFile
	if err := cfg.Validate(); err != nil {
		t.Errorf("Config.Validate() unexpected error = %v", err)
	}

	t.Run("sqlite directory is created", func(t *testing.T) {
		cfg := baseConfig()
		cfg.DataBackend = "sqlite"
		cfg.SQLiteDBPath = filepath.Join(tempDir, "nested", "expenses.db")
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Config.Validate() unexpected error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(tempDir, "nested")); err != nil {
			t.Errorf("expected directory to be created: %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"DATA_BACKEND", "EXPENSES_API_URL", "SQLITE_DB_PATH", "BLOB_BACKEND",
		"AUTH_BACKEND", "SESSION_FILE", "EXCHANGE_API_URL", "BASE_CURRENCY",
		"RATES_CACHE_TTL", "REQUEST_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.DataBackend != "rest" {
			t.Errorf("Load() DataBackend = %v, want rest", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "./data/expenses.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/expenses.db", cfg.SQLiteDBPath)
		}
		if cfg.BlobBackend != "firebase" || cfg.AuthBackend != "firebase" {
			t.Errorf("Load() backends = %v/%v, want firebase/firebase", cfg.BlobBackend, cfg.AuthBackend)
		}
		if cfg.BaseCurrency != "MYR" {
			t.Errorf("Load() BaseCurrency = %v, want MYR", cfg.BaseCurrency)
		}
		if cfg.RatesCacheTTL != 10*time.Minute {
			t.Errorf("Load() RatesCacheTTL = %v, want 10m", cfg.RatesCacheTTL)
		}
		if cfg.RequestTimeout != 20*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 20s", cfg.RequestTimeout)
		}
		if cfg.SessionFile == "" {
			t.Error("Load() SessionFile is empty")
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "sqlite")
		t.Setenv("EXPENSES_API_URL", "https://api.example.com/expenses/")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("BASE_CURRENCY", "usd")
		t.Setenv("RATES_CACHE_TTL", "1h")
		t.Setenv("REQUEST_TIMEOUT", "45")
		t.Setenv("LOG_FORMAT", "json")

		cfg := Load()

		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.ExpensesAPIURL != "https://api.example.com/expenses" {
			t.Errorf("Load() ExpensesAPIURL = %v, want trailing slash trimmed", cfg.ExpensesAPIURL)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.BaseCurrency != "USD" {
			t.Errorf("Load() BaseCurrency = %v, want USD", cfg.BaseCurrency)
		}
		if cfg.RatesCacheTTL != time.Hour {
			t.Errorf("Load() RatesCacheTTL = %v, want 1h", cfg.RatesCacheTTL)
		}
		if cfg.RequestTimeout != 45*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 45s", cfg.RequestTimeout)
		}
		if cfg.LogFormat != "json" {
			t.Errorf("Load() LogFormat = %v, want json", cfg.LogFormat)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("RATES_CACHE_TTL", "invalid")
		t.Setenv("REQUEST_TIMEOUT", "-3")

		cfg := Load()

		if cfg.RatesCacheTTL != 10*time.Minute {
			t.Errorf("Load() RatesCacheTTL = %v, want 10m (default for invalid input)", cfg.RatesCacheTTL)
		}
		if cfg.RequestTimeout != 20*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 20s (default for invalid input)", cfg.RequestTimeout)
		}
	})
}
