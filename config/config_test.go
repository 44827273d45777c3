package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grocerymatch/backend/internal/usecase"
)

func TestLoad(t *testing.T) {
	envVars := []string{
		"GROCERYMATCH_SERVER_PORT",
		"GROCERYMATCH_SERVER_ENVIRONMENT",
		"GROCERYMATCH_MATCHING_DISCOVERY_THRESHOLD",
		"GROCERYMATCH_MATCHING_QUANTITY_THRESHOLD",
		"GROCERYMATCH_MATCHING_MERGE_THRESHOLD",
		"GROCERYMATCH_MATCHING_WORKERS",
		"GROCERYMATCH_MATCHING_ENABLE_DEBUG_LOGGING",
		"GROCERYMATCH_CACHE_TYPE",
		"GROCERYMATCH_CACHE_REDIS_URL",
		"GROCERYMATCH_CACHE_TTL",
		"GROCERYMATCH_RATELIMIT_PER_IP",
		"GROCERYMATCH_LOG_LEVEL",
	}

	// Clean up environment before tests
	cleanupEnv := func() {
		for _, name := range envVars {
			os.Unsetenv(name)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Matching.DiscoveryThreshold != 0.65 {
			t.Errorf("Matching.DiscoveryThreshold = %v, want 0.65", cfg.Matching.DiscoveryThreshold)
		}
		if cfg.Matching.QuantityThreshold != 0.62 {
			t.Errorf("Matching.QuantityThreshold = %v, want 0.62", cfg.Matching.QuantityThreshold)
		}
		if cfg.Matching.MergeThreshold != 0.78 {
			t.Errorf("Matching.MergeThreshold = %v, want 0.78", cfg.Matching.MergeThreshold)
		}
		if cfg.Matching.Workers != 0 {
			t.Errorf("Matching.Workers = %d, want 0", cfg.Matching.Workers)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 1000 {
			t.Errorf("Cache.MaxEntries = %d, want 1000", cfg.Cache.MaxEntries)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERYMATCH_SERVER_PORT", "9090")
		os.Setenv("GROCERYMATCH_SERVER_ENVIRONMENT", "production")
		os.Setenv("GROCERYMATCH_MATCHING_MERGE_THRESHOLD", "0.85")
		os.Setenv("GROCERYMATCH_MATCHING_WORKERS", "8")
		os.Setenv("GROCERYMATCH_MATCHING_ENABLE_DEBUG_LOGGING", "true")
		os.Setenv("GROCERYMATCH_CACHE_TYPE", "redis")
		os.Setenv("GROCERYMATCH_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("GROCERYMATCH_CACHE_TTL", "24h")
		os.Setenv("GROCERYMATCH_RATELIMIT_PER_IP", "200")
		os.Setenv("GROCERYMATCH_LOG_LEVEL", "debug")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Matching.MergeThreshold != 0.85 {
			t.Errorf("Matching.MergeThreshold = %v, want 0.85", cfg.Matching.MergeThreshold)
		}
		if cfg.Matching.Workers != 8 {
			t.Errorf("Matching.Workers = %d, want 8", cfg.Matching.Workers)
		}
		if !cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = false, want true")
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERYMATCH_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERYMATCH_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})

	t.Run("fails validation when quantity threshold exceeds discovery", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERYMATCH_MATCHING_QUANTITY_THRESHOLD", "0.9")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for quantity > discovery")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
			os.Unsetenv("TEST_VAR_3")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		for name, want := range map[string]string{"TEST_VAR_1": "value1", "TEST_VAR_2": "value2", "TEST_VAR_3": "value3"} {
			if got := os.Getenv(name); got != want {
				t.Errorf("%s = %s, want %s", name, got, want)
			}
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			DiscoveryThreshold: 0.65,
			QuantityThreshold:  0.62,
			MergeThreshold:     0.78,
		},
		Cache:     CacheConfig{Type: "memory"},
		RateLimit: RateLimitConfig{PerIP: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{name: "valid redis with URL", mutate: func(c *Config) {
			c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"}
		}},
		{name: "equal thresholds", mutate: func(c *Config) { c.Matching.QuantityThreshold = 0.65 }},
		{name: "invalid cache type", mutate: func(c *Config) { c.Cache.Type = "invalid-type" }, wantErr: true},
		{name: "redis without URL", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{name: "zero quantity threshold", mutate: func(c *Config) { c.Matching.QuantityThreshold = 0 }, wantErr: true},
		{name: "quantity above discovery", mutate: func(c *Config) { c.Matching.QuantityThreshold = 0.7 }, wantErr: true},
		{name: "discovery above one", mutate: func(c *Config) { c.Matching.DiscoveryThreshold = 1.5 }, wantErr: true},
		{name: "zero merge threshold", mutate: func(c *Config) { c.Matching.MergeThreshold = 0 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Matching.Workers = -1 }, wantErr: true},
		{name: "negative cache max entries", mutate: func(c *Config) { c.Cache.MaxEntries = -1 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit.PerIP = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDictionaries(t *testing.T) {
	t.Run("empty path returns built-in tables", func(t *testing.T) {
		dict, err := LoadDictionaries("")
		if err != nil {
			t.Fatalf("LoadDictionaries() error = %v", err)
		}
		if len(dict.Brands) != len(usecase.DefaultDictionaries().Brands) {
			t.Errorf("Brands = %d entries, want built-in table", len(dict.Brands))
		}
	})

	t.Run("reads file and keeps label case", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dictionaries.yaml")
		content := `
brands:
  - label: Nestlé
    aliases: [nestlé, nescafé]
  - label: Pingo Doce
    aliases: [pingo doce]
stop_words: [de, da, do]
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write dictionary file: %v", err)
		}

		dict, err := LoadDictionaries(path)
		if err != nil {
			t.Fatalf("LoadDictionaries() error = %v", err)
		}
		if len(dict.Brands) != 2 || dict.Brands[1].Label != "Pingo Doce" {
			t.Errorf("Brands = %+v", dict.Brands)
		}
		if len(dict.StopWords) != 3 {
			t.Errorf("StopWords = %v, want 3 entries", dict.StopWords)
		}
		// Sections not in the file fall back to the built-in tables.
		if len(dict.Categories) != len(usecase.DefaultDictionaries().Categories) {
			t.Errorf("Categories = %d entries, want built-in table", len(dict.Categories))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDictionaries(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Error("LoadDictionaries() error = nil, want error for missing file")
		}
	})

	t.Run("entry without label", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dictionaries.yaml")
		if err := os.WriteFile(path, []byte("features:\n  - aliases: [bio]\n"), 0644); err != nil {
			t.Fatalf("Failed to write dictionary file: %v", err)
		}

		_, err := LoadDictionaries(path)
		if err == nil {
			t.Error("LoadDictionaries() error = nil, want error for unlabeled entry")
		}
	})
}
