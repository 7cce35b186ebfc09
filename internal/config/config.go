// internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTenant is the tenant used when neither a flag nor ICA_TENANT is set.
const DefaultTenant = "sequencebio"

type Config struct {
	ICA   ICAConfig
	App   AppConfig
	Cache CacheConfig
}

type ICAConfig struct {
	URL      string
	Project  string
	Tenant   string
	Username string
	Password string
	Timeout  time.Duration
}

type AppConfig struct {
	DownloadDir string
	LogLevel    string
	Progress    bool
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	TokenTTLSeconds int
}

// TokenTTL returns the configured token cache lifetime.
func (c CacheConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once. Values come from the
// environment, optionally seeded by a .env file in the working directory.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper builds a Config from v after registering defaults and
// environment binding on it.
func FromViper(v *viper.Viper) *Config {
	v.SetDefault("ICA_URL", "https://ica.illumina.com/ica")
	v.SetDefault("ICA_PROJECT", "")
	v.SetDefault("ICA_TENANT", DefaultTenant)
	v.SetDefault("ICA_USERNAME", "")
	v.SetDefault("ICA_PASSWORD", "")
	v.SetDefault("ICA_TIMEOUT_SECONDS", 0)
	v.SetDefault("ICA_DOWNLOAD_DIR", "/tmp")
	v.SetDefault("ICA_PROGRESS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TOKEN_TTL_SECONDS", 3600)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		ICA: ICAConfig{
			URL:      strings.TrimSuffix(v.GetString("ICA_URL"), "/"),
			Project:  v.GetString("ICA_PROJECT"),
			Tenant:   v.GetString("ICA_TENANT"),
			Username: v.GetString("ICA_USERNAME"),
			Password: v.GetString("ICA_PASSWORD"),
			Timeout:  time.Duration(v.GetInt("ICA_TIMEOUT_SECONDS")) * time.Second,
		},
		App: AppConfig{
			DownloadDir: v.GetString("ICA_DOWNLOAD_DIR"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			Progress:    v.GetBool("ICA_PROGRESS"),
		},
		Cache: CacheConfig{
			Enabled:         v.GetBool("CACHE_ENABLED"),
			RedisURL:        v.GetString("REDIS_URL"),
			RedisHost:       v.GetString("REDIS_HOST"),
			RedisPort:       v.GetString("REDIS_PORT"),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("REDIS_DB"),
			TokenTTLSeconds: v.GetInt("CACHE_TOKEN_TTL_SECONDS"),
		},
	}
}
