package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is used when no API URL is configured
const DefaultAPIBaseURL = "http://localhost:5000"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("/etc/sender-protect/")
	v.AddConfigPath("$HOME/.sender-protect")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// LoadDotEnv loads a .env file from the working directory when one exists.
// Variables already set in the environment are not overridden.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// NewFromFile creates a configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and environment bindings
func NewEmptyViper() *viper.Viper {
	return newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("SENDER_PROTECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.base_url", "SENDER_PROTECT_API_BASE_URL", "SENDER_PROTECT_API_URL", "API_URL")

	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Classification API defaults
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("api.user_agent", "sender-protect/1.0")
	v.SetDefault("api.max_response_bytes", 1<<20)

	// Server defaults
	v.SetDefault("server.frontends", []string{"web"})

	// Web defaults
	v.SetDefault("web.listen_address", "127.0.0.1:3000")
	v.SetDefault("web.body_limit", 10*1024*1024)

	// Intake defaults
	v.SetDefault("intake.enabled", false)
	v.SetDefault("intake.listen_address", "127.0.0.1:10026")
	v.SetDefault("intake.domain", "localhost")
	v.SetDefault("intake.use_enhanced", true)
	v.SetDefault("intake.block_spam", false)
	v.SetDefault("intake.max_message_bytes", 10*1024*1024)
	v.SetDefault("intake.trusted_domains", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
