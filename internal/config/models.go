package config

import (
	"fmt"
	"strings"
	"time"
)

// APIConfig represents the configuration for the classification API
type APIConfig struct {
	BaseURL          string
	Timeout          time.Duration
	UserAgent        string
	MaxResponseBytes int64
}

// ServerConfig represents which front ends the server runs
type ServerConfig struct {
	Frontends []string
}

// WebConfig represents the configuration for the web front end
type WebConfig struct {
	ListenAddress string
	BodyLimit     int
}

// IntakeConfig represents the configuration for the SMTP intake
type IntakeConfig struct {
	Enabled         bool
	ListenAddress   string
	Domain          string
	UseEnhanced     bool
	BlockSpam       bool
	MaxMessageBytes int64
	TrustedDomains  []string
}

// GetAPI returns the classification API configuration
func (c *Config) GetAPI() (APIConfig, error) {
	timeout, err := c.GetDuration("api.timeout")
	if err != nil {
		return APIConfig{}, fmt.Errorf("invalid api timeout: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.GetString("api.base_url")), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	return APIConfig{
		BaseURL:          baseURL,
		Timeout:          timeout,
		UserAgent:        c.GetString("api.user_agent"),
		MaxResponseBytes: c.GetInt64("api.max_response_bytes"),
	}, nil
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Frontends: c.GetStringSlice("server.frontends"),
	}
}

// GetWeb returns the web front end configuration
func (c *Config) GetWeb() WebConfig {
	return WebConfig{
		ListenAddress: c.GetString("web.listen_address"),
		BodyLimit:     c.GetInt("web.body_limit"),
	}
}

// GetIntake returns the SMTP intake configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		Enabled:         c.GetBool("intake.enabled"),
		ListenAddress:   c.GetString("intake.listen_address"),
		Domain:          c.GetString("intake.domain"),
		UseEnhanced:     c.GetBool("intake.use_enhanced"),
		BlockSpam:       c.GetBool("intake.block_spam"),
		MaxMessageBytes: c.GetInt64("intake.max_message_bytes"),
		TrustedDomains:  c.GetStringSlice("intake.trusted_domains"),
	}
}
