package factory

import (
	"github.com/mikey/sender-protect/internal/adapters/api"
	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"go.uber.org/zap"
)

// APIFactory creates classification API clients
type APIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAPIFactory creates a new API factory
func NewAPIFactory(cfg *config.Config, logger *zap.Logger) *APIFactory {
	return &APIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifierAPI creates a new classification API client based on the configuration
func (f *APIFactory) CreateClassifierAPI() (core.ClassifierAPI, error) {
	return api.NewFactory(f.cfg, f.logger).CreateClient()
}

// BaseURL returns the configured API base URL
func (f *APIFactory) BaseURL() string {
	apiCfg, err := f.cfg.GetAPI()
	if err != nil {
		return config.DefaultAPIBaseURL
	}
	return apiCfg.BaseURL
}
