package api

import (
	"net/http"

	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of Client
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Client instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new Client from the api configuration section
func (f *Factory) CreateClient() (core.ClassifierAPI, error) {
	apiCfg, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}

	f.logger.Info("Using classification API", zap.String("base_url", apiCfg.BaseURL))

	return NewClient(
		&http.Client{Timeout: apiCfg.Timeout},
		apiCfg.BaseURL,
		apiCfg.UserAgent,
		apiCfg.MaxResponseBytes,
		f.logger,
	), nil
}
