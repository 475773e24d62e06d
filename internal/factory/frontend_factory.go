package factory

import (
	"fmt"

	"github.com/mikey/sender-protect/internal/adapters/intake"
	"github.com/mikey/sender-protect/internal/adapters/web"
	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/ports"
	"github.com/mikey/sender-protect/internal/whitelist"
	"go.uber.org/zap"
)

// FrontendFactory creates front ends based on configuration
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
	api     core.ClassifierAPI
}

// NewFrontendFactory creates a new front end factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.AnalysisService,
	api core.ClassifierAPI,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		api:     api,
	}
}

// CreateFrontends creates every front end listed in server.frontends. The
// intake is added when intake.enabled is set even if it is not listed.
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	names := f.cfg.GetServer().Frontends
	intakeCfg := f.cfg.GetIntake()
	if intakeCfg.Enabled && !contains(names, "intake") {
		names = append(names, "intake")
	}

	frontends := make([]ports.Frontend, 0, len(names))
	for _, name := range names {
		frontend, err := f.CreateFrontend(name)
		if err != nil {
			return nil, err
		}
		frontends = append(frontends, frontend)
	}

	if len(frontends) == 0 {
		return nil, fmt.Errorf("no front ends configured")
	}
	return frontends, nil
}

// CreateFrontend creates a single front end by name
func (f *FrontendFactory) CreateFrontend(name string) (ports.Frontend, error) {
	switch name {
	case "web":
		webCfg := f.cfg.GetWeb()
		server, err := web.NewServer(
			f.service,
			f.api,
			f.logger.Named("web"),
			webCfg.ListenAddress,
			webCfg.BodyLimit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create web front end: %w", err)
		}
		return server, nil
	case "intake":
		intakeCfg := f.cfg.GetIntake()
		logger := f.logger.Named("intake")
		return intake.NewSMTPIntake(
			f.service,
			whitelist.NewChecker(intakeCfg.TrustedDomains, logger),
			logger,
			intakeCfg,
		), nil
	default:
		return nil, fmt.Errorf("unsupported front end: %s", name)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
