package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/factory"
	"github.com/mikey/sender-protect/internal/form"
	"github.com/mikey/sender-protect/internal/logging"
	"github.com/mikey/sender-protect/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register front ends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers the API client, the form state and the analysis
// service shared by every entry point
func provideCore(container *dig.Container) error {
	if err := container.Provide(factory.NewAPIFactory); err != nil {
		return err
	}

	// Register classification API client
	if err := container.Provide(func(f *factory.APIFactory) (core.ClassifierAPI, error) {
		return f.CreateClassifierAPI()
	}); err != nil {
		return err
	}

	// Register the single form state tree
	if err := container.Provide(form.New); err != nil {
		return err
	}

	// Register analysis service
	return container.Provide(func(api core.ClassifierAPI, state *form.State, logger *zap.Logger) *core.AnalysisService {
		return core.NewAnalysisService(api, state, logger)
	})
}
