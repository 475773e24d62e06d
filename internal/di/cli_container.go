package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sender-protect/internal/adapters/cli"
	"github.com/mikey/sender-protect/internal/config"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/factory"
	"github.com/mikey/sender-protect/internal/logging"
	"github.com/mikey/sender-protect/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile   string
	Sender      string
	Content     string
	Headers     string
	UseEnhanced bool
	ShowMetrics bool

	// API flags
	APIURL string

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// Input returns the analysis input described by the flags
func (f *CLIFlags) Input() cli.Input {
	return cli.Input{
		File:        f.InputFile,
		Sender:      f.Sender,
		Content:     f.Content,
		Headers:     f.Headers,
		UseEnhanced: f.UseEnhanced,
		ShowMetrics: f.ShowMetrics,
	}
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, os.Args[1:])
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input .eml message file (takes precedence over text fields)")
	fs.StringVar(&flags.Sender, "sender", "", "Sender email address")
	fs.StringVar(&flags.Content, "content", "", "Email subject and body content")
	fs.StringVar(&flags.Headers, "headers", "", "Raw email headers")
	fs.BoolVar(&flags.UseEnhanced, "enhanced", false, "Use the enhanced model (+domain flag)")
	fs.BoolVar(&flags.ShowMetrics, "metrics", false, "Print the model performance metrics")

	// API flags
	fs.StringVar(&flags.APIURL, "api-url", "", "Classification API base URL (overrides configuration)")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	_ = fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return configFromFlags(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register CLI runner
	if err := container.Provide(func(
		service *core.AnalysisService,
		api core.ClassifierAPI,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		apiFactory *factory.APIFactory,
		flags *CLIFlags,
	) *cli.Runner {
		return cli.NewRunner(service, api, textProcessor, logger, os.Stdout, apiFactory.BaseURL(), flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// configFromFlags loads the configuration file given on the command line,
// or searches the standard locations like the server does, and lets the API
// URL flag override it
func configFromFlags(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		if err := config.LoadDotEnv(); err != nil {
			return nil, err
		}
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	if flags.APIURL != "" {
		cfg.GetViper().Set("api.base_url", flags.APIURL)
	}

	return cfg, nil
}
