package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/aidmatch/internal/cache"
	"github.com/ppiankov/aidmatch/internal/metrics"
	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/pipeline"
	"github.com/ppiankov/aidmatch/internal/snapshot"
)

// Version is the released version, overridden at build time
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// Keys readable from AIDMATCH_* environment variables
var envKeys = []string{
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"llm.http_proxy",
	"llm.https_proxy",
	"server.host",
	"server.port",
	"server.providers_file",
	"server.registry_file",
	"logging.level",
	"logging.format",
	"cache.enabled",
	"cache.dir",
	"concurrency.workers",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aidmatch",
	Short: "aidmatch - verification and provider matching for donation platforms",
	Long: `aidmatch verifies beneficiary, provider and crisis submissions and ranks
aid providers for a need.

Every verdict carries its confidence, fraud alerts and the signals that
produced it. Rejections on critical alerts are final; anything between the
rejection and verification thresholds is routed to manual review.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aidmatch %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.aidmatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".aidmatch"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match AIDMATCH_*
	viper.SetEnvPrefix("AIDMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file, environment and flags over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for JSON output.
func newLogger(cfg model.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// app bundles what every command needs
type app struct {
	config   *model.Config
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
	loader   *snapshot.Loader
}

// newRuntime loads config and wires the pipeline. m may be nil.
func newApp(m *metrics.Metrics) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging)

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache)
	}

	return &app{
		config:   cfg,
		logger:   logger,
		pipeline: pipeline.NewPipeline(cfg, logger, m),
		loader:   snapshot.NewLoader(c, cfg.Cache.MemoryTTL, logger),
	}, nil
}

// loadSnapshot installs the provider list and registry named by the flags,
// falling back to the configured files
func (a *app) loadSnapshot(ctx context.Context, providersFile, registryFile string) error {
	paths := snapshot.Paths{Providers: providersFile, Registry: registryFile}
	if paths.Providers == "" {
		paths.Providers = a.config.Server.ProvidersFile
	}
	if paths.Registry == "" {
		paths.Registry = a.config.Server.RegistryFile
	}
	if paths.Providers == "" && paths.Registry == "" {
		return nil
	}

	snap, err := a.loader.LoadAll(ctx, paths)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	a.pipeline.SetSnapshot(snap)
	return nil
}
