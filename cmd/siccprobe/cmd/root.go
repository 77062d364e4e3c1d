// Package cmd implements the CLI commands for siccprobe.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/siccprobe/internal/config"
	"github.com/jmylchreest/siccprobe/internal/console"
	"github.com/jmylchreest/siccprobe/internal/observability"
	"github.com/jmylchreest/siccprobe/internal/sicc"
	"github.com/jmylchreest/siccprobe/internal/suite"
	"github.com/jmylchreest/siccprobe/internal/version"
	"github.com/jmylchreest/siccprobe/pkg/httpclient"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// rootCmd runs the smoke suite when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "siccprobe",
	Short:   "HTTP smoke suite for the SICC API",
	Version: version.Short(),
	Long: `siccprobe runs an ordered set of HTTP checks against a SICC API
deployment: server health, token rejection, registration, login, the
current user and the paginated clinical collections.

Each check prints a colorized report line and a summary is printed at the
end. Use "siccprobe mock" to serve a local stand-in API.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSuite,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	// initLogging references rootCmd.PersistentFlags
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := initLogging()
		if err != nil {
			return err
		}
		cmd.SetContext(observability.ContextWithLogger(cmd.Context(), logger))
		return nil
	}

	// Flags are NOT bound to viper. They override config/env values only when
	// Changed(), keeping the order: CLI flag > env var > config > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.siccprobe.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	rootCmd.Flags().String("base-url", "", "base URL of the API under test (e.g. http://localhost:8080)")
	rootCmd.Flags().String("color", console.ColorAuto, "colorize the report (auto, always, never)")
	rootCmd.Flags().Bool("extended", false, "also exercise medications, catalogues, dashboard and logout")
	rootCmd.Flags().Bool("strict", false, "exit non-zero when any scenario fails")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".siccprobe")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the default slog logger and returns it.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format), only if explicitly provided
//  2. Environment variables (SICCPROBE_LOGGING_LEVEL, SICCPROBE_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (warn, text)
func initLogging() (*slog.Logger, error) {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	logCfg := config.LoggingConfig{
		Level:      level,
		Format:     format,
		AddSource:  viper.GetBool("logging.add_source"),
		TimeFormat: viper.GetString("logging.time_format"),
	}
	logCfg.Normalize()

	logger := observability.NewLogger(logCfg)
	observability.SetDefault(logger)
	return logger, nil
}

// loadConfig decodes the viper state and applies explicitly set flags.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return applySuiteFlags(cfg, flags)
}

func applySuiteFlags(cfg *config.Config, flags *pflag.FlagSet) (*config.Config, error) {
	if flags.Changed("base-url") {
		cfg.Target.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("color") {
		cfg.Output.Color, _ = flags.GetString("color")
	}
	if flags.Changed("extended") {
		cfg.Suite.Extended, _ = flags.GetBool("extended")
	}
	if flags.Changed("strict") {
		cfg.Suite.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	cfg.Logging.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

func runSuite(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := observability.LoggerFromContext(ctx)
	done := observability.TimedOperationWithError(ctx, observability.WithComponent(logger, "cli"), "suite_run", &err)
	defer done()

	return newRunner(cfg, cmd, logger).Run(ctx)
}

func newRunner(cfg *config.Config, cmd *cobra.Command, logger *slog.Logger) *suite.Runner {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.UserAgent = version.UserAgent()
	httpCfg.Logger = observability.WithComponent(logger, "httpclient")
	httpCfg.MaxResponseSize = cfg.Target.MaxResponseSize.Int64()

	client := sicc.New(sicc.Config{
		BaseURL:        cfg.Target.URL(),
		HealthTimeout:  cfg.Timeouts.Health,
		RequestTimeout: cfg.Timeouts.Request,
		HTTPClient:     httpclient.New(httpCfg),
		Logger:         observability.WithComponent(logger, "sicc"),
	})

	return suite.New(suite.Options{
		Client:       client,
		Printer:      console.NewPrinter(cmd.OutOrStdout(), cfg.Output.Color),
		Logger:       logger,
		Credentials:  cfg.Credentials,
		Pagination:   cfg.Pagination,
		Resources:    cfg.Resources,
		Extended:     cfg.Suite.Extended,
		Strict:       cfg.Suite.Strict,
		TokenPreview: cfg.Suite.TokenPreview,
	})
}
