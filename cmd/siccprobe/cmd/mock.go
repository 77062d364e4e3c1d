package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/siccprobe/internal/config"
	"github.com/jmylchreest/siccprobe/internal/mockapi"
	"github.com/jmylchreest/siccprobe/internal/observability"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a local stand-in for the SICC API",
	Long: `Serve an in-memory implementation of the SICC endpoints the suite
exercises: health, register, login, logout, the current user, the paginated
collections, the pharmaceutical forms catalogue and the stats dashboard.

Tokens are returned in the response body and as an access_token cookie.
With --cookie-only the body carries no token, mirroring deployments that
only set the HttpOnly cookie.`,
	Args: cobra.NoArgs,
	RunE: runMock,
}

func init() {
	mockCmd.Flags().String("host", "", "host to listen on (default from mock.host)")
	mockCmd.Flags().Int("port", 0, "port to listen on (default from mock.port)")
	mockCmd.Flags().Bool("cookie-only", false, "deliver tokens only through the access_token cookie")
	rootCmd.AddCommand(mockCmd)
}

func mockConfig(flags *pflag.FlagSet, cfg config.MockConfig) config.MockConfig {
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cookie-only") {
		cfg.CookieOnly, _ = flags.GetBool("cookie-only")
	}
	return cfg
}

func runMock(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	mockCfg := mockConfig(cmd.Flags(), cfg.Mock)
	if mockCfg.Port < 1 || mockCfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", mockCfg.Port)
	}

	logger := observability.WithComponent(observability.LoggerFromContext(cmd.Context()), "mock")
	logger.Info("mock SICC API listening",
		slog.String("address", mockCfg.Address()),
		slog.Bool("cookie_only", mockCfg.CookieOnly),
		slog.Int("seed_items", mockCfg.SeedItems),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Mock SICC API listening on http://%s\n", mockCfg.Address())

	return mockapi.NewServer(mockCfg, logger).ListenAndServe(cmd.Context())
}
