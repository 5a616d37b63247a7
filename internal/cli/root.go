// Package cli implements the gareport command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/your-username/ga-report-adapter/backend/internal/analytics"
	"github.com/your-username/ga-report-adapter/backend/internal/config"
	"github.com/your-username/ga-report-adapter/backend/internal/report"
)

var (
	version = "dev"
	commit  = "none"
)

// ClientFactory creates the Data API client once flags are resolved
type ClientFactory func(ctx context.Context, cfg config.AnalyticsConfig) (report.Client, error)

func defaultClientFactory(ctx context.Context, cfg config.AnalyticsConfig) (report.Client, error) {
	client, err := analytics.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type app struct {
	cfg       *config.Config
	newClient ClientFactory
	stdout    io.Writer
	stderr    io.Writer
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found")
	}

	rootCmd := newRootCmd(defaultClientFactory, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(factory ClientFactory, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		newClient: factory,
		stdout:    stdout,
		stderr:    stderr,
	}

	var (
		property    string
		credentials string
		endpoint    string
		logLevel    string
	)

	rootCmd := &cobra.Command{
		Use:           "gareport",
		Short:         "Run Google Analytics 4 reports",
		Long:          "Build and run GA4 Data API reports and print them as a header row plus data rows.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogger(logLevel, a.stderr)

			a.cfg = config.Load()
			if cmd.Flags().Changed("property") || a.cfg.Analytics.DefaultProperty == "" {
				a.cfg.Analytics.DefaultProperty = property
			}
			if cmd.Flags().Changed("credentials") {
				a.cfg.Analytics.CredentialsFile = credentials
			}
			if cmd.Flags().Changed("endpoint") {
				a.cfg.Analytics.Endpoint = endpoint
			}
			return nil
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&property, "property", "p", "", "GA4 property ID (defaults to GA_DEFAULT_PROPERTY)")
	rootCmd.PersistentFlags().StringVar(&credentials, "credentials", "", "Service account JSON file (defaults to GA_CREDENTIALS_FILE)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Override the Data API endpoint")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(a),
		newRequestCmd(a),
		newFieldsCmd(a, "dimensions", "List the dimensions usable for a property", report.UsableDimensions),
		newFieldsCmd(a, "metrics", "List the metrics usable for a property", report.UsableMetrics),
		newVersionCmd(a),
	)

	return rootCmd
}

func setupLogger(level string, w io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

func (a *app) property() (string, error) {
	if a.cfg.Analytics.DefaultProperty == "" {
		return "", fmt.Errorf("property is required: use --property or GA_DEFAULT_PROPERTY")
	}
	return a.cfg.Analytics.DefaultProperty, nil
}

func (a *app) client(ctx context.Context) (report.Client, error) {
	client, err := a.newClient(ctx, a.cfg.Analytics)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics client: %w", err)
	}
	return client, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "gareport version %s (commit: %s)\n", version, commit)
			return err
		},
	}
}
