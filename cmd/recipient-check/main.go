// Command recipient-check previews or validates the recipients of a saved
// draft from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sungwon/recipient-check/internal/app"
	"github.com/sungwon/recipient-check/internal/config"
	"github.com/sungwon/recipient-check/internal/logger"
)

// errInvalidFound makes the process exit with status 2.
var errInvalidFound = errors.New("invalid recipients found")

type globalFlags struct {
	configDir string
	jsonOut   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errInvalidFound):
		stop()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	loader := config.NewLoader()

	root := &cobra.Command{
		Use:           "recipient-check",
		Short:         "Preview and validate the recipients of a draft message",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "config", "config", "directory containing config.yaml")
	pf.BoolVar(&g.jsonOut, "json", false, "print results as JSON")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("api-key", "", "validation service API key")
	pf.Duration("interval", 0, "minimum spacing between validation calls")
	pf.String("report-dir", "", "export validation runs to this directory")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return loader.BindFlags(cmd.Flags(), map[string]string{
			"logging.level":      "log-level",
			"validator.api_key":  "api-key",
			"ratelimit.interval": "interval",
			"report.path":        "report-dir",
		})
	}

	root.AddCommand(
		newPreviewCmd(g, loader),
		newValidateCmd(g, loader),
		newUsageCmd(g, loader),
		newKeygenCmd(),
	)
	return root
}

// setup loads configuration and builds the application. CLI logs go to
// stderr so stdout carries only results.
func setup(ctx context.Context, cmd *cobra.Command, g *globalFlags, loader *config.Loader, opts app.Options) (*app.App, func(), error) {
	cfg, err := loader.Load(g.configDir)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("report-dir") && cfg.Report.Type == "" {
		cfg.Report.Type = "local"
	}

	out := cfg.Logging.Output
	if out == logger.OutputStdout {
		out = logger.OutputConsole
	}
	log, closeLog := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    out,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})

	a, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		closeLog.Close()
		return nil, nil, err
	}
	cleanup := func() {
		a.Close()
		closeLog.Close()
	}
	return a, cleanup, nil
}
