package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sungwon/recipient-check/internal/app"
	"github.com/sungwon/recipient-check/internal/auth"
	"github.com/sungwon/recipient-check/internal/config"
	"github.com/sungwon/recipient-check/internal/usage"
)

func newPreviewCmd(g *globalFlags, loader *config.Loader) *cobra.Command {
	src := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List the normalized recipients without contacting the validation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			h, err := src.resolve(ctx)
			if err != nil {
				return err
			}
			a, cleanup, err := setup(ctx, cmd, g, loader, app.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := a.Orchestrator.RunPreview(ctx, h)
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), p, g.jsonOut)
		},
	}
	src.register(cmd)
	return cmd
}

func newValidateCmd(g *globalFlags, loader *config.Loader) *cobra.Command {
	src := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every recipient, one call per second, and report invalid ones",
		Long: "Validate every unique recipient against the validation service. " +
			"Exits with status 2 when at least one address is invalid.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			h, err := src.resolve(ctx)
			if err != nil {
				return err
			}
			a, cleanup, err := setup(ctx, cmd, g, loader, app.Options{RequireValidator: true})
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Orchestrator.RunValidation(ctx, h)
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), res, g.jsonOut); err != nil {
				return err
			}
			if !res.AllValid() {
				return errInvalidFound
			}
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func newUsageCmd(g *globalFlags, loader *config.Loader) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show how many validation calls were made on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			t := time.Now()
			if day != "" {
				parsed, err := time.Parse(time.DateOnly, day)
				if err != nil {
					return fmt.Errorf("invalid --day: %w", err)
				}
				t = parsed
			}

			cfg, err := loader.Load(g.configDir)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("usage ledger disabled: database.url is empty")
			}
			db, err := usage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
			if err != nil {
				return err
			}
			defer db.Close()

			service, _ := cmd.Flags().GetString("service")
			calls, err := usage.NewPGRecorder(db).Calls(ctx, service, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d\n", t.UTC().Format(time.DateOnly), service, calls)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day to report (YYYY-MM-DD, default today)")
	cmd.Flags().String("service", "abstractapi", "validation service name")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an API key and the bcrypt hash to configure as auth.api_key_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := auth.GenerateKey()
			if err != nil {
				return err
			}
			hash, err := auth.HashKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "api key:      %s\napi_key_hash: %s\n", key, hash)
			return nil
		},
	}
}
