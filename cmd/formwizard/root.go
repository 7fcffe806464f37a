package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/config"
)

type rootOptions struct {
	envFiles []string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "formwizard",
		Short:         "Multi-step onboarding wizards for team members and tenants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFiles...)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files to load (default .env, .env.local)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(opts), newRolesCmd(), newSchemaCmd())
	return cmd
}
