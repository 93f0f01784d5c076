package main

import (
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check subcommand. It resolves the configuration
// exactly as serve would and prints the validation result and any lint
// warnings without opening a store or a listener.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and report risky settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			engineCfg, err := cfg.engineConfig()
			if err != nil {
				return err
			}

			warnings := engineCfg.Lint()
			for _, w := range warnings {
				cmd.Printf("warning %s: %s\n", w.Code, w.Message)
			}
			cmd.Printf("configuration ok (%d warnings)\n", len(warnings))
			return nil
		},
	}

	registerConfigFlags(cmd.Flags())
	return cmd
}
