// Package main is the entry point for the conseilweb binary: the site server
// and the tooling around its request policy.
package main

import (
	"context"
	"fmt"
	"os"

	"conseilweb/internal/config"
	"conseilweb/internal/policy"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "conseilweb",
		Short:         "Conseil Orientation marketing site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("policy", "", "Path to a YAML policy file (overrides POLICY_FILE)")

	rootCmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newResolveCmd(),
		newCaddyfileCmd(),
	)
	return rootCmd
}

// loadConfig reads the environment and compiles the policy it points at.
// The --policy flag takes precedence over POLICY_FILE.
func loadConfig(cmd *cobra.Command) (*config.Config, *policy.Policy, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	path, err := cmd.Flags().GetString("policy")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get policy flag: %w", err)
	}
	if path != "" {
		cfg.PolicyFile = path
	}

	if cfg.PolicyFile == "" {
		return cfg, policy.Default(), nil
	}
	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pol, nil
}
