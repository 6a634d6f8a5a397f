package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and policy, then print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, pol, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.PolicyFile
			if source == "" {
				source = "built-in"
			}
			assets := pol.Assets()
			fmt.Fprintf(out, "policy: %s\n", source)
			fmt.Fprintf(out, "site url: %s\n", cfg.SiteURL)
			fmt.Fprintf(out, "redirects: %d\n", len(pol.RedirectRules()))
			for _, r := range pol.RedirectRules() {
				fmt.Fprintf(out, "  %s -> %s (permanent=%t)\n", r.Source, r.Destination, r.Permanent)
			}
			fmt.Fprintf(out, "header rules: %d\n", len(pol.HeaderRules()))
			for _, h := range pol.HeaderRules() {
				names := make([]string, 0, len(h.Headers))
				for _, hdr := range h.Headers {
					names = append(names, hdr.Name)
				}
				fmt.Fprintf(out, "  %s: %s\n", h.Source, strings.Join(names, ", "))
			}
			fmt.Fprintf(out, "image hosts: %s\n", strings.Join(assets.AllowedHosts, ", "))
			fmt.Fprintf(out, "image formats: %s\n", strings.Join(assets.Formats, ", "))
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
