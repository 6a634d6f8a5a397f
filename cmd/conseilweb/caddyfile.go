package main

import (
	"fmt"
	"net/url"

	"conseilweb/internal/caddy"

	"github.com/spf13/cobra"
)

func newCaddyfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caddyfile",
		Short: "Render the policy as a Caddyfile",
		Long: `Render the redirect and header tables as Caddy directives, for deployments
where Caddy fronts the app. Without --out the Caddyfile is printed.

Example:
  conseilweb caddyfile --upstream localhost:3000 --out /etc/caddy/Caddyfile --validate`,
		Args: cobra.NoArgs,
		RunE: runCaddyfile,
	}

	cmd.Flags().String("domain", "", "Site address (default: host of NEXT_PUBLIC_SITE_URL)")
	cmd.Flags().String("upstream", "localhost:3000", "Address Caddy proxies to")
	cmd.Flags().String("email", "", "ACME account email")
	cmd.Flags().StringP("out", "o", "", "Write the Caddyfile to this path")
	cmd.Flags().Bool("validate", false, "Run caddy validate before replacing --out")
	return cmd
}

func runCaddyfile(cmd *cobra.Command, _ []string) error {
	cfg, pol, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	domain, _ := flags.GetString("domain")
	upstream, _ := flags.GetString("upstream")
	email, _ := flags.GetString("email")
	out, _ := flags.GetString("out")
	validate, _ := flags.GetBool("validate")

	if domain == "" {
		u, err := url.Parse(cfg.SiteURL)
		if err != nil {
			return fmt.Errorf("failed to derive domain from site url: %w", err)
		}
		domain = u.Host
	}

	content, err := caddy.Render(pol, caddy.Options{
		Domain:    domain,
		Upstream:  upstream,
		AcmeEmail: email,
	})
	if err != nil {
		return fmt.Errorf("failed to render Caddyfile: %w", err)
	}

	if out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := caddy.NewManager(out, validate).Write(content); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}
