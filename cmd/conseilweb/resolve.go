package main

import (
	"fmt"

	"conseilweb/internal/policy"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Print the redirect decision for each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pol, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				path := policy.NormalizePath(arg)
				rd, ok := pol.Resolve(path)
				if !ok {
					fmt.Fprintf(out, "%s\tno redirect\n", path)
					continue
				}
				fmt.Fprintf(out, "%s\t%d\t%s\n", path, rd.StatusCode(), rd.Destination)
			}
			return nil
		},
	}
}
