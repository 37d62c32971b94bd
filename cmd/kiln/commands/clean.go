package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build directories and caches from the build root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, _ := cmd.Flags().GetBool("cache")
			all, _ := cmd.Flags().GetBool("all")
			croot, _ := cmd.Flags().GetString("croot")

			opts := app.CleanOptions{Croot: croot}
			switch {
			case all:
				opts.Build = true
				opts.Cache = true
			case cache:
				opts.Cache = true
			default:
				opts.Build = true
			}

			c.dispatched = true
			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().Bool("cache", false, "Remove build records, channel indexes and downloaded sources")
	cmd.Flags().BoolP("all", "a", false, "Remove build directories and every cache")
	cmd.Flags().String("croot", "", "Build root to clean (default from kiln.yaml)")

	return cmd
}
