package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/blitz/internal/build"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application and release version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "blitz version %s\n", build.String())

			// The release record is optional: version works outside a configured checkout.
			release, err := c.app.Release(configPath(cmd))
			if err != nil {
				return
			}
			_, _ = fmt.Fprintf(out, "release %s\n", release.Display)
			if release.Branch != 0 {
				line := fmt.Sprintf("branch %c", release.Branch)
				if release.BranchURL != "" {
					line += " " + release.BranchURL
				}
				_, _ = fmt.Fprintln(out, line)
			}
		},
	}
}
