package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/blitz/internal/app"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the verification pipeline until it passes",
		Long: "Run the verification pipeline until it exits successfully. Only the first " +
			"attempt rebuilds the pipeline inputs; every retry re-verifies the cached build.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := app.VerifyOptions{}
			opts.WithBuild, _ = cmd.Flags().GetBool("with-build")
			if cmd.Flags().Changed("max-attempts") {
				n, _ := cmd.Flags().GetInt("max-attempts")
				opts.MaxAttempts = &n
			}
			if cmd.Flags().Changed("attempt-timeout") {
				d, _ := cmd.Flags().GetDuration("attempt-timeout")
				opts.AttemptTimeout = &d
			}

			result, err := c.app.Verify(cmd.Context(), configPath(cmd), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "verified after %d attempt(s) (run %s)\n",
				result.Iterations(), result.RunID)
			return nil
		},
	}
	cmd.Flags().BoolP("with-build", "b", false, "Build the artifact before the first attempt")
	cmd.Flags().IntP("max-attempts", "n", 0, "Stop after this many attempts (0 retries until success)")
	cmd.Flags().DurationP("attempt-timeout", "t", 0, "Cancel and retry an attempt running longer than this")
	return cmd
}
