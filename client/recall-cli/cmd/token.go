package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [user]",
	Short: "Request a bearer token for user (requires auth.allowTokenIssue)",
	Long: `Request a bearer token for user. Export it as RECALL_TOKEN to authenticate
later calls. The server only mounts this route when allowTokenIssue is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Token     string `json:"token"`
			ExpiresIn int    `json:"expires_in"`
		}
		if err := newAPIClient().call(cmd.Context(), "POST", "/auth/token", map[string]string{"user": args[0]}, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires in %ds\n", out.ExpiresIn)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
