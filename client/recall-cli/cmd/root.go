package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:5000"

var (
	serverURL string
	token     string
	user      string
)

var rootCmd = &cobra.Command{
	Use:   "recall-cli",
	Short: "A CLI client for the Recall memory assistant",
	Long:  `A command-line interface for chatting with the memory assistant and managing relationship categories.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("RECALL_SERVER", defaultServer), "memory service base URL (env RECALL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("RECALL_TOKEN"), "bearer token (env RECALL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&user, "user", os.Getenv("RECALL_USER"), "acting user (env RECALL_USER)")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newAPIClient() *apiClient {
	return newClient(serverURL, token)
}
