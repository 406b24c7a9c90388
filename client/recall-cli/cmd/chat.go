package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the memory assistant",
	Example: `  recall-cli chat --user alice "@store my wife's birthday is June 3"
  recall-cli chat --user alice "when is my wife's birthday"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient()
		var out struct {
			Response string   `json:"response"`
			Score    *float64 `json:"score"`
		}
		body := map[string]string{"user": user, "message": strings.Join(args, " ")}
		if err := c.call(cmd.Context(), "POST", "/chat", body, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Response)
		if out.Score != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "(similarity %.2f)\n", *out.Score)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent chat turns, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient()
		q := url.Values{}
		if user != "" {
			q.Set("user", user)
		}
		if historyLimit > 0 {
			q.Set("limit", strconv.Itoa(historyLimit))
		}
		var out struct {
			Turns []struct {
				Message  string    `json:"message"`
				Response string    `json:"response"`
				At       time.Time `json:"at"`
			} `json:"turns"`
		}
		if err := c.call(cmd.Context(), "GET", "/chat/history?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		if len(out.Turns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No conversation history.")
			return nil
		}
		for _, t := range out.Turns {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n  -> %s\n", t.At.Local().Format("2006-01-02 15:04:05"), t.Message, t.Response)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every stored fact to object storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient()
		var out struct {
			Object string `json:"object"`
			Count  int    `json:"count"`
		}
		if err := c.call(cmd.Context(), "POST", "/memory/export", map[string]string{"user": user}, &out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d facts to %s\n", out.Count, out.Object)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of turns (server default 20)")
	rootCmd.AddCommand(chatCmd, historyCmd, exportCmd)
}
