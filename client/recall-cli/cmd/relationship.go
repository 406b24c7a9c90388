package cmd

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type messageResponse struct {
	Message string `json:"message"`
}

var relationshipCmd = &cobra.Command{
	Use:     "relationship",
	Aliases: []string{"rel"},
	Short:   "Manage relationship categories",
}

var relAddCmd = &cobra.Command{
	Use:   "add [relationship] [category]",
	Short: "Map a relationship word to a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out messageResponse
		body := map[string]string{"relationship": args[0], "category": args[1]}
		if err := newAPIClient().call(cmd.Context(), "POST", "/relationship/add", body, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	},
}

var relGetCmd = &cobra.Command{
	Use:   "get [relationship]",
	Short: "Show the category of a relationship word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Relationship string `json:"relationship"`
			Category     string `json:"category"`
		}
		path := "/relationship/get?" + url.Values{"relationship": {args[0]}}.Encode()
		if err := newAPIClient().call(cmd.Context(), "GET", path, nil, &out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Relationship, out.Category)
		return nil
	},
}

var relUpdateCmd = &cobra.Command{
	Use:   "update [relationship] [new-category]",
	Short: "Change the category of a relationship word",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out messageResponse
		body := map[string]string{"relationship": args[0], "new_category": args[1]}
		if err := newAPIClient().call(cmd.Context(), "PUT", "/relationship/update", body, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	},
}

var relDeleteCmd = &cobra.Command{
	Use:   "delete [relationship]",
	Short: "Remove a relationship word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out messageResponse
		if err := newAPIClient().call(cmd.Context(), "DELETE", "/relationship/delete", map[string]string{"relationship": args[0]}, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	},
}

var relListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every relationship mapping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Relationships []struct {
				Relationship string `json:"relationship"`
				Category     string `json:"category"`
			} `json:"relationships"`
		}
		if err := newAPIClient().call(cmd.Context(), "GET", "/relationship/list", nil, &out); err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RELATIONSHIP\tCATEGORY")
		for _, r := range out.Relationships {
			fmt.Fprintf(w, "%s\t%s\n", r.Relationship, r.Category)
		}
		return w.Flush()
	},
}

func init() {
	relationshipCmd.AddCommand(relAddCmd, relGetCmd, relUpdateCmd, relDeleteCmd, relListCmd)
	rootCmd.AddCommand(relationshipCmd)
}
