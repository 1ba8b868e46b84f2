package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var queryFolder string

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ans struct {
			Answer  string `json:"answer"`
			Sources []struct {
				DocumentTitle string  `json:"document_title"`
				PageNumber    int     `json:"page_number"`
				Snippet       string  `json:"snippet"`
				Score         float64 `json:"score"`
			} `json:"sources"`
		}
		body := map[string]string{"question": args[0]}
		if queryFolder != "" {
			body["folder_id"] = queryFolder
		}
		if err := newAPIClient().doJSON(http.MethodPost, "/query", body, &ans); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Answer)
		if len(ans.Sources) > 0 {
			fmt.Fprintln(out, "\nSources:")
		}
		for i, s := range ans.Sources {
			fmt.Fprintf(out, "  [%d] %s, p.%d (distance %.4f)\n", i+1, s.DocumentTitle, s.PageNumber, s.Score)
		}
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove indexed chunks whose document no longer exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var res struct {
			Removed int `json:"removed"`
		}
		if err := newAPIClient().doJSON(http.MethodPost, "/admin/reconcile", nil, &res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed chunks of %d orphaned documents\n", res.Removed)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryFolder, "folder", "f", "", "restrict the search to one folder id")
	rootCmd.AddCommand(queryCmd, reconcileCmd)
}
