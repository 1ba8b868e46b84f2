package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [folder-id] [pdf-path]",
	Short: "Upload a PDF into a folder and wait until it is indexed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var res struct {
			Status        string `json:"status"`
			ChunksIndexed int    `json:"chunks_indexed"`
		}
		if err := newAPIClient().upload(args[0], args[1], &res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Upload %s: %d chunks indexed\n", res.Status, res.ChunksIndexed)
		return nil
	},
}

var deleteDocCmd = &cobra.Command{
	Use:   "delete-doc [document-id]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().doJSON(http.MethodDelete, "/documents/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd, deleteDocCmd)
}
