package cmd

import (
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FolderID  string    `json:"folder_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f folder
		if err := newAPIClient().doJSON(http.MethodPost, "/folders", map[string]string{"name": args[0]}, &f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created folder %q\nFolder ID: %s\n", f.Name, f.ID)
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var folders []folder
		if err := newAPIClient().doJSON(http.MethodGet, "/folders", nil, &folders); err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, f := range folders {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, f.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename [folder-id] [new-name]",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f folder
		if err := newAPIClient().doJSON(http.MethodPut, "/folders/"+args[0], map[string]string{"name": args[1]}, &f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed folder %s to %q\n", f.ID, f.Name)
		return nil
	},
}

var folderDeleteCmd = &cobra.Command{
	Use:   "delete [folder-id]",
	Short: "Delete a folder and every document in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().doJSON(http.MethodDelete, "/folders/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s\n", args[0])
		return nil
	},
}

var folderDocsCmd = &cobra.Command{
	Use:   "docs [folder-id]",
	Short: "List the documents of a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var docs []document
		if err := newAPIClient().doJSON(http.MethodGet, "/folders/"+args[0]+"/documents", nil, &docs); err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tCREATED")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Filename, d.Status, d.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderCreateCmd, folderListCmd, folderRenameCmd, folderDeleteCmd, folderDocsCmd)
}
