package cmd

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge output.pdf page.pdf...",
	Short: "Merge per-page sandwich PDFs into one document",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, pages := args[0], args[1:]
		if err := api.MergeCreateFile(pages, out, false, nil); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
