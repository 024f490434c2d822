package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-cli/internal/view"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Compare the indexed RFP against existing bids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		orch, err := initOrchestrator()
		if err != nil {
			return err
		}
		score, err := orch.Similarity(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Similarity with existing bids: %s\n", view.FormatSimilarity(score))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(similarityCmd)
}
