package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <question...>",
	Short: "Ask a question about the indexed RFP documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := initOrchestrator()
		if err != nil {
			return err
		}
		answer, err := orch.Chat(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
