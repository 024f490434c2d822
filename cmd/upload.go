package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload an RFP PDF and print its session ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := initOrchestrator()
		if err != nil {
			return err
		}

		s, err := orch.UploadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, s.ID)
		if s.Pages > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s (%d pages)\n", s.Source, s.Pages)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s\n", s.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
