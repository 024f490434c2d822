package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/store"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <session-id>",
	Short: "Release a backend session now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		orch, err := initOrchestrator()
		if err != nil {
			return err
		}
		if err := orch.Cleanup(ctx, id); err != nil {
			return err
		}

		st := openHistory(cmd)
		defer closeStore(st)
		if st != nil {
			if err := st.MarkCleanedUp(ctx, id, time.Now().UTC()); err != nil && !eris.Is(err, store.ErrNotFound) {
				zap.L().Warn("history: mark cleaned up failed", zap.String("session_id", id), zap.Error(err))
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "session %s cleaned up\n", id)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().Bool("no-history", false, "do not update the history store")
	rootCmd.AddCommand(cleanupCmd)
}
