package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rfp-cli",
	Short: "RFP analysis from the terminal and the browser",
	Long:  "Uploads RFP documents to the analysis backend, presents the extracted fields with confidence and AI-interpretation markers, and exports reports and bid matrices.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
