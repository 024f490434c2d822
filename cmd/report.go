package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/report"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Download the analysis report as XLSX",
	Long:  "Asks the backend to render the report. With --local the workbook is built here from the stored analysis.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		local, _ := cmd.Flags().GetBool("local")
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = report.AnalysisFile
		}

		st := openHistory(cmd)
		defer closeStore(st)

		var orch *session.Orchestrator
		if !local {
			var err error
			if orch, err = initOrchestrator(); err != nil {
				return err
			}
		}

		doc, err := loadDocument(ctx, st, orch, args[0])
		if err != nil {
			return err
		}

		var data []byte
		if local {
			data, err = localReport(doc, time.Now())
		} else {
			data, err = backendReport(cmd, doc)
		}
		if err != nil {
			return err
		}

		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func localReport(doc *model.Document, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := report.WriteAnalysis(&buf, doc, generated); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func backendReport(cmd *cobra.Command, doc *model.Document) ([]byte, error) {
	c, err := initClient()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "marshal document")
	}
	data, err := c.DownloadReport(cmd.Context(), raw)
	if err != nil {
		return nil, &session.Error{Kind: session.KindNetwork, Msg: "Failed to download report", Err: err}
	}
	return data, nil
}

var matrixCmd = &cobra.Command{
	Use:   "matrix <session-id>",
	Short: "Write the bid matrix workbook for an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = report.MatrixFile(id)
		}

		st := openHistory(cmd)
		defer closeStore(st)

		// The backend is only needed when the analysis is not in history.
		var orch *session.Orchestrator
		if !hasAnalysis(cmd, st, id) {
			var err error
			if orch, err = initOrchestrator(); err != nil {
				return err
			}
		}

		doc, err := loadDocument(ctx, st, orch, id)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := report.WriteMatrix(&buf, report.BuildMatrix(doc)); err != nil {
			return err
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func hasAnalysis(cmd *cobra.Command, st store.Store, id string) bool {
	if st == nil {
		return false
	}
	_, err := st.GetAnalysis(cmd.Context(), id)
	return err == nil
}

func init() {
	reportCmd.Flags().Bool("local", false, "build the workbook locally from history")
	reportCmd.Flags().StringP("output", "o", "", "output path (default "+report.AnalysisFile+")")
	reportCmd.Flags().Bool("no-history", false, "do not read the history store")
	matrixCmd.Flags().StringP("output", "o", "", "output path (default bid_matrix_<session-id>.xlsx)")
	matrixCmd.Flags().Bool("no-history", false, "do not read the history store")
	rootCmd.AddCommand(reportCmd, matrixCmd)
}
