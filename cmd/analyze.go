package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/render"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/view"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [session-id]",
	Short: "Fetch and print the analysis for a session, PDF or text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatName)
		if err != nil {
			return err
		}
		width, _ := cmd.Flags().GetInt("width")
		styled, _ := cmd.Flags().GetBool("styled")

		orch, err := initOrchestrator()
		if err != nil {
			return err
		}
		s, err := resolveSession(cmd, orch, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", s.ID)

		res, err := orch.Load(ctx, s)
		if err != nil {
			return err
		}

		st := openHistory(cmd)
		defer closeStore(st)
		saveHistory(ctx, st, res)

		return writeResult(cmd.OutOrStdout(), res, filter, format, render.Options{Width: width, Styled: styled})
	},
}

// writeResult presents res under filter and renders it.
func writeResult(w io.Writer, res *session.Result, filter present.Filter, format render.Format, opts render.Options) error {
	v := view.Build(res.Document, filter, res.Similarity)
	v.SessionID = res.Session.ID
	return render.Write(w, v, format, opts)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", string(render.FormatText), "output format: text, markdown, json or yaml")
	cmd.Flags().Int("width", render.DefaultWidth, "wrap width for text and markdown")
	cmd.Flags().Bool("styled", false, "render markdown for the terminal")
}

func init() {
	addSourceFlags(analyzeCmd)
	addFilterFlags(analyzeCmd)
	addOutputFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
