package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/render"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
	"github.com/sells-group/rfp-cli/internal/view"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored analyses",
	Long:  "Commands for listing, showing, and deleting analyses saved by analyze and view.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		source, _ := cmd.Flags().GetString("source")
		active, _ := cmd.Flags().GetBool("active")
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := st.ListAnalyses(ctx, store.ListFilter{Source: source, ActiveOnly: active, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No analyses found.")
			return nil
		}

		formatHistoryList(cmd.OutOrStdout(), list)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a stored analysis",
	Args:  cobra.ExactArgs(1),
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

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}

		res := &session.Result{
			Session:    session.Session{ID: a.ID, Source: a.Source},
			Document:   a.Document,
			Similarity: a.Similarity,
		}
		return writeResult(cmd.OutOrStdout(), res, filter, format, render.Options{Width: width, Styled: styled})
	},
}

// -- history delete --

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Remove a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteAnalysis(ctx, args[0]); err != nil {
			return eris.Wrap(err, "history delete")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

// formatHistoryList writes a tabular list of analyses to w.
func formatHistoryList(out io.Writer, list []model.Analysis) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSIMILARITY\tCREATED\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t------\t----------\t-------\t------")

	for _, a := range list {
		source := a.Source
		if source == "" {
			source = "-"
		}
		if len(source) > 30 {
			source = source[:27] + "..."
		}

		status := "active"
		if a.IsCleanedUp() {
			status = "cleaned up"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			source,
			view.FormatSimilarity(a.Similarity),
			a.CreatedAt.Format("2006-01-02 15:04"),
			status,
		)
	}
	_ = w.Flush()
}

func init() {
	historyListCmd.Flags().String("source", "", "filter by file name, or \"text\"")
	historyListCmd.Flags().Bool("active", false, "only sessions not yet cleaned up")
	historyListCmd.Flags().Int("limit", 50, "max analyses to list")

	addFilterFlags(historyShowCmd)
	addOutputFlags(historyShowCmd)

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
