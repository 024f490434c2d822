package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
	"github.com/sells-group/rfp-cli/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [session-id]",
	Short: "Browse an analysis interactively",
	Long:  "Opens the terminal viewer. The backend session is released after session.cleanup_after unless the viewer is closed first.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		fromHistory, _ := cmd.Flags().GetBool("from-history")

		st := openHistory(cmd)
		defer closeStore(st)

		var (
			load  tui.Loader
			id    string
			sched *session.Scheduler
		)
		if fromHistory {
			if len(args) != 1 {
				return eris.New("--from-history needs a session id")
			}
			if st == nil {
				return eris.New("--from-history needs the history store")
			}
			id = args[0]
			load = historyLoader(st, id)
		} else {
			orch, err := initOrchestrator()
			if err != nil {
				return err
			}
			s, err := resolveSession(cmd, orch, args)
			if err != nil {
				return err
			}
			id = s.ID
			load = func(ctx context.Context) (*session.Result, error) {
				res, err := orch.Load(ctx, s)
				if err != nil {
					return nil, err
				}
				saveHistory(ctx, st, res)
				return res, nil
			}
			sched = session.NewScheduler(orch.Cleanup, cfg.Session.CleanupAfter,
				session.WithOnCleanup(func(id string, err error) {
					if err == nil {
						markCleanedUp(context.Background(), st, id, time.Now())
					}
				}),
			)
			// Closing the viewer cancels the pending cleanup with it.
			defer sched.Stop()
		}

		opts := []tui.Option{tui.WithFilter(filter)}
		if sched != nil {
			opts = append(opts, tui.WithOnReady(func(res *session.Result) {
				sched.Schedule(res.Session.ID)
			}))
		}

		m := tui.New(ctx, id, load, opts...)
		defer m.Close()
		return tui.Run(ctx, m)
	},
}

func historyLoader(st store.Store, id string) tui.Loader {
	return func(ctx context.Context) (*session.Result, error) {
		if err := session.ValidateID(id); err != nil {
			return nil, err
		}
		a, err := st.GetAnalysis(ctx, id)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				return nil, &session.Error{Kind: session.KindEmpty, Msg: "No analysis data available", Err: err}
			}
			zap.L().Warn("history: lookup failed", zap.String("session_id", id), zap.Error(err))
			return nil, &session.Error{Kind: session.KindNetwork, Msg: "Failed to fetch analysis", Err: err}
		}
		return &session.Result{
			Session:    session.Session{ID: a.ID, Source: a.Source},
			Document:   a.Document,
			Similarity: a.Similarity,
		}, nil
	}
}

func init() {
	addSourceFlags(viewCmd)
	addFilterFlags(viewCmd)
	viewCmd.Flags().Bool("from-history", false, "show a stored analysis without contacting the backend")
	rootCmd.AddCommand(viewCmd)
}
