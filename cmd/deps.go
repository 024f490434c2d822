package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/db"
	"github.com/sells-group/rfp-cli/internal/extract"
	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
	"github.com/sells-group/rfp-cli/internal/upload"
	"github.com/sells-group/rfp-cli/pkg/rfpapi"
)

func initClient() (rfpapi.Client, error) {
	if err := cfg.Validate("client"); err != nil {
		return nil, err
	}
	return rfpapi.NewClient(cfg.API.BaseURL,
		rfpapi.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		rfpapi.WithRetry(cfg.Retry.Resilience()),
		rfpapi.WithRateLimit(cfg.API.RatePerSec),
	), nil
}

func initOrchestrator() (*session.Orchestrator, error) {
	c, err := initClient()
	if err != nil {
		return nil, err
	}
	return session.New(c, session.WithMaxUploadSize(cfg.Upload.MaxSize)), nil
}

// initStore opens and migrates the history store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// saveHistory records res; failures are logged since history is a cache.
func saveHistory(ctx context.Context, st store.Store, res *session.Result) {
	if st == nil || res == nil {
		return
	}
	a := &model.Analysis{
		ID:         res.Session.ID,
		Source:     res.Session.Source,
		Document:   res.Document,
		Similarity: res.Similarity,
	}
	if err := st.SaveAnalysis(ctx, a); err != nil {
		zap.L().Warn("history: save failed", zap.String("session_id", a.ID), zap.Error(err))
	}
}

// markCleanedUp records a finished backend cleanup in history. Analyses
// that were never saved are skipped quietly.
func markCleanedUp(ctx context.Context, st store.Store, id string, at time.Time) {
	if st == nil {
		return
	}
	if err := st.MarkCleanedUp(ctx, id, at.UTC()); err != nil && !eris.Is(err, store.ErrNotFound) {
		zap.L().Warn("history: mark cleaned up failed", zap.String("session_id", id), zap.Error(err))
	}
}

// openHistory opens the store unless --no-history is set. A store that
// cannot be opened is logged and skipped.
func openHistory(cmd *cobra.Command) store.Store {
	if off, _ := cmd.Flags().GetBool("no-history"); off {
		return nil
	}
	st, err := initStore(cmd.Context())
	if err != nil {
		zap.L().Warn("history: store unavailable", zap.Error(err))
		return nil
	}
	return st
}

func closeStore(st store.Store) {
	if st != nil {
		_ = st.Close()
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "minimum confidence to show (0, 0.3, 0.5 or 0.7; default from config)")
	cmd.Flags().Bool("hide-interpreted", false, "hide AI-interpreted fields")
}

// filterFromFlags starts from the configured filter and applies any flags
// that were set.
func filterFromFlags(cmd *cobra.Command) (present.Filter, error) {
	f := cfg.Display.Filter()
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		f.ConfidenceThreshold = v
	}
	if hide, _ := cmd.Flags().GetBool("hide-interpreted"); hide {
		f.ShowInterpreted = false
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "upload this PDF first")
	cmd.Flags().String("text", "", "analyze this RFP text")
	cmd.Flags().String("text-file", "", "analyze the RFP text in this file")
	cmd.Flags().Bool("extract-text", false, "extract --file text locally and analyze it as text")
	cmd.Flags().Bool("no-history", false, "do not read or write the history store")
}

// resolveSession returns the session named by args[0], or starts one from
// --file, --text or --text-file.
func resolveSession(cmd *cobra.Command, orch *session.Orchestrator, args []string) (session.Session, error) {
	file, _ := cmd.Flags().GetString("file")
	text, _ := cmd.Flags().GetString("text")
	textFile, _ := cmd.Flags().GetString("text-file")

	sources := 0
	for _, set := range []bool{len(args) > 0, file != "", text != "", textFile != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return session.Session{}, eris.New("give exactly one of <session-id>, --file, --text or --text-file")
	}

	switch {
	case file != "":
		if extractText, _ := cmd.Flags().GetBool("extract-text"); extractText {
			return uploadExtracted(cmd.Context(), orch, file)
		}
		return orch.UploadFile(cmd.Context(), file)
	case text != "":
		return orch.UploadText(text)
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return session.Session{}, eris.Wrapf(err, "read %s", textFile)
		}
		return orch.UploadText(string(data))
	default:
		if err := session.ValidateID(args[0]); err != nil {
			return session.Session{}, err
		}
		return session.Session{ID: args[0]}, nil
	}
}

// uploadExtracted validates the PDF at path, extracts its text with the
// configured provider and starts a text session from it.
func uploadExtracted(ctx context.Context, orch *session.Orchestrator, path string) (session.Session, error) {
	f, err := upload.Inspect(path, cfg.Upload.MaxSize)
	if err != nil {
		return session.Session{}, &session.Error{Kind: session.KindInput, Msg: "Failed to upload file", Err: err}
	}
	ex, err := extract.New(cfg.Extract)
	if err != nil {
		return session.Session{}, err
	}
	text, err := ex.ExtractText(ctx, f)
	if err != nil {
		return session.Session{}, eris.Wrapf(err, "extract text from %s", f.Name)
	}
	zap.L().Info("extracted RFP text",
		zap.String("file", f.Name),
		zap.String("provider", cfg.Extract.Provider),
		zap.Int("chars", len(text)),
	)
	return orch.UploadText(text)
}

// loadDocument returns the document for id from history, falling back to
// the backend.
func loadDocument(ctx context.Context, st store.Store, orch *session.Orchestrator, id string) (*model.Document, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, err
	}
	if st != nil {
		a, err := st.GetAnalysis(ctx, id)
		if err == nil {
			return a.Document, nil
		}
		if !eris.Is(err, store.ErrNotFound) {
			zap.L().Warn("history: lookup failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	if orch == nil {
		return nil, eris.Errorf("no stored analysis for session %s", id)
	}
	return orch.Analyze(ctx, session.Session{ID: id})
}
