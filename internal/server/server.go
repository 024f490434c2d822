// Package server is the browser front end: upload, a polling loading page,
// the analysis view and report downloads.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/render"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
	"github.com/sells-group/rfp-cli/internal/upload"
	"github.com/sells-group/rfp-cli/pkg/rfpapi"
)

// LoadingRefreshSecs is how often the loading page polls.
const LoadingRefreshSecs = 2

// Deps are the collaborators a Server drives.
type Deps struct {
	Orchestrator *session.Orchestrator
	Client       rfpapi.Client
	// Store is optional; without it only sessions started here are viewable.
	Store store.Store
}

// Options tune a Server.
type Options struct {
	AllowedOrigins []string
	// Filter is the initial filter when a request carries none.
	Filter        present.Filter
	MaxUploadSize int64
	// CleanupAfter is how long a viewed session lives before it is released.
	CleanupAfter   time.Duration
	CleanupTimeout time.Duration
}

// Server serves the web UI.
type Server struct {
	orch   *session.Orchestrator
	client rfpapi.Client
	sched  *session.Scheduler
	store  store.Store
	tmpl   *render.Templates
	jobs   *Tracker
	opts   Options
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and wg.Add so no job starts once Shutdown waits.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var errShuttingDown = eris.New("server: shutting down")

// New creates a Server.
func New(deps Deps, opts Options) (*Server, error) {
	if deps.Orchestrator == nil || deps.Client == nil {
		return nil, eris.New("server: orchestrator and client are required")
	}
	tmpl, err := render.NewTemplates()
	if err != nil {
		return nil, eris.Wrap(err, "server: load templates")
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = upload.DefaultMaxSize
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, eris.Wrap(err, "server: default filter")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		orch:   deps.Orchestrator,
		client: deps.Client,
		store:  deps.Store,
		tmpl:   tmpl,
		jobs:   NewTracker(),
		opts:   opts,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}

	var schedOpts []session.SchedulerOption
	if opts.CleanupTimeout > 0 {
		schedOpts = append(schedOpts, session.WithCleanupTimeout(opts.CleanupTimeout))
	}
	s.sched = session.NewScheduler(s.release, opts.CleanupAfter, schedOpts...)
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)

	r.Route("/analysis/{session}", func(r chi.Router) {
		r.Get("/", s.handleAnalysis)
		r.Get("/report", s.handleReport)
		r.Get("/matrix", s.handleMatrix)
		r.Post("/cleanup", s.handleCleanup)
	})

	r.Get("/api/analysis/{session}", s.handleAPIAnalysis)
	r.Post("/api/chat", s.handleChat)
	return r
}

// Shutdown aborts running analyses, waits for them and stops cleanup timers.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.sched.Stop()
}

// startJob runs Load in the background for sess. It fails once Shutdown
// has begun.
func (s *Server) startJob(sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errShuttingDown
	}
	if !s.jobs.Start(sess, s.now()) {
		return nil
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.orch.Load(s.ctx, sess)
		if err != nil {
			zap.L().Warn("server: analysis failed",
				zap.String("session_id", sess.ID),
				zap.String("kind", session.KindOf(err).String()),
				zap.Error(err),
			)
			s.jobs.Finish(sess.ID, nil, err)
			return
		}
		s.persist(res)
		s.jobs.Finish(sess.ID, res, nil)
		zap.L().Info("server: analysis ready", zap.String("session_id", sess.ID))
	}()
	return nil
}

// release cleans up a backend session and forgets it locally.
func (s *Server) release(ctx context.Context, id string) error {
	if err := s.orch.Cleanup(ctx, id); err != nil {
		return err
	}
	s.jobs.Remove(id)
	if s.store != nil {
		if err := s.store.MarkCleanedUp(ctx, id, s.now().UTC()); err != nil && !eris.Is(err, store.ErrNotFound) {
			zap.L().Warn("server: mark cleaned up failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *Server) persist(res *session.Result) {
	if s.store == nil {
		return
	}
	a := resultToAnalysis(res, s.now().UTC())
	if err := s.store.SaveAnalysis(s.ctx, a); err != nil {
		zap.L().Warn("server: save analysis failed", zap.String("session_id", res.Session.ID), zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
