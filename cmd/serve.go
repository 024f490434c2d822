package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/server"
	"github.com/sells-group/rfp-cli/internal/session"
)

var servePort int

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		client, err := initClient()
		if err != nil {
			return err
		}
		orch := session.New(client, session.WithMaxUploadSize(cfg.Upload.MaxSize))

		st := openHistory(cmd)
		defer closeStore(st)

		app, err := server.New(server.Deps{
			Orchestrator: orch,
			Client:       client,
			Store:        st,
		}, server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Filter:         cfg.Display.Filter(),
			MaxUploadSize:  cfg.Upload.MaxSize,
			CleanupAfter:   cfg.Session.CleanupAfter,
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		return runHTTP(ctx, stop, srv, srv.ListenAndServe, app.Shutdown)
	},
}

// runHTTP runs serve until ctx is done, then shuts srv down and waits for
// in-flight requests to drain before calling after. stop cancels ctx when
// serve fails on its own.
func runHTTP(ctx context.Context, stop context.CancelFunc, srv *http.Server, serve func() error, after func()) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		zap.L().Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	err := serve()
	if !errors.Is(err, http.ErrServerClosed) {
		stop()
	}
	<-drained
	after()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("no-history", false, "do not use the history store")
	rootCmd.AddCommand(serveCmd)
}
