package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"chemkpi/internal/dashboard"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API on addr until ctx is cancelled, then drains
// in-flight requests. Access logs go to accessLog in combined format.
func Serve(ctx context.Context, addr string, engine *dashboard.Engine, accessLog io.Writer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(accessLog, NewRouter(engine)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Dashboard API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down dashboard API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
