package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/funnel-cli/internal/config"
	"github.com/sells-group/funnel-cli/internal/fetcher"
	"github.com/sells-group/funnel-cli/internal/funnel"
	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/model"
)

const maxRequestBytes = 64 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(config.ModeServe); err != nil {
			return err
		}
		eng, err := newEngine(cfg.Engine)
		if err != nil {
			return eris.Wrap(err, "build engine")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(eng, cfg.Engine.Dimensions, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// analysisRequest is the body of every /v1 endpoint.
type analysisRequest struct {
	Events []map[string]any `json:"events"`
	analysisParams
}

type api struct {
	engine     *funnel.Engine
	dimensions []string
}

func newRouter(eng *funnel.Engine, dimensions []string, sc config.ServerConfig) http.Handler {
	a := &api{engine: eng, dimensions: dimensions}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(sc.RateLimit))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/funnel", a.handle(model.RunKindFunnel))
		r.Post("/analyze", a.handle(model.RunKindAnalyze))
		r.Post("/dropoff", a.handle(model.RunKindDropOff))
		r.Post("/journeys", a.handle(model.RunKindJourneys))
		r.Post("/attribution", a.handle(model.RunKindAttribution))
		r.Post("/summary", a.handle(model.RunKindSummary))
	})
	return r
}

// rateLimit rejects requests beyond perSecond with 429.
func rateLimit(perSecond float64) func(http.Handler) http.Handler {
	burst := max(int(perSecond), 1)
	lim := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *api) handle(kind model.RunKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := fetcher.DecodeJSONObject[analysisRequest](http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		batch, err := ingest.FromRecords(req.Events, a.dimensions)
		if err != nil {
			a.fail(w, kind, err)
			return
		}

		result, _, err := runAnalysis(r.Context(), a.engine, kind, batch, req.analysisParams)
		if err != nil {
			a.fail(w, kind, err)
			return
		}
		writeResponse(w, http.StatusOK, result)
	}
}

func (a *api) fail(w http.ResponseWriter, kind model.RunKind, err error) {
	if model.IsConfigError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zap.L().Error("analysis request failed", zap.String("kind", string(kind)), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeResponse(w, status, map[string]string{"error": msg})
}
