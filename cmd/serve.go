package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve assessment reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		mapping, err := loadMapping()
		if err != nil {
			return err
		}

		builder := report.NewBuilder(st, mapping, cfg.Report, cfg.Scoring)
		router := buildRouter(builder, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
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

// buildRouter assembles the HTTP API. Invalid reports are served with
// 200 and the validity block; only a failed build is an HTTP error.
func buildRouter(builder *report.Builder, srvCfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srvCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(srvCfg.RatePerSecond), srvCfg.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/projects/{projectID}/report", func(w http.ResponseWriter, req *http.Request) {
		projectID := chi.URLParam(req, "projectID")

		rep, err := builder.Build(req.Context(), projectID)
		if err != nil {
			if errors.Is(err, report.ErrProjectNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
				return
			}
			zap.L().Error("report build failed",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": eris.ToString(err, false)})
			return
		}

		writeJSON(w, http.StatusOK, rep)
	})

	return r
}

// rateLimit applies a process-wide token bucket to all requests.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}
