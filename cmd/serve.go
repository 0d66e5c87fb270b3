package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/provider"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/internal/scorer"
	"github.com/sells-group/venue-cli/internal/search"
	"github.com/sells-group/venue-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the venue search HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter registers the API routes on a chi router.
func buildRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		breakers := make(map[string]string, len(env.Guards))
		for _, g := range env.Guards {
			breakers[g.Name()] = g.BreakerState()
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "breakers": breakers})
	})
	if env.Metrics != nil {
		r.Handle("/metrics", env.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", handleSearch(env))
		r.Get("/compatibility", handleCompatibility(env))
		r.Post("/cache/invalidate", handleInvalidate(env))
		r.Get("/cache/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, env.Cache.Stats())
		})
	})
	return r
}

func handleSearch(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in searchInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := runSearch(r.Context(), env, in)
		if err != nil {
			writeError(w, searchStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// searchStatus maps a search error to an HTTP status.
func searchStatus(err error) int {
	var verr *resilience.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, provider.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrAllProvidersUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, search.ErrCancelled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleCompatibility(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idA, idB := r.URL.Query().Get("a"), r.URL.Query().Get("b")
		if idA == "" || idB == "" {
			writeError(w, http.StatusBadRequest, "a and b are required")
			return
		}

		ctx := r.Context()
		a, err := env.Store.GetProfile(ctx, idA)
		if err != nil {
			writeError(w, profileStatus(err), err.Error())
			return
		}
		b, err := env.Store.GetProfile(ctx, idB)
		if err != nil {
			writeError(w, profileStatus(err), err.Error())
			return
		}

		score, err := env.Scorer.Score(ctx, *a, *b)
		if errors.Is(err, scorer.ErrUnscoreable) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, score)
	}
}

func profileStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// invalidateRequest selects cache entries by key prefix or by a
// lat/lng bounding box.
type invalidateRequest struct {
	Prefix string     `json:"prefix"`
	Bounds *boundsBox `json:"bounds"`
}

type boundsBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

func handleInvalidate(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invalidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var removed int
		switch {
		case req.Bounds != nil:
			b := req.Bounds
			if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
				writeError(w, http.StatusBadRequest, "bounds min must not exceed max")
				return
			}
			removed = env.Cache.InvalidateBounds(geom.NewBounds(geom.XY).Set(b.MinLng, b.MinLat, b.MaxLng, b.MaxLat))
		case req.Prefix != "":
			removed = env.Cache.Invalidate(req.Prefix)
		default:
			writeError(w, http.StatusBadRequest, "prefix or bounds is required")
			return
		}

		zap.L().Info("cache invalidated", zap.String("prefix", req.Prefix), zap.Int("removed", removed))
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
