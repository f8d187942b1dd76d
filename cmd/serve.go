package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/basemap"
	"github.com/district-insights/crimemap/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered artifacts and record data over HTTP",
	Long:  "Serves the output directory (including the interactive map document), record and stats JSON endpoints, and a street-map tile proxy backed by the shared tile cache.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		tiles, err := newTileSource()
		if err != nil {
			return err
		}

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           newRouter(s, tiles, cfg.Output.Dir),
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting preview server",
			zap.String("addr", addr),
			zap.String("output_dir", cfg.Output.Dir),
		)

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down preview server")
			_ = srv.Close()
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "preview server")
		}
		return nil
	},
}

func newRouter(s store.Store, tiles *basemap.HTTPTileSource, outDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/api/records", func(w http.ResponseWriter, req *http.Request) {
		records, err := s.ListRecords(req.Context())
		if err != nil {
			serveError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(records)
	})

	r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		stats, err := s.Stats(req.Context())
		if err != nil {
			serveError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	})

	r.Get("/tiles/{z}/{x}/{y}.png", func(w http.ResponseWriter, req *http.Request) {
		z, errZ := strconv.Atoi(chi.URLParam(req, "z"))
		x, errX := strconv.Atoi(chi.URLParam(req, "x"))
		y, errY := strconv.Atoi(chi.URLParam(req, "y"))
		if errZ != nil || errX != nil || errY != nil {
			http.Error(w, "invalid tile path", http.StatusBadRequest)
			return
		}

		data, err := tiles.Raw(req.Context(), z, x, y)
		if err != nil {
			zap.L().Warn("tile fetch failed", zap.Int("z", z), zap.Int("x", x), zap.Int("y", y), zap.Error(err))
			http.Error(w, "tile unavailable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(data)
	})

	r.Handle("/*", http.FileServer(http.Dir(outDir)))

	return r
}

func serveError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
