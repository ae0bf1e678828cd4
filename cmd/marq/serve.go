package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marqlab/marq/internal/api"
	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/config"
	"github.com/marqlab/marq/internal/db"
	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/metrics"
	"github.com/marqlab/marq/internal/notify"
	"github.com/marqlab/marq/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			markStore := store.NewMarkStore(database)
			bookmarkStore := store.NewBookmarkStore(database)
			tagStore := store.NewTagStore(database)

			hub := notify.NewHub(cfg.EventBuffer, func() {
				metrics.EventsDroppedTotal.Inc()
			})

			markService := marks.NewService(markStore, bookmarkStore, tagStore, hub, logger)

			verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
			authMiddleware := auth.NewMiddleware(verifier)

			router := chi.NewRouter()
			router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})
			router.Handle("/metrics", promhttp.Handler())
			router.Mount("/api/v1", api.NewAPIRouter(api.Deps{
				AuthMiddleware: authMiddleware,
				Marks:          markService,
				Events:         hub,
			}))

			logger.Info("listening", "addr", cfg.HTTP.Addr)
			return http.ListenAndServe(cfg.HTTP.Addr, router)
		},
	}
}
