package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/entitlements/internal/storage"
	"github.com/dmitrymomot/entitlements/pkg/config"
	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/guard"
	"github.com/dmitrymomot/entitlements/pkg/httpserver"
	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/usage"
)

func newServeCommand() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entitlement API",
		Long: `Serves the decision API under /v1 together with /healthz, /readyz and /metrics.
Configuration comes from the environment (ENTITLEMENTS_*, HTTP_*, REDIS_*, PG_*).

The API performs no authentication: expose /v1 to trusted backends only.
"super_admin" in evaluation bodies is ignored unless ENTITLEMENTS_TRUST_SUPER_ADMIN=true.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg Config
			if err := config.Load(&cfg, config.WithEnvFiles(envFiles...)); err != nil {
				return err
			}

			log := logger.New(
				logger.WithEnvironment(logger.ParseEnvironment(cfg.Env), "entitlements"),
				logger.WithContextValue("request_id", middleware.RequestIDKey),
				logger.WithContextExtractors(entitlement.SubjectLogAttrs),
			)
			logger.SetAsDefault(log)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			handler, closeFn, err := NewHandler(cmd.Context(), cfg, log, reg)
			if err != nil {
				log.ErrorContext(cmd.Context(), "startup failed", logger.Error(err))
				return err
			}
			defer closeFn()

			return httpserver.New(cfg.HTTP, log).Run(cmd.Context(), handler)
		},
	}

	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "additional .env files to load")
	return cmd
}

// NewHandler wires catalog, usage store and engine into the service router.
// The returned func releases the usage store connection.
func NewHandler(ctx context.Context, cfg Config, log *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	catalog, err := loadCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	st, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, nil, err
	}
	log.InfoContext(ctx, "usage store ready", slog.String("backend", string(st.Backend)))

	tracker := usage.NewTracker(st.Store, usage.WithResets(catalog.Resets()))
	engine, err := entitlement.New(catalog, tracker,
		entitlement.WithLogger(log),
		entitlement.WithRecorder(entitlement.NewPrometheusRecorder(reg)),
	)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthHandler(log, 0, nil))
	r.Get("/readyz", httpserver.HealthHandler(log, 2*time.Second, map[string]httpserver.Check{
		"usage_store": st.Healthcheck,
	}))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	var routeOpts []guard.RoutesOption
	if cfg.TrustSuperAdmin {
		routeOpts = append(routeOpts, guard.WithOverrideTrust(func(*http.Request) bool { return true }))
	}
	r.Mount("/v1", guard.Routes(engine, log, routeOpts...))

	return r, st.Close, nil
}
