// Package httpserver runs the entitlement API with graceful shutdown and
// exposes dependency health checks.
//
//	srv := httpserver.New(cfg, log)
//	router.Get("/healthz", httpserver.HealthHandler(log, 2*time.Second, map[string]httpserver.Check{
//	    "usage_store": storage.Healthcheck,
//	}))
//	err := srv.Run(ctx, router)
//
// Run returns when ctx is cancelled or the process gets SIGINT/SIGTERM, after
// in-flight requests finish or Config.ShutdownTimeout elapses.
package httpserver
