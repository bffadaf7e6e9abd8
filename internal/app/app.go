package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gemstone-market/identity/internal/config"
	httpx "github.com/gemstone-market/identity/internal/http"
	"github.com/gemstone-market/identity/internal/http/handlers"
	"github.com/gemstone-market/identity/internal/http/middleware"
	"github.com/gemstone-market/identity/internal/logging"
	"github.com/gemstone-market/identity/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

// Handler builds the instrumented HTTP handler for the container
func (c *Container) Handler() http.Handler {
	h := httpx.Handlers{
		Auth:  handlers.NewAuthHandlers(c.AuthSvc, c.Log),
		MFA:   handlers.NewMFAHandlers(c.MFASvc, c.Log),
		Admin: handlers.NewAdminHandlers(c.RoleAdminSvc, c.Log),
		Authz: handlers.NewAuthzHandlers(c.RBAC, c.Log),
	}
	r := httpx.BuildRouter(h,
		middleware.NewAuthMW(c.TokenSvc),
		middleware.NewRBACMW(c.RBAC, c.Audit, c.Log),
		c.Metrics,
		c.Log,
	)
	return otelhttp.NewHandler(r, c.Config.Telemetry.ServiceName)
}

// Run serves the API until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	gin.SetMode(cfg.App.GinMode)

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		c.RunJanitor(janitorCtx)
	}()
	defer func() {
		stopJanitor()
		<-janitorDone
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// RunJanitor purges stale verification tokens every cleanup interval
func (c *Container) RunJanitor(ctx context.Context) {
	interval := c.Config.Auth.CleanupInterval.Std()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Cleanup(ctx); err != nil {
				c.Log.Warn().Err(err).Msg("token cleanup failed")
			}
		}
	}
}

// Cleanup deletes verification tokens past the retention horizon
func (c *Container) Cleanup(ctx context.Context) (int64, error) {
	n, err := c.VerificationSvc.Cleanup(ctx, c.Config.Auth.TokenRetention.Std())
	if err != nil {
		return 0, err
	}
	c.Metrics.TokensPurged(n)
	if n > 0 {
		c.Log.Info().Int64("deleted", n).Msg("purged stale verification tokens")
	}
	return n, nil
}
