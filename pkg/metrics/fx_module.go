package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
)

// FXModule defines the Fx module for the metrics package.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		NewSpanObserver,
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle binds the exposition server to the application
// lifecycle. The listener is opened synchronously during startup so a bad
// address fails application start instead of a background goroutine.
func RegisterMetricsLifecycle(lc fx.Lifecycle, metrics *Metrics, logger Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", metrics.Server.Addr)
			if err != nil {
				logger.Error("failed to bind metrics listener", err, map[string]interface{}{
					"address": metrics.Server.Addr,
				})
				return err
			}
			metrics.listener = ln

			logger.Info("metrics server listening", nil, map[string]interface{}{
				"address": ln.Addr().String(),
			})

			go func() {
				if err := metrics.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server terminated unexpectedly", err, nil)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return metrics.Server.Shutdown(ctx)
		},
	})
}
