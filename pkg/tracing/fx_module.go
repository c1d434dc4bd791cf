package tracing

import (
	"context"
	"go.uber.org/fx"
)

// FXModule defines the Fx module for the tracing package.
var FXModule = fx.Module("tracing",
	fx.Provide(
		NewTracer,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle detaches listeners when the application stops so
// exporters are not invoked during shutdown.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.Close()
			return nil
		},
	})
}
