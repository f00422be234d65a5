package main

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/deskernel/internal/logging"
	"github.com/signalsfoundry/deskernel/internal/observability"
	"github.com/signalsfoundry/deskernel/kernel"
)

// healthServer runs the standard grpc.health.v1.Health service and keeps
// its serving status in sync with a kernel.Engine that is, concurrently,
// being driven by Run on a different goroutine. Engine.State/Now/IsFinished
// are the only calls this poller makes, matching the engine's documented
// exception to its single-threaded rule.
type healthServer struct {
	grpc *grpc.Server
	done chan struct{}
}

func startHealthServer(ctx context.Context, lis net.Listener, engine *kernel.Engine, collector *observability.HealthCollector, log logging.Logger) *healthServer {
	healthImpl := health.NewServer()

	var unary grpc.ServerOption
	if collector != nil {
		unary = grpc.ChainUnaryInterceptor(collector.UnaryServerInterceptor())
	}
	srvOpts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
	if unary != nil {
		srvOpts = append(srvOpts, unary)
	}

	srv := grpc.NewServer(srvOpts...)
	healthpb.RegisterHealthServer(srv, healthImpl)

	h := &healthServer{grpc: srv, done: make(chan struct{})}

	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Warn(ctx, "health server stopped serving", logging.String("error", err.Error()))
		}
	}()

	go h.poll(ctx, engine, healthImpl, collector)

	return h
}

func (h *healthServer) poll(ctx context.Context, engine *kernel.Engine, healthImpl *health.Server, collector *observability.HealthCollector) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			state := engine.State()
			if collector != nil {
				collector.SetEngineState(state)
			}
			status := healthpb.HealthCheckResponse_NOT_SERVING
			if state == kernel.StateRunning {
				status = healthpb.HealthCheckResponse_SERVING
			}
			healthImpl.SetServingStatus("", status)
		}
	}
}

// Stop gracefully stops the gRPC server and the background poller.
func (h *healthServer) Stop() {
	if h == nil {
		return
	}
	close(h.done)
	h.grpc.GracefulStop()
}
