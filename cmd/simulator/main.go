// Command simulator is a small demonstration embedder for the deskernel
// discrete-event engine: it is scaffolding for exercising the kernel, not
// part of its public API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/deskernel/internal/logging"
	"github.com/signalsfoundry/deskernel/internal/observability"
	"github.com/signalsfoundry/deskernel/kernel"
)

func main() {
	backendFlag := flag.String("scheduler", "heap", "scheduler backend: list, heap, or map")
	logPath := flag.String("log-to", "", "path to the textual i/e/r run log (disabled if empty)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on (disabled if empty)")
	healthAddr := flag.String("health-addr", "", "address to serve the gRPC health service on (disabled if empty)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := parseBackend(*backendFlag)
	if err != nil {
		log.Error(ctx, "invalid scheduler backend", logging.String("error", err.Error()))
		os.Exit(2)
	}

	opts := []kernel.EngineOption{kernel.WithSchedulerBackend(backend)}

	var collector *observability.EngineCollector
	var health *observability.HealthCollector
	registry := prometheus.NewRegistry()
	if *metricsAddr != "" || *healthAddr != "" {
		collector, err = observability.NewEngineCollector(registry)
		if err != nil {
			log.Error(ctx, "failed to build engine metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
		opts = append(opts, kernel.WithEventHooks(collector))

		health, err = observability.NewHealthCollector(registry)
		if err != nil {
			log.Error(ctx, "failed to build health metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	tracingCfg := observability.TracingConfigFromEnv()
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		log.Error(ctx, "failed to init tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)
	tracer := otel.Tracer("github.com/signalsfoundry/deskernel/cmd/simulator")
	opts = append(opts, kernel.WithSpanHooks(observability.NewEngineSpans(ctx, tracer)))

	engine := kernel.NewEngine(opts...)

	if *logPath != "" {
		if err := engine.EnableLogTo(*logPath); err != nil {
			log.Error(ctx, "failed to enable run log", logging.String("path", *logPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var metricsServer *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", health.Handler())
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", *metricsAddr))
	}

	var healthSrv *healthServer
	if *healthAddr != "" {
		lis, err := net.Listen("tcp", *healthAddr)
		if err != nil {
			log.Error(ctx, "failed to bind health listener", logging.String("error", err.Error()))
			os.Exit(1)
		}
		healthSrv = startHealthServer(ctx, lis, engine, health, log)
		defer healthSrv.Stop()
		log.Info(ctx, "serving grpc health", logging.String("addr", *healthAddr))
	}

	scheduleDemo(engine, log, ctx)

	log.Info(ctx, "run starting", logging.String("scheduler", *backendFlag))
	engine.Run()
	log.Info(ctx, "run finished", logging.String("now_ns", fmt.Sprintf("%d", engine.Now().ApproximateNanoSeconds())))

	engine.Destroy()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}

// scheduleDemo schedules A@10us, B@11us, C@12us, cancels A, and has B
// remove C and schedule D ten microseconds later: only B and D ever fire.
func scheduleDemo(engine *kernel.Engine, log logging.Logger, ctx context.Context) {
	a := engine.Schedule(kernel.MicroSeconds(10), func() {
		log.Info(ctx, "event A fired (should not happen, A is cancelled)")
	})
	c := engine.Schedule(kernel.MicroSeconds(12), func() {
		log.Info(ctx, "event C fired (should not happen, removed by B)")
	})
	engine.Schedule(kernel.MicroSeconds(11), func() {
		log.Info(ctx, "event B fired", logging.String("now_ns", fmt.Sprintf("%d", engine.Now().ApproximateNanoSeconds())))
		if err := engine.Remove(c); err != nil {
			log.Warn(ctx, "event C already gone", logging.String("error", err.Error()))
		}
		engine.Schedule(kernel.MicroSeconds(10), func() {
			log.Info(ctx, "event D fired", logging.String("now_ns", fmt.Sprintf("%d", engine.Now().ApproximateNanoSeconds())))
		})
	})

	engine.Cancel(a)
}

func parseBackend(name string) (kernel.SchedulerBackend, error) {
	switch name {
	case "list":
		return kernel.SchedulerBackendList, nil
	case "heap":
		return kernel.SchedulerBackendHeap, nil
	case "map":
		return kernel.SchedulerBackendMap, nil
	default:
		return 0, fmt.Errorf("unknown scheduler backend %q", name)
	}
}
