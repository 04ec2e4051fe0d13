package main

import (
	"net"
	"net/http"

	"github.com/asaskevich/EventBus"
	"github.com/dgraph-io/ristretto"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"

	"github.com/veritrace/tracecheck/internal/collector/config"
	"github.com/veritrace/tracecheck/internal/collector/debug"
	traceServer "github.com/veritrace/tracecheck/internal/collector/server"
	"github.com/veritrace/tracecheck/pkg/bus"
	"github.com/veritrace/tracecheck/pkg/capture"
	"github.com/veritrace/tracecheck/pkg/trace/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(cfg.Collector.GetLogLevel())
	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,     // number of keys to track frequency of (10M).
		MaxCost:     1 << 30, // maximum cost of cache (1GB).
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		logger.Fatal("Failed to create span cache", zap.Error(err))
	}

	groupCache := capture.NewWriteBehindCacheImpl[model.Span](cache)
	recorder := capture.NewRecorderImpl(groupCache, cfg.Wait.GetPollInterval(), logger)

	eventBus := bus.NewCaptureEventBus[[]model.Span](EventBus.New(), logger)
	err = eventBus.Subscribe(
		bus.SpansReceivedTopic,
		func(spans []model.Span) error {
			return recorder.Record(spans)
		},
		false,
	)
	if err != nil {
		logger.Fatal("Failed to subscribe recorder to the event bus", zap.Error(err))
	}

	listener, err := net.Listen("tcp", cfg.Collector.ListenAddress)
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	if cfg.Debug.Enabled {
		debugRouter := debug.CreateRouter(recorder, logger)
		go func() {
			logger.Info(
				"Debug server started, serving captured traces",
				zap.String("address", cfg.Debug.ListenAddress),
			)
			if err := http.ListenAndServe(cfg.Debug.ListenAddress, debugRouter); err != nil {
				logger.Error("Debug server stopped", zap.Error(err))
			}
		}()
	}

	srv := grpc.NewServer()
	traceServiceServer := traceServer.NewTraceServiceServerImpl(
		logger,
		eventBus,
	)

	protoTrace.RegisterTraceServiceServer(srv, traceServiceServer)
	logger.Info(
		"gRPC service started, listening for OpenTelemetry traces...",
		zap.String("address", cfg.Collector.ListenAddress),
	)

	if err := srv.Serve(listener); err != nil {
		logger.Fatal("Failed to serve", zap.Error(err))
	}
}
