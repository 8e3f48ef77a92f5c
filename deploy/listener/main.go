//go:build linux

// Package main raw link listener main package
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forest33/rawlink/adapter/dump"
	"github.com/forest33/rawlink/adapter/filter"
	grpc_server "github.com/forest33/rawlink/adapter/grpc/server"
	rest "github.com/forest33/rawlink/adapter/http"
	"github.com/forest33/rawlink/adapter/link"
	"github.com/forest33/rawlink/adapter/metrics"
	"github.com/forest33/rawlink/adapter/packet"
	"github.com/forest33/rawlink/adapter/rawsock"
	"github.com/forest33/rawlink/adapter/reactor"
	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/business/usecase"
	"github.com/forest33/rawlink/pkg/automaxprocs"
	"github.com/forest33/rawlink/pkg/compression"
	"github.com/forest33/rawlink/pkg/config"
	"github.com/forest33/rawlink/pkg/logger"
	"github.com/forest33/rawlink/pkg/profiler"
)

const shutdownTimeout = 5 * time.Second

var (
	cfg        = &entity.ListenerConfig{}
	cfgHandler *config.Config
	zlog       *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc

	reactorAdapter *reactor.Reactor
	rawServer      *rawsock.Server
	metricsAdapter *metrics.Metrics
	restServer     *rest.Server
	grpcServer     *grpc_server.Server

	listenerUseCase *usecase.ListenerUseCase
)

func init() {
	var err error
	cfgHandler, err = config.New(entity.DefaultListenerConfigFileName, "", cfg, nil)
	if err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	zlog = logger.New(logger.Config{
		Level:             cfg.Logger.Level,
		TimeFieldFormat:   cfg.Logger.TimeFieldFormat,
		PrettyPrint:       *cfg.Logger.PrettyPrint,
		DisableSampling:   *cfg.Logger.DisableSampling,
		RedirectStdLogger: *cfg.Logger.RedirectStdLogger,
		ErrorStack:        *cfg.Logger.ErrorStack,
		ShowCaller:        *cfg.Logger.ShowCaller,
		FileName:          cfg.Logger.FileName,
		FileMaxSize:       cfg.Logger.FileMaxSize,
		FileMaxBackups:    cfg.Logger.FileMaxBackups,
		FileMaxAge:        cfg.Logger.FileMaxAge,
	})

	automaxprocs.Init(cfg.Runtime.GoMaxProcs, zlog)

	ctx, cancel = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	defer cancel()

	if len(os.Args[1:]) > 0 && os.Args[1] != commandRun {
		parseCommandLine()
		return
	}

	initAdapters()
	initUseCases()
	initServer()

	if *cfg.Profiler.Enabled {
		profiler.Start(ctx, &profiler.Config{
			Host: cfg.Profiler.Host,
			Port: cfg.Profiler.Port,
		}, zlog)
	}

	initRestServer()
	initGrpcServer()

	if err := listenerUseCase.Start(); err != nil {
		zlog.Fatalf("failed to start listener: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- reactorAdapter.Run(context.Background())
	}()

	var reactorErr error
	running := true
	select {
	case <-ctx.Done():
		zlog.Info().Msg("shutting down")
	case reactorErr = <-done:
		running = false
		zlog.Error().Err(reactorErr).Msg("reactor exited")
	}

	shutdown(running)
	if running {
		reactorErr = <-done
	}
	if reactorErr != nil && !errors.Is(reactorErr, context.Canceled) && !errors.Is(reactorErr, entity.ErrReactorStopped) {
		zlog.Error().Err(reactorErr).Msg("reactor error")
	}
}

func initAdapters() {
	reactorAdapter = reactor.New(&reactor.Config{
		Loops:     cfg.Reactor.Loops,
		QueueSize: cfg.Reactor.QueueSize,
		Tracing:   cfg.Tracing.Reactor,
	}, zlog)

	metricsAdapter = metrics.New(&metrics.Config{
		Interface: cfg.Capture.Interface,
		EtherType: entity.EtherTypeName(cfg.Capture.EtherTypeValue()),
	})
}

func initUseCases() {
	var (
		dumper entity.FrameDumper
		err    error
	)

	if cfg.Capture.DumpFile != "" {
		dumper, err = dump.New(&dump.Config{
			FileName:   cfg.Capture.DumpFile,
			SnapLength: cfg.Capture.SnapLength,
		}, zlog)
		if err != nil {
			zlog.Fatalf("failed to create frame dump: %v", err)
		}
	}

	listenerUseCase, err = usecase.NewListenerUseCase(ctx, zlog, cfg, cfgHandler,
		packet.New(&packet.Config{Layers: true}), dumper, metricsAdapter)
	if err != nil {
		zlog.Fatalf("failed to create listener: %v", err)
	}
}

func initServer() {
	var err error

	rawServer, err = rawsock.New(reactorAdapter, zlog, &rawsock.Config{
		Interface:  cfg.Capture.Interface,
		EtherType:  cfg.Capture.EtherTypeValue(),
		SendPolicy: cfg.Capture.SendPolicyValue(),
		Tracing:    cfg.Tracing.Server,
	}, listenerUseCase)
	if err != nil {
		zlog.Fatalf("failed to create raw server: %v", err)
	}
	listenerUseCase.SetServer(rawServer)
	listenerUseCase.SetDispatcher(reactorAdapter)

	if *cfg.Capture.Promiscuous {
		if err := rawServer.SetPromiscuous(true); err != nil {
			zlog.Fatalf("failed to enable promiscuous mode: %v", err)
		}
	}

	if hw := cfg.Capture.FilterDestinationValue(); hw != nil {
		prog, err := filter.DestinationRaw(cfg.Capture.SnapLength, hw, filter.Broadcast)
		if err != nil {
			zlog.Fatalf("failed to assemble destination filter: %v", err)
		}
		if err := rawServer.SetBPF(prog); err != nil {
			zlog.Fatalf("failed to attach destination filter: %v", err)
		}
	}
}

func initRestServer() {
	if !*cfg.Rest.Enabled {
		return
	}
	restServer = rest.New(&rest.Config{
		Host: cfg.Rest.Host,
		Port: cfg.Rest.Port,
	}, zlog, listenerUseCase, link.List, metricsAdapter.Handler())
	restServer.Start()
}

func initGrpcServer() {
	if !*cfg.Grpc.Enabled {
		return
	}
	grpcServer = grpc_server.New(&grpc_server.Config{
		Host:             cfg.Grpc.Host,
		Port:             cfg.Grpc.Port,
		Compression:      entity.GetCompressionType(cfg.Grpc.Compression),
		CompressionLevel: entity.CompressionLevel(cfg.Grpc.CompressionLevel),
	}, zlog, listenerUseCase, compression.New(&compression.Config{FrameSize: cfg.Capture.SnapLength}))
	if err := grpcServer.Start(); err != nil {
		zlog.Fatalf("failed to start gRPC server: %v", err)
	}
}

// shutdown stops the outer servers, then the listener. The reactor is stopped
// last so the aborted receive still reaches the listener.
func shutdown(reactorRunning bool) {
	if grpcServer != nil {
		grpcServer.Stop()
	}
	if restServer != nil {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := restServer.Shutdown(sctx); err != nil {
			zlog.Error().Err(err).Msg("failed to shutdown HTTP server")
		}
		scancel()
	}
	if err := listenerUseCase.Stop(); err != nil {
		zlog.Error().Err(err).Msg("failed to stop listener")
	}
	if reactorRunning {
		select {
		case <-listenerUseCase.Done():
		case <-time.After(shutdownTimeout):
			zlog.Warn().Msg("listener did not drain before timeout")
		}
	}
	cfgHandler.Close()
	reactorAdapter.Stop()
}
