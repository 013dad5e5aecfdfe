package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spectrodyne/tonegen/internal/api"
	"github.com/spectrodyne/tonegen/internal/config"
	"github.com/spectrodyne/tonegen/internal/control"
	"github.com/spectrodyne/tonegen/internal/engine"
	"github.com/spectrodyne/tonegen/internal/pipeline"
)

var errEngineHalted = errors.New("engine halted")

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("tonegen starting",
		zap.String("control", cfg.ControlAddr),
		zap.String("api", cfg.APIAddr),
		zap.String("output", cfg.Output),
		zap.Float64("defaultFreq", cfg.DefaultFreq),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("tonegen stopped", zap.Error(err))
	}
	logger.Info("tonegen stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(cfg.DefaultFreq, logger.With(zap.String("component", "engine")))
	player := pipeline.NewPlayer(eng, cfg.RingChunks, logger.With(zap.String("component", "pipeline")))

	sink, err := buildSink(cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	srv := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      api.NewHandlers(eng, logger.With(zap.String("component", "api"))).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return player.Serve(gctx, sink)
	})

	ctrl := control.NewServer(cfg.ControlAddr, eng, logger.With(zap.String("component", "control")))
	g.Go(func() error {
		return ctrl.Start(gctx)
	})

	g.Go(func() error {
		return control.RunReader(gctx, os.Stdin, eng, logger.With(zap.String("component", "stdin")))
	})

	g.Go(func() error {
		eng.RunReporter(gctx, reportInterval(cfg))
		return nil
	})

	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", cfg.APIAddr))
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		case <-gctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		}
	})

	// A faulted engine tears the whole process down; the absorbing state is
	// surfaced to the host as a nonzero exit instead of an idle hang.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-eng.Done():
			return errEngineHalted
		}
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildSink(cfg *config.Config, logger *zap.Logger) (pipeline.Sink, error) {
	sinkLogger := logger.With(zap.String("component", "sink"))
	switch cfg.Output {
	case config.OutputSpeaker:
		return pipeline.NewSpeakerSink(sinkLogger), nil
	case config.OutputWAV:
		return pipeline.NewWAVSink(cfg.WAVPath, sinkLogger), nil
	case config.OutputDiscard:
		return pipeline.NewDiscardSink(sinkLogger), nil
	default:
		return nil, fmt.Errorf("unknown OUTPUT %q", cfg.Output)
	}
}

func reportInterval(cfg *config.Config) time.Duration {
	sec := cfg.ReportIntervalSec
	if sec < 1 {
		sec = 1
	}
	return time.Duration(sec) * time.Second
}
