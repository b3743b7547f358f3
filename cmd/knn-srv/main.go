package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-sod/mixknn/internal/buildinfo"
	"github.com/go-sod/mixknn/internal/classify"
	"github.com/go-sod/mixknn/internal/collect"
	knn "github.com/go-sod/mixknn/internal/config"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/internal/metric"
	"github.com/go-sod/mixknn/internal/server"
	"github.com/go-sod/mixknn/internal/setup"
	"github.com/go-sod/mixknn/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintln(os.Stdout, buildinfo.Info.String())

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	logger := logging.FromContext(ctx)
	config := knn.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	if err := metric.Register(); err != nil {
		return fmt.Errorf("metric.Register: %w", err)
	}

	manager, err := env.ProvideDispatcher()()
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("dispatcher.Run: %w", err)
	}
	if config.Dataset.File != "" {
		if err := setup.Seed(ctx, manager, env.Dataset()); err != nil {
			return fmt.Errorf("setup.Seed: %w", err)
		}
	}

	srv, err := server.New(config.SrvAddr, server.WithMaxConns(config.MaxConns))
	if err != nil {
		return fmt.Errorf("sever.New: %w", err)
	}

	mux := http.NewServeMux()

	classifyHandler, err := classify.NewHandler(&config.Classify, manager)
	if err != nil {
		return fmt.Errorf("classify.NewHandler: %w", err)
	}
	evaluateHandler, err := classify.NewEvaluateHandler(&config.Classify, manager)
	if err != nil {
		return fmt.Errorf("classify.NewEvaluateHandler: %w", err)
	}
	collectHandler, err := collect.NewHandler(&config.Collect, manager)
	if err != nil {
		return fmt.Errorf("collect.NewHandler: %w", err)
	}
	metricHandler, err := metric.Handler()
	if err != nil {
		return fmt.Errorf("metric.Handler: %w", err)
	}

	mux.Handle("/classify", classifyHandler)
	mux.Handle("/evaluate", evaluateHandler)
	mux.Handle("/collect", collectHandler)
	mux.Handle("/metrics", metricHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	go func() {
		if err := http.ListenAndServe("127.0.0.1:6060", nil); err != nil {
			logger.Warnf("pprof listener: %v", err)
		}
	}()

	logger.Infof("listening on %s", srv.Addr())
	if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
		cancel()
		return fmt.Errorf("server.ServeHTTPHandler: %w", err)
	}
	return nil
}
