// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command assist starts the Aleutian Assist API server.
//
// Aleutian Assist resolves free-form natural-language commands to
// structured intents through a layered pipeline:
//   - Exact-match rules (highest priority)
//   - TF-IDF semantic similarity against an example corpus
//   - A compact feed-forward classifier fallback
//   - Session-scoped short-term memory (pronouns, follow-ups,
//     pending confirmations)
//
// Usage:
//
//	go run ./cmd/assist
//	go run ./cmd/assist -port 9090
//	go run ./cmd/assist -config /etc/assist.yaml -artifacts /var/lib/assist
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/assist/health
//
//	# Resolve a command
//	curl -X POST http://localhost:8080/v1/assist/command \
//	  -H "Content-Type: application/json" \
//	  -d '{"text": "open youtube and play music"}'
//
//	# Inspect interpretation without executing
//	curl -X POST http://localhost:8080/v1/assist/interpret \
//	  -H "Content-Type: application/json" \
//	  -d '{"text": "delete the file notes.txt"}' | jq
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/AleutianAssist/services/assist"
	"github.com/AleutianAI/AleutianAssist/services/assist/config"
	"github.com/AleutianAI/AleutianAssist/services/assist/plugins"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	configPath := flag.String("config", "", "Path to a YAML config file (embedded defaults when empty)")
	artifactDir := flag.String("artifacts", "", "Directory holding intents.yaml and model.yaml (embedded artifacts when empty)")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so trace context flows from inbound
	// headers through every handler.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var cfg *config.AssistConfig
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(context.Background(), *configPath)
	} else {
		cfg, err = config.LoadDefault(context.Background())
	}
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *artifactDir != "" {
		cfg.ArtifactDir = *artifactDir
	}

	svc, err := assist.NewService(cfg, plugins.NopExecutor{Logger: logger}, logger)
	if err != nil {
		logger.Error("Failed to build assist service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	handlers := assist.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-assist"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	assist.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down Aleutian Assist server")
		svc.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown was not clean", slog.String("error", err.Error()))
		}
	}()

	slog.Info("Starting Aleutian Assist server", slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// printBanner prints the startup banner.
func printBanner(port int) {
	fmt.Printf(`
  Aleutian Assist
  ---------------
  Listening:  http://localhost:%d
  Command:    POST /v1/assist/command
  Interpret:  POST /v1/assist/interpret
  Health:     GET  /v1/assist/health
  Metrics:    GET  /metrics

`, port)
}
