// Package main is the entry point of ipms, the internship placement
// management tool used by students, company representatives and career
// center staff.
//
// Layout:
// - Domain: placement rules with no infrastructure dependencies
// - Application: commands and queries, one handler per operation
// - Infrastructure: record stores (files, PostgreSQL, Redis) and the importer
// - Interface: the cobra command tree
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipms/placement-hub/config"
	"github.com/ipms/placement-hub/internal/interface/cli"
	"github.com/ipms/placement-hub/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// Logs go to stderr so command output on stdout stays clean.
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.LogCaller || cfg.IsDevelopment(),
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
	log.Debug("configuration loaded",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("session", cfg.Session.Driver),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. RUN
	// ─────────────────────────────────────────────────────────────────────────
	return cli.New(cfg, log).Execute(ctx, os.Args[1:])
}
