package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/aldelg/quantummus/internal/server"
)

var CLI struct {
	Config   string `short:"c" default:"mus-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	service, err := server.NewMatchService(cfg, logger, quartz.NewReal())
	if err != nil {
		logger.Error("Failed to create match service", "error", err)
		ctx.Exit(1)
	}

	logger.Info("Starting Mus server",
		"addr", cfg.GetServerAddress(),
		"tables", len(cfg.Tables),
		"history", cfg.History.Enabled)

	wsServer := server.NewServer(cfg.GetServerAddress(), logger, service)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- wsServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			ctx.Exit(1)
		}
	case sig := <-sigChan:
		logger.Info("Shutting down", "signal", sig)
		_ = wsServer.Stop()
	}
}
