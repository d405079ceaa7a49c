package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/config"
	"github.com/cordmesh/cordmesh/pkg/logging"
	"github.com/cordmesh/cordmesh/pkg/node"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file (overrides defaults)")
	dataDir := flag.String("data", "", "Data directory (overrides config)")
	disableDiscovery := flag.Bool("disable-discovery", false, "Disable the network discovery subsystem")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.Node.DataDir = *dataDir
	}
	if *disableDiscovery {
		cfg.Discovery.Enabled = false
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	n := node.NewNode(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := n.Start(ctx); err != nil {
		logger.ComponentError(logging.ComponentNode, "Failed to start node", zap.Error(err))
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.ComponentInfo(logging.ComponentNode, "Shutting down", zap.String("signal", sig.String()))

	cancel()
	if err := n.Stop(); err != nil {
		logger.ComponentError(logging.ComponentNode, "Shutdown error", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logging.ColoredLogger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.OutputFile != "" {
		return logging.NewFileLogger(level, cfg.Logging.OutputFile, false)
	}
	return logging.NewColoredLogger(level, true)
}
