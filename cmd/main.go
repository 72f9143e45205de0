package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/app"
	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
	buildTime  = "unknown"
	gitCommit  = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "stalwart-gateway",
		Short: "STALWART bridge-health query gateway",
		Long: `A read-only query gateway that serves bridge inventory, spans, critical
stress zones, alerts, statistics and metrics as uniform JSON envelopes.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Git Commit: %s\n", gitCommit)
		},
	}

	var validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Run: func(cmd *cobra.Command, args []string) {
			validateConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (environment only when empty)")
	rootCmd.AddCommand(versionCmd, validateCmd, newInvokeCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func runServer() {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	log := logger.New(cfg.Logging)

	log.WithFields(logrus.Fields{
		"version":    version,
		"build_time": buildTime,
		"git_commit": gitCommit,
		"driver":     cfg.Backend.Driver,
	}).Info("Starting STALWART gateway")

	if err := cfg.Backend.CheckCredentials(); err != nil {
		log.WithError(err).Warn("Backend-backed resources will fail until credentials are provided")
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Version = version
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	log.Info("Gateway started successfully")

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}

	log.Info("Gateway stopped")
}

func validateConfig() {
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	if err := cfg.Backend.CheckCredentials(); err != nil {
		logrus.WithError(err).Warn("Configuration is valid but backend credentials are incomplete")
		return
	}

	logrus.Info("Configuration is valid")
}
