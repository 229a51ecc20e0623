package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/internal/ui"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	debug      = flag.Bool("debug", false, "Enable debug mode - shows detailed logging for all components")
	source     = flag.String("open", "", "URL or file path to open on startup")
	Version    = "dev"
)

func main() {
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("[MAIN] Debug mode enabled - all components will log detailed information")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[MAIN] Failed to load config: %v", err)
	}

	if *debug {
		cfg.Debug = true
		log.Printf("[MAIN] Configuration loaded successfully")
		log.Printf("[MAIN] - Database Path: %s", cfg.Storage.DatabasePath)
		log.Printf("[MAIN] - Bar width: %dpx, gap: %dpx", cfg.Waveform.BarWidth, cfg.Waveform.Gap)
		log.Printf("[MAIN] - Worker chunk size: %d samples", cfg.Waveform.WorkerChunkSize)
		log.Printf("[MAIN] - Window Size: %dx%d", cfg.UI.WindowWidth, cfg.UI.WindowHeight)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyneApp := app.New()

	waveApp, err := ui.NewApp(ctx, fyneApp, cfg)
	if err != nil {
		log.Fatalf("[MAIN] Failed to create app: %v", err)
	}

	if *source != "" {
		waveApp.OpenSource(*source)
	}

	setupGracefulShutdown(cancel, waveApp)
	waveApp.ShowAndRun()
}

func setupGracefulShutdown(cancel context.CancelFunc, waveApp *ui.App) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		sig := <-c
		log.Printf("[MAIN] Received signal: %v", sig)
		log.Printf("[MAIN] Initiating graceful shutdown...")

		cancel()
		waveApp.Close()

		log.Printf("[MAIN] Graceful shutdown completed")
		os.Exit(0)
	}()
}
