// BotBridge - Bot Framework channel connector
// License: MIT
//
// Copyright (c) 2026 BotBridge contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/zhaopengme/botbridge/pkg/botservice"
	"github.com/zhaopengme/botbridge/pkg/bus"
	"github.com/zhaopengme/botbridge/pkg/channels"
	"github.com/zhaopengme/botbridge/pkg/config"
	"github.com/zhaopengme/botbridge/pkg/gateway"
	"github.com/zhaopengme/botbridge/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "🌉"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s botbridge %s\n", logo, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serveCmd()
	case "version", "--version", "-v":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s botbridge - Bot Framework channel connector v%s\n\n", logo, version)
	fmt.Println("Usage: botbridge <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Start the webhook listener and reply loop")
	fmt.Println("  version     Show version information")
}

func serveCmd() {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	if !cfg.Channels.BotService.Enabled {
		fmt.Println("No channels enabled, set BOTBRIDGE_ENABLED=true or edit config.json")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := bus.NewMessageBus()
	manager := channels.NewManager(broker)
	engine := gateway.NewCommandGateway(broker, manager)

	service, err := botservice.New(cfg.Channels.BotService, engine)
	if err != nil {
		fmt.Printf("Error initializing botservice: %v\n", err)
		os.Exit(1)
	}
	service.DriftGuard().SetStartupReplies(engine.StartupReplies())

	channel, err := channels.NewBotServiceChannel(cfg.Channels.BotService, broker, service)
	if err != nil {
		fmt.Printf("Error initializing channel: %v\n", err)
		os.Exit(1)
	}
	manager.Register(channel)
	broker.RegisterHandler(channel.Name(), engine.HandleBusEvent)

	if err := manager.StartAll(ctx); err != nil {
		logger.ErrorCF("main", "Failed to start channels", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	go manager.Run(ctx)

	logger.InfoCF("main", "BotBridge is running", map[string]interface{}{
		"version":  formatVersion(),
		"channels": manager.GetEnabledChannels(),
	})

	<-ctx.Done()

	logger.InfoC("main", "Shutting down...")
	shutdownCtx := context.Background()
	manager.StopAll(shutdownCtx)
	broker.Close()
}

func getConfigPath() string {
	if path := os.Getenv("BOTBRIDGE_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".botbridge", "config.json")
}
