package main

import (
	grpc2 "chat-relay/grpc"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay [port] [room name]",
		Short: "Real-time TCP text relay",
		Long: `Relay accepts chat clients over TCP and broadcasts every message
to the other connected participants.

Arguments override the PORT and ROOM_NAME environment variables.
A .env file in the working directory is loaded when present.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args)
		},
	}
}

// run wires every component, serves until ctx is canceled and returns
// setup and readiness failures to main.
func run(ctx context.Context, args []string) error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// 2. Listener
	address := config.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	// 3. Metrics & Relay
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewRelayMetrics(promRegistry)
	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(log, registry, metrics, runtime.RelayConfig{
		RoomName:         config.RoomName,
		HandshakeTimeout: config.HandshakeTimeout,
		WriteTimeout:     config.WriteTimeout,
		MaxContentLength: config.MaxContentLength,
	})

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, relay, charReplacement)
	if config.CensoredDir != "" {
		if err := orchestrator.PrepareModeration(os.DirFS(config.CensoredDir), "."); err != nil {
			_ = listener.Close()
			return fmt.Errorf("moderation setup failed: %w", err)
		}
	}
	orchestrator.Add(workers.NewHeartbeatWorker(log, registry, metrics, config.HeartbeatInterval))
	if config.DebugAddr != "" {
		orchestrator.Add(internal.NewDebugServer(log, config.DebugAddr, registry, promRegistry))
	}
	if config.HealthPort != 0 {
		orchestrator.Add(grpc2.NewHealthServer(log, config.HealthPort))
	}

	// 5. Serve until stopped
	log.Info("Chat room started", "room", config.RoomName, "address", address)
	if err := orchestrator.Start(ctx, listener); err != nil {
		return fmt.Errorf("relay failed: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
