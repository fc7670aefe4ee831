package main

import (
	"bufio"
	"chat-relay/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [server port username]",
		Short: "Interactive client of the chat relay",
		Long: `Chat connects to a relay, announces the username and then sends every
typed line as a message. Type 'quit' or 'exit' to leave.

Without the three arguments the server, the port and the username are
asked interactively.`,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args)
		},
	}
}

func run(ctx context.Context, args []string) error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	stdin := bufio.NewReader(os.Stdin)
	target, err := resolveTarget(args, prompter{in: stdin, out: os.Stdout})
	if err != nil {
		return err
	}

	renderer := client.NewRenderer(os.Stdout, config.Colours)
	dialCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()
	session, err := client.Dial(dialCtx, log, target.address(), target.username, renderer)
	if err != nil {
		renderer.Error(err.Error())
		return err
	}

	return session.Run(ctx, stdin)
}
