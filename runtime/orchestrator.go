package runtime

import (
	"chat-relay/contract"
	"chat-relay/moderation"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// Orchestrator runs the relay next to its supervised background workers
// (debug server, health service, heartbeat) and stops them together.
type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	relay           *Relay
	supervisor      contract.ISupervisor
	workers         []contract.Worker
	charReplacement rune
	cancel          context.CancelFunc
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, relay *Relay, charReplacement rune) *Orchestrator {
	return &Orchestrator{
		log:             log,
		relay:           relay,
		supervisor:      supervisor,
		charReplacement: charReplacement,
	}
}

func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, workers...)
}

// PrepareModeration loads the censored dictionaries of dir and makes the
// relay mask those words before broadcasting.
func (o *Orchestrator) PrepareModeration(fsys fs.FS, dir string) error {
	data, err := NewCensoredLoader(fsys).LoadAll(dir)
	if err != nil {
		return err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, o.charReplacement, o.log)
	if err != nil {
		return fmt.Errorf("build moderator: %w", err)
	}
	o.relay.WithModerator(moderator)
	return nil
}

// Start serves the relay on listener and runs the workers until ctx is
// canceled, Stop is called or the relay fails. The relay error is returned
// once every worker returned.
func (o *Orchestrator) Start(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.cancel = cancel
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		o.supervisor.Run(ctx)
	}()

	o.log.Info("Starting relay and all supervised workers")
	err := o.relay.Serve(ctx, listener)

	// Run may not have installed its own cancel yet.
	cancel()
	o.supervisor.Stop()
	<-supervised
	return err
}

// Stop asks the relay and the workers to shut down.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}
