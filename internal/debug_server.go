package internal

import (
	"chat-relay/contract"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// DebugServer exposes the relay internals over HTTP:
//
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus exposition
//	GET /roster   connected participants as a plain-text table
type DebugServer struct {
	log      *slog.Logger
	addr     string
	roster   contract.Roster
	gatherer prometheus.Gatherer
}

func NewDebugServer(log *slog.Logger, addr string, roster contract.Roster, gatherer prometheus.Gatherer) *DebugServer {
	return &DebugServer{
		log:      log,
		addr:     addr,
		roster:   roster,
		gatherer: gatherer,
	}
}

func (s *DebugServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/roster", s.renderRoster)
	return r
}

func (s *DebugServer) renderRoster(w http.ResponseWriter, _ *http.Request) {
	entries := s.roster.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Remote", "Joined"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, entry := range entries {
		table.Append([]string{
			entry.ID.String(),
			entry.Name,
			entry.RemoteAddr,
			entry.JoinedAt.Format(time.RFC3339),
		})
	}
	table.SetFooter([]string{"", "", "Total", fmt.Sprintf("%d", len(entries))})
	table.Render()
}

// Run serves until ctx is canceled, then shuts the server down gracefully.
func (s *DebugServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("debug server listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

func (s *DebugServer) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting debug server", "address", listener.Addr().String())
		errChan <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("debug server shutdown: %w", err)
		}
		s.log.Debug("Debug server stopped")
		return nil
	case err := <-errChan:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("debug server: %w", err)
	}
}
