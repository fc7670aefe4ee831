package internal

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDebugServer(t *testing.T, roster *mocks.MockRoster) *DebugServer {
	registry := prometheus.NewRegistry()
	promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "chat_relay_test_total",
		Help: "Test counter",
	}).Add(3)
	return NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", roster, registry)
}

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestDebugServer_Healthz(t *testing.T) {
	req := require.New(t)
	server := newDebugServer(t, mocks.NewMockRoster(gomock.NewController(t)))

	code, body := get(t, server.Handler(), "/healthz")

	req.Equal(http.StatusOK, code)
	req.Equal("OK\n", body)
}

func TestDebugServer_Metrics(t *testing.T) {
	req := require.New(t)
	server := newDebugServer(t, mocks.NewMockRoster(gomock.NewController(t)))

	code, body := get(t, server.Handler(), "/metrics")

	req.Equal(http.StatusOK, code)
	req.Contains(body, "chat_relay_test_total 3")
}

func TestDebugServer_Roster(t *testing.T) {
	req := require.New(t)
	roster := mocks.NewMockRoster(gomock.NewController(t))

	// Given two connected participants
	alice := domain.RosterEntry{ID: domain.NewParticipantID(), Name: "alice", RemoteAddr: "10.0.0.1:5000", JoinedAt: time.Now()}
	bob := domain.RosterEntry{ID: domain.NewParticipantID(), Name: "bob", RemoteAddr: "10.0.0.2:5000", JoinedAt: time.Now()}
	roster.EXPECT().Snapshot().Return([]domain.RosterEntry{alice, bob})

	code, body := get(t, newDebugServer(t, roster).Handler(), "/roster")

	// Then both rows are rendered
	req.Equal(http.StatusOK, code)
	req.Contains(body, alice.ID.String())
	req.Contains(body, "alice")
	req.Contains(body, "10.0.0.2:5000")
	req.Contains(body, "TOTAL")
}

func TestDebugServer_Unknown_Route(t *testing.T) {
	req := require.New(t)
	server := newDebugServer(t, mocks.NewMockRoster(gomock.NewController(t)))

	code, _ := get(t, server.Handler(), "/nope")

	req.Equal(http.StatusNotFound, code)
}

func TestDebugServer_Serve_Until_Canceled(t *testing.T) {
	req := require.New(t)
	server := newDebugServer(t, mocks.NewMockRoster(gomock.NewController(t)))
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	// When the server answers over the network
	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	_ = resp.Body.Close()
	req.Equal("OK\n", string(body))

	// Then canceling stops it cleanly
	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("debug server did not stop")
	}
}
