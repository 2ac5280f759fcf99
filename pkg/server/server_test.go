package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/tools"
	"github.com/NERVsystems/tripmcp/pkg/trip"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer uses a fixed wait and a private search store
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat := catalog.Default()
	registry := tools.NewRegistry(discardLogger(),
		tools.WithCatalog(cat),
		tools.WithSynthesizer(trip.NewSynthesizer(cat,
			trip.WithModes(cat.ModeIDs()...),
			trip.WithWaitSource(trip.FixedWait(trip.MinWait)),
		)),
		tools.WithSearchStore(cache.NewSearchStore(32, time.Minute)),
	)
	return NewServer(discardLogger(), registry)
}

func rpc(t *testing.T, s *Server, method string) json.RawMessage {
	t.Helper()
	msg := s.MCPServer().HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"`+method+`"}`))
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  any             `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != nil {
		t.Fatalf("%s failed: %v", method, resp.Error)
	}
	return resp.Result
}

func TestNewServerRegistersToolsAndPrompts(t *testing.T) {
	s := newTestServer(t)

	var toolList struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(rpc(t, s, "tools/list"), &toolList); err != nil {
		t.Fatal(err)
	}
	if len(toolList.Tools) != len(s.Registry().GetToolNames()) {
		t.Errorf("got %d tools, want %d", len(toolList.Tools), len(s.Registry().GetToolNames()))
	}

	var promptList struct {
		Prompts []struct {
			Name string `json:"name"`
		} `json:"prompts"`
	}
	if err := json.Unmarshal(rpc(t, s, "prompts/list"), &promptList); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, p := range promptList.Prompts {
		names[p.Name] = true
	}
	for _, want := range []string{"trip_planning_system", "plan_trip"} {
		if !names[want] {
			t.Errorf("prompt %s not registered", want)
		}
	}
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(nil, nil)
	if s.Registry() == nil || s.MCPServer() == nil {
		t.Fatal("expected default registry and MCP server")
	}
	if s.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", s.ActiveSessions())
	}
}

func TestShutdownBeforeRunIsNoop(t *testing.T) {
	s := newTestServer(t)
	s.Shutdown()
	s.Shutdown()
}
