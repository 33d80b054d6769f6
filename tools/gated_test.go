package tools

import (
	"context"
	"sync"
	"testing"

	"github.com/closedclaw/warden/authz"
)

type stubReader struct {
	name  string
	out   string
	reads int
}

func (s *stubReader) Name() string { return s.name }

func (s *stubReader) Read(_ context.Context, _ string) (string, error) {
	s.reads++
	return s.out, nil
}

type stubAuthorizer struct {
	mu      sync.Mutex
	res     authz.Result
	actions []authz.Action
}

func (s *stubAuthorizer) Authorize(_ context.Context, _ string, action authz.Action) authz.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return s.res
}

func TestGatedInvokerGranted(t *testing.T) {
	reader := &stubReader{name: "read_whatsapp", out: "Alice: hi"}
	reg := NewRegistry()
	reg.Register(reader)
	eng := &stubAuthorizer{res: authz.Result{Decision: authz.DecisionGranted, RequiredLevel: authz.LevelPIN}}
	inv := &GatedInvoker{Engine: eng, Registry: reg}

	out, res, err := inv.Invoke(context.Background(), "owner", "read_whatsapp", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Granted() || out != "Alice: hi" {
		t.Fatalf("expected granted read, got %s / %q", res.Decision, out)
	}
	if reader.reads != 1 {
		t.Fatalf("expected one read, got %d", reader.reads)
	}
	if len(eng.actions) != 1 || eng.actions[0].Kind != "read_whatsapp" {
		t.Fatalf("unexpected authorized actions %v", eng.actions)
	}
	if got := eng.actions[0].Payload["query"]; got != "alice" {
		t.Fatalf("query must travel in the action payload, got %v", got)
	}
}

func TestGatedInvokerDeniedNeverReads(t *testing.T) {
	reader := &stubReader{name: "read_whatsapp", out: "secret"}
	reg := NewRegistry()
	reg.Register(reader)
	eng := &stubAuthorizer{res: authz.Result{Decision: authz.DecisionNeedsAuth, RequiredLevel: authz.LevelPIN}}
	inv := &GatedInvoker{Engine: eng, Registry: reg}

	out, res, err := inv.Invoke(context.Background(), "owner", "read_whatsapp", "")
	if err != nil {
		t.Fatalf("denial is not an error: %v", err)
	}
	if res.Decision != authz.DecisionNeedsAuth {
		t.Fatalf("expected needs_auth, got %s", res.Decision)
	}
	if out != "" || reader.reads != 0 {
		t.Fatalf("denied invocation must not read (out=%q reads=%d)", out, reader.reads)
	}
}

func TestGatedInvokerUnknownReader(t *testing.T) {
	eng := &stubAuthorizer{res: authz.Result{Decision: authz.DecisionGranted}}
	inv := &GatedInvoker{Engine: eng, Registry: NewRegistry()}

	if _, _, err := inv.Invoke(context.Background(), "owner", "read_carrier_pigeon", ""); err == nil {
		t.Fatal("expected error for unregistered reader")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubReader{name: "read_whatsapp"})
	reg.Register(&stubReader{name: "read_calendar"})

	names := reg.Names()
	if len(names) != 2 || names[0] != "read_calendar" || names[1] != "read_whatsapp" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}
