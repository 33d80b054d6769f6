package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/closedclaw/warden/authz"
)

// Authorizer mirrors the engine's single public operation.
type Authorizer interface {
	Authorize(ctx context.Context, principalID string, action authz.Action) authz.Result
}

// GatedInvoker is the only path from a command to a reader. The
// authorization decision happens here, before the reader runs.
type GatedInvoker struct {
	Engine   Authorizer
	Registry *Registry
}

// Invoke authorizes and, when granted, executes the reader named by
// kind. On any denial the Result carries what the caller must do next
// (authenticate, confirm, wait).
func (g *GatedInvoker) Invoke(ctx context.Context, principalID, kind, query string) (string, authz.Result, error) {
	if g == nil || g.Engine == nil {
		return "", authz.Result{}, fmt.Errorf("gated invoker not configured")
	}

	res := g.Engine.Authorize(ctx, principalID, authz.Action{
		Kind:        kind,
		Payload:     map[string]any{"query": query},
		RequestedAt: time.Now(),
	})
	if !res.Granted() {
		return "", res, nil
	}

	reader, err := g.Registry.MustGet(kind)
	if err != nil {
		return "", res, err
	}
	out, err := reader.Read(ctx, query)
	if err != nil {
		return "", res, fmt.Errorf("%s: %w", kind, err)
	}
	return out, res, nil
}
