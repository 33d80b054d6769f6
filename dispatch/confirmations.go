package dispatch

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/closedclaw/warden/authz"
	"github.com/oklog/ulid/v2"
)

var (
	ErrUnknownToken = errors.New("unknown confirmation token")
	ErrTokenExpired = errors.New("confirmation token expired")
)

// Confirmer is the engine-side half of the confirmation protocol.
type Confirmer interface {
	Confirm(principalID string, action authz.Action)
}

type Pending struct {
	Token       string
	PrincipalID string
	Action      authz.Action
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Confirmations correlates pending-confirmation tokens with the exact
// action they were issued for. A resolved token feeds the engine's
// confirmation registry; a token cannot confirm a different action
// because the action travels with it.
type Confirmations struct {
	engine Confirmer
	ttl    time.Duration

	mu      sync.Mutex
	pending map[string]Pending

	now func() time.Time
}

func NewConfirmations(engine Confirmer, ttl time.Duration) *Confirmations {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Confirmations{
		engine:  engine,
		ttl:     ttl,
		pending: make(map[string]Pending),
		now:     time.Now,
	}
}

// Request registers a pending confirmation and returns its token for
// delivery to the user.
func (c *Confirmations) Request(principalID string, action authz.Action) Pending {
	now := c.now()
	p := Pending{
		Token:       "cfm_" + ulid.MustNew(ulid.Timestamp(now.UTC()), rand.Reader).String(),
		PrincipalID: strings.TrimSpace(principalID),
		Action:      action,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.ttl),
	}
	c.mu.Lock()
	c.pending[p.Token] = p
	c.mu.Unlock()
	return p
}

// Resolve consumes a token. Approval stamps the engine's confirmation
// registry; denial just drops the token.
func (c *Confirmations) Resolve(ctx context.Context, token string, approve bool) error {
	_ = ctx
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("missing confirmation token")
	}

	c.mu.Lock()
	p, ok := c.pending[token]
	if ok {
		delete(c.pending, token)
	}
	c.mu.Unlock()

	if !ok {
		return ErrUnknownToken
	}
	if c.now().After(p.ExpiresAt) {
		return ErrTokenExpired
	}
	if approve && c.engine != nil {
		c.engine.Confirm(p.PrincipalID, p.Action)
	}
	return nil
}

// Sweep drops expired tokens. Called periodically by the daemon.
func (c *Confirmations) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for token, p := range c.pending {
		if now.After(p.ExpiresAt) {
			delete(c.pending, token)
			dropped++
		}
	}
	return dropped
}
