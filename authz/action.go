package authz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Action is a request to perform a gated operation. The required level
// is always resolved through the Policy by kind; callers cannot supply
// it, which rules out privilege self-escalation.
type Action struct {
	Kind        string
	Payload     map[string]any
	RequestedAt time.Time

	// PreApproved marks an action the owner granted standing approval
	// for during setup (auto call pickup). It satisfies session,
	// confirmation and delay checks but never the blocklist.
	PreApproved bool
}

// Hash returns a stable digest of the action's identity. Confirmation
// tokens are bound to this hash so a token issued for one action cannot
// confirm a different one. encoding/json sorts map keys, so marshaling
// the payload map is already canonical.
func (a Action) Hash() string {
	payload := map[string]any{
		"kind": strings.TrimSpace(a.Kind),
	}
	if len(a.Payload) > 0 {
		payload["payload"] = a.Payload
	}
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte(a.Kind)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
