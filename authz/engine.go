package authz

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/closedclaw/warden/audit"
)

type Decision string

const (
	DecisionGranted             Decision = "granted"
	DecisionNeedsAuth           Decision = "needs_auth"
	DecisionBlocked             Decision = "blocked"
	DecisionPendingConfirmation Decision = "pending_confirmation"
	DecisionPendingDelay        Decision = "pending_delay"
	DecisionError               Decision = "error"
)

// Result is the outcome of one Authorize call. Every non-granted
// decision is recoverable by the caller except blocked and error.
type Result struct {
	Decision      Decision
	RequiredLevel Level
	Remaining     time.Duration // pending_delay: time left before execution
	Reason        string
}

func (r Result) Granted() bool { return r.Decision == DecisionGranted }

// Sessions is the slice of the session store the engine consults.
type Sessions interface {
	Level(principalID string) (Level, bool)
	Touch(principalID string)
}

type EngineConfig struct {
	// L4Delay is the mandatory wait between confirmation and
	// execution of an L4 action.
	L4Delay time.Duration
	// ConfirmTTL bounds how long a confirmation stays usable. A
	// confirmed action that is never executed must not remain
	// pre-approved indefinitely.
	ConfirmTTL time.Duration
}

// Engine is the single source of truth for what is currently
// permitted. Every privileged action in the system, whichever loop it
// originates from, goes through Authorize.
type Engine struct {
	policy     *Policy
	sessions   Sessions
	audit      audit.Recorder
	l4Delay    time.Duration
	confirmTTL time.Duration
	log        *slog.Logger

	mu        sync.Mutex
	confirmed map[string]time.Time // principal|action hash -> confirmed at

	now func() time.Time
}

func NewEngine(policy *Policy, sessions Sessions, rec audit.Recorder, cfg EngineConfig, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	delay := cfg.L4Delay
	if delay <= 0 {
		delay = 10 * time.Second
	}
	ttl := cfg.ConfirmTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Engine{
		policy:     policy,
		sessions:   sessions,
		audit:      rec,
		l4Delay:    delay,
		confirmTTL: ttl,
		log:        log,
		confirmed:  make(map[string]time.Time),
		now:        time.Now,
	}
}

// Confirm records that the principal explicitly approved this exact
// action. Confirmations are single-use and bound to the action hash.
// For L4 actions the delay clock starts here.
func (e *Engine) Confirm(principalID string, action Action) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed[confirmKey(principalID, action)] = e.now()
}

// Authorize evaluates the action against the policy, the session state
// and the confirmation registry, in that order. The audit record for
// the decision is enqueued before Authorize returns, so no caller can
// act on a decision that has not been logged.
func (e *Engine) Authorize(ctx context.Context, principalID string, action Action) Result {
	_ = ctx
	principalID = strings.TrimSpace(principalID)
	kind := strings.TrimSpace(action.Kind)

	// 1. Blocklist first. No credential state can override it, and
	// pre-approval does not bypass it either.
	if e.policy.IsBlocked(kind) {
		return e.finish(principalID, kind, LevelBlocked, Result{
			Decision:      DecisionBlocked,
			RequiredLevel: LevelBlocked,
			Reason:        "banking/blocked action",
		}, audit.OutcomeBlocked)
	}

	// 2. Resolve the required level. Unknown kinds are defects and
	// are treated as blocked, never as the lowest tier.
	required, err := e.policy.Resolve(kind)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			e.log.Error("authz_unknown_action", "kind", kind, "principal_id", principalID)
			return e.finish(principalID, kind, 0, Result{
				Decision: DecisionError,
				Reason:   err.Error(),
			}, audit.OutcomeError)
		}
		return e.finish(principalID, kind, 0, Result{
			Decision: DecisionError,
			Reason:   err.Error(),
		}, audit.OutcomeError)
	}

	if required == LevelAuto {
		return e.finish(principalID, kind, required, Result{
			Decision:      DecisionGranted,
			RequiredLevel: required,
		}, audit.OutcomeGranted)
	}

	// Standing approval configured by the owner (auto call pickup):
	// the configured ring delay substitutes for session, confirmation
	// and the L4 cooldown.
	if action.PreApproved {
		e.sessions.Touch(principalID)
		return e.finish(principalID, kind, required, Result{
			Decision:      DecisionGranted,
			RequiredLevel: required,
			Reason:        "preapproved",
		}, audit.OutcomeGranted)
	}

	// 3. A valid session at or above the required level.
	verified, ok := e.sessions.Level(principalID)
	if !ok || verified < required {
		return e.finish(principalID, kind, required, Result{
			Decision:      DecisionNeedsAuth,
			RequiredLevel: required,
			Reason:        "pin verification required",
		}, audit.OutcomeDenied)
	}

	// 4. Explicit confirmation for L3 and above.
	var confirmedAt time.Time
	if required >= LevelConfirm {
		key := confirmKey(principalID, action)
		e.mu.Lock()
		confirmedAt, ok = e.confirmed[key]
		if ok && e.now().Sub(confirmedAt) > e.confirmTTL {
			delete(e.confirmed, key)
			ok = false
		}
		e.mu.Unlock()
		if !ok {
			return e.finish(principalID, kind, required, Result{
				Decision:      DecisionPendingConfirmation,
				RequiredLevel: required,
				Reason:        "explicit confirmation required",
			}, audit.OutcomeDenied)
		}
	}

	// 5. L4 additionally waits out the delay, measured from the
	// moment of confirmation.
	if required == LevelConfirmDelay {
		elapsed := e.now().Sub(confirmedAt)
		if elapsed < e.l4Delay {
			return e.finish(principalID, kind, required, Result{
				Decision:      DecisionPendingDelay,
				RequiredLevel: required,
				Remaining:     e.l4Delay - elapsed,
				Reason:        "confirmation delay in effect",
			}, audit.OutcomeDenied)
		}
	}

	// 6. Granted. Consume the confirmation and extend the session.
	if required >= LevelConfirm {
		e.mu.Lock()
		delete(e.confirmed, confirmKey(principalID, action))
		e.mu.Unlock()
	}
	e.sessions.Touch(principalID)
	return e.finish(principalID, kind, required, Result{
		Decision:      DecisionGranted,
		RequiredLevel: required,
	}, audit.OutcomeGranted)
}

func (e *Engine) finish(principalID, kind string, required Level, res Result, outcome audit.Outcome) Result {
	levelStr := ""
	if required > 0 {
		levelStr = required.String()
	}
	if e.audit != nil {
		e.audit.Log(audit.Record{
			Timestamp:     e.now().UTC(),
			PrincipalID:   principalID,
			ActionKind:    kind,
			RequiredLevel: levelStr,
			Outcome:       outcome,
			Reason:        res.Reason,
		})
	}
	decisionsTotal.WithLabelValues(string(res.Decision)).Inc()
	return res
}

func confirmKey(principalID string, action Action) string {
	return strings.TrimSpace(principalID) + "|" + action.Hash()
}
