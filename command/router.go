// Package command routes inbound chat commands to gated actions. It is
// the user-facing surface of the authorization protocol: every denial
// comes back as an instruction for what to do next.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/closedclaw/warden/audit"
	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/session"
	"github.com/closedclaw/warden/tools"
)

type Router struct {
	Engine        *authz.Engine
	Sessions      *session.Store
	Invoker       *tools.GatedInvoker
	Confirmations *dispatch.Confirmations
	Audit         audit.Recorder
	AuditQuery    *audit.GormStore
	Log           *slog.Logger
}

// Handle processes one inbound command and returns the reply text.
func (r *Router) Handle(ctx context.Context, cmd dispatch.InboundCommand) string {
	principal := strings.TrimSpace(cmd.PrincipalID)
	text := strings.TrimSpace(cmd.Text)
	if principal == "" || text == "" {
		return ""
	}
	fields := strings.Fields(text)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	switch verb {
	case "help":
		return r.simple(ctx, principal, "help", helpText)
	case "status":
		return r.simple(ctx, principal, "query_status", r.statusText(principal))
	case "time":
		return r.simple(ctx, principal, "get_time", time.Now().Format(time.RFC1123))
	case "pin":
		return r.verifyPIN(principal, rest)
	case "logout":
		r.Sessions.Logout(principal)
		return "Signed out."
	case "read":
		return r.read(ctx, principal, rest)
	case "edit":
		target, ok := strings.CutPrefix(rest, "file ")
		if !ok {
			return "Usage: edit file <path>"
		}
		return r.gatedWrite(ctx, principal, "edit_file", target)
	case "remind":
		return r.gatedWrite(ctx, principal, "create_reminder", rest)
	case "confirm":
		return r.resolveConfirmation(ctx, rest, true)
	case "deny":
		return r.resolveConfirmation(ctx, rest, false)
	case "audit":
		return r.auditView(ctx, principal, rest)
	default:
		return "Unknown command. Send 'help' for the list."
	}
}

const helpText = `Commands:
  status | time | help
  pin <digits>            sign in
  logout
  read whatsapp|calendar|file [query]
  edit file <path>        (needs confirmation)
  remind <text>           (needs confirmation)
  confirm <token> | deny <token>
  audit [limit]`

// simple runs an L1 action; the engine still records it.
func (r *Router) simple(ctx context.Context, principal, kind, reply string) string {
	res := r.Engine.Authorize(ctx, principal, authz.Action{Kind: kind, RequestedAt: time.Now()})
	if !res.Granted() {
		return r.denialText(res)
	}
	return reply
}

func (r *Router) statusText(principal string) string {
	sess := r.Sessions.GetOrCreate(principal)
	now := time.Now()
	switch {
	case sess.Locked(now):
		return fmt.Sprintf("Locked out until %s.", sess.LockedUntil.Format("15:04:05"))
	case sess.Valid(now):
		return fmt.Sprintf("Signed in at %s, session expires %s.",
			sess.VerifiedLevel, sess.ExpiresAt.Format("15:04:05"))
	default:
		return "Not signed in. Send 'pin <digits>' to authenticate."
	}
}

func (r *Router) verifyPIN(principal, pin string) string {
	level, err := r.Sessions.Verify(principal, strings.TrimSpace(pin))

	rec := audit.Record{
		PrincipalID: principal,
		ActionKind:  "pin_verify",
	}
	switch {
	case err == nil:
		rec.Outcome = audit.OutcomeGranted
	case errors.Is(err, session.ErrLocked):
		rec.Outcome = audit.OutcomeBlocked
		rec.Reason = "lockout"
	default:
		rec.Outcome = audit.OutcomeDenied
		rec.Reason = err.Error()
	}
	if r.Audit != nil {
		r.Audit.Log(rec)
	}

	switch {
	case err == nil:
		return fmt.Sprintf("PIN accepted. Verified at %s.", level)
	case errors.Is(err, session.ErrLocked):
		return "Too many failed attempts. Try again later."
	case errors.Is(err, session.ErrNoPIN):
		return "No PIN enrolled. Run 'wardend pin set' on the device."
	default:
		return "Invalid PIN."
	}
}

func (r *Router) read(ctx context.Context, principal, rest string) string {
	source, query, _ := strings.Cut(rest, " ")
	if source == "" {
		return "Usage: read whatsapp|calendar|file [query]"
	}
	kind := "read_" + strings.ToLower(strings.TrimSpace(source))

	out, res, err := r.Invoker.Invoke(ctx, principal, kind, strings.TrimSpace(query))
	if err != nil {
		r.logErr("read_error", err)
		return "Something went wrong reading that."
	}
	if !res.Granted() {
		return r.denialText(res)
	}
	return out
}

// gatedWrite drives the confirmation protocol for L3/L4 actions: the
// first submission yields a token, the confirmed resubmission executes.
func (r *Router) gatedWrite(ctx context.Context, principal, kind, rest string) string {
	action := authz.Action{
		Kind:        kind,
		Payload:     map[string]any{"target": strings.TrimSpace(rest)},
		RequestedAt: time.Now(),
	}
	res := r.Engine.Authorize(ctx, principal, action)
	switch res.Decision {
	case authz.DecisionGranted:
		return fmt.Sprintf("%s approved and executed.", kind)
	case authz.DecisionPendingConfirmation:
		p := r.Confirmations.Request(principal, action)
		return dispatch.FormatConfirmationRequest(p)
	default:
		return r.denialText(res)
	}
}

func (r *Router) resolveConfirmation(ctx context.Context, token string, approve bool) string {
	err := r.Confirmations.Resolve(ctx, token, approve)
	switch {
	case errors.Is(err, dispatch.ErrUnknownToken):
		return "Unknown confirmation token."
	case errors.Is(err, dispatch.ErrTokenExpired):
		return "That confirmation expired. Start over."
	case err != nil:
		return "Could not process that confirmation."
	case approve:
		return "Confirmed. Re-send the command to execute it."
	default:
		return "Denied."
	}
}

func (r *Router) auditView(ctx context.Context, principal, rest string) string {
	res := r.Engine.Authorize(ctx, principal, authz.Action{Kind: "view_audit", RequestedAt: time.Now()})
	if !res.Granted() {
		return r.denialText(res)
	}
	limit := 10
	if n, err := fmt.Sscanf(rest, "%d", &limit); n != 1 || err != nil {
		limit = 10
	}
	recs, err := r.AuditQuery.Query(ctx, audit.Filter{PrincipalID: principal, Limit: limit})
	if err != nil {
		r.logErr("audit_query_error", err)
		return "Audit log unavailable."
	}
	if len(recs) == 0 {
		return "No audit records."
	}
	var b strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&b, "%s %s %s %s\n",
			rec.Timestamp.Format("01-02 15:04"), rec.ActionKind, rec.Outcome, rec.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) denialText(res authz.Result) string {
	switch res.Decision {
	case authz.DecisionNeedsAuth:
		return fmt.Sprintf("This needs %s. Send 'pin <digits>' first.", res.RequiredLevel)
	case authz.DecisionBlocked:
		return "That action is permanently blocked."
	case authz.DecisionPendingConfirmation:
		return "This action needs explicit confirmation."
	case authz.DecisionPendingDelay:
		return fmt.Sprintf("Confirmed. Executes after the safety delay (%s left).", res.Remaining.Round(time.Second))
	default:
		return "Request failed. It has been logged."
	}
}

func (r *Router) logErr(event string, err error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log.Warn(event, "error", err.Error())
}
