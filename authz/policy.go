package authz

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAction is returned when an action kind was never registered.
// Unregistered kinds must never silently default to the lowest level.
var ErrUnknownAction = errors.New("unknown action kind")

type PolicyEntry struct {
	Kind        string `yaml:"kind"`
	Description string `yaml:"description,omitempty"`
	Level       string `yaml:"level"`
}

type policyFile struct {
	Actions  []PolicyEntry `yaml:"actions"`
	Blocking struct {
		Apps []string `yaml:"apps"`
	} `yaml:"blocking"`
}

// Policy is the static action-kind to level table plus the banking
// blocklist. Loaded once at startup, read-only afterwards.
type Policy struct {
	levels    map[string]Level
	blocklist map[string]struct{}
}

// defaultActions mirrors the stock action table of the assistant.
var defaultActions = map[string]Level{
	// L1: no authentication required
	"query_status": LevelAuto,
	"list_tasks":   LevelAuto,
	"get_time":     LevelAuto,
	"help":         LevelAuto,

	// L2: PIN-gated reads
	"read_whatsapp": LevelPIN,
	"read_sms":      LevelPIN,
	"read_call_log": LevelPIN,
	"read_contacts": LevelPIN,
	"read_calendar": LevelPIN,
	"read_file":     LevelPIN,
	"view_audit":    LevelPIN,

	// L3: writes, require explicit confirmation
	"write_calendar":  LevelConfirm,
	"edit_file":       LevelConfirm,
	"send_message":    LevelConfirm,
	"create_reminder": LevelConfirm,

	// L4: high-risk, confirmation plus delay
	"make_call":       LevelConfirmDelay,
	"call_pickup":     LevelConfirmDelay,
	"system_command":  LevelConfirmDelay,
	"modify_settings": LevelConfirmDelay,
	"shutdown":        LevelConfirmDelay,

	// L5: never executable
	"open_banking_app": LevelBlocked,
	"make_payment":     LevelBlocked,
	"read_upi":         LevelBlocked,
}

// defaultBankingBlocklist holds app identifiers that are denied outright
// regardless of credentials.
var defaultBankingBlocklist = []string{
	"com.phonepe.app",
	"com.google.android.apps.nbu.paisa.user",
	"net.one97.paytm",
	"in.org.npci.upiapp",
	"com.cred.app",
	"com.mobikwik_new",
	"com.freecharge.android",
	"com.paypal.android.p2pmobile",
	"com.hdfcbank.payzapp",
	"com.samsung.android.samsungpay",
	"com.icicibank.imobile",
	"com.axis.mobile",
	"com.kotak.kotakmobilebanking",
	"com.google.android.apps.walletnfcrel",
}

// NewPolicy builds the default policy. Extra blocklist entries extend
// the built-in set.
func NewPolicy(extraBlocklist ...string) *Policy {
	p := &Policy{
		levels:    make(map[string]Level, len(defaultActions)),
		blocklist: make(map[string]struct{}),
	}
	for k, lv := range defaultActions {
		p.levels[k] = lv
	}
	for _, app := range defaultBankingBlocklist {
		p.blocklist[strings.ToLower(app)] = struct{}{}
	}
	for _, app := range extraBlocklist {
		app = strings.ToLower(strings.TrimSpace(app))
		if app != "" {
			p.blocklist[app] = struct{}{}
		}
	}
	return p
}

// LoadPolicyFile overlays entries from a YAML file onto the default
// table. Called once during startup, before the policy is shared.
func LoadPolicyFile(path string, extraBlocklist ...string) (*Policy, error) {
	p := NewPolicy(extraBlocklist...)
	path = strings.TrimSpace(path)
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	for _, e := range pf.Actions {
		kind := strings.TrimSpace(e.Kind)
		if kind == "" {
			continue
		}
		lv, err := ParseLevel(e.Level)
		if err != nil {
			return nil, fmt.Errorf("policy entry %q: %w", kind, err)
		}
		p.levels[kind] = lv
	}
	for _, app := range pf.Blocking.Apps {
		app = strings.ToLower(strings.TrimSpace(app))
		if app != "" {
			p.blocklist[app] = struct{}{}
		}
	}
	return p, nil
}

// Resolve maps an action kind to its required level. Fails with
// ErrUnknownAction for unregistered kinds.
func (p *Policy) Resolve(kind string) (Level, error) {
	if p == nil {
		return 0, ErrUnknownAction
	}
	kind = strings.TrimSpace(kind)
	lv, ok := p.levels[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	return lv, nil
}

// IsBlocked reports whether the kind is tagged L5 or matches a banking
// app identifier. Checked before any level comparison so no credential
// state can override it.
func (p *Policy) IsBlocked(kind string) bool {
	if p == nil {
		return false
	}
	kind = strings.TrimSpace(kind)
	if lv, ok := p.levels[kind]; ok && lv == LevelBlocked {
		return true
	}
	lower := strings.ToLower(kind)
	if _, ok := p.blocklist[lower]; ok {
		return true
	}
	// Package-name style identifiers match on containment, the same
	// way the on-device blocker matches partial package names.
	if lower != "" {
		for app := range p.blocklist {
			if strings.Contains(lower, app) {
				return true
			}
		}
	}
	return false
}

// Kinds returns the registered action kinds, for the help command.
func (p *Policy) Kinds() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.levels))
	for k := range p.levels {
		out = append(out, k)
	}
	return out
}
