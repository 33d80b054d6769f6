package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/tools/builtin"
)

type PollerConfig struct {
	Owner    string
	Interval time.Duration // default 30s
}

// Poller watches the message source for important messages. Each tick
// goes through the authorization engine like any other read: with no
// valid owner session the tick is skipped, never silently escalated.
type Poller struct {
	invoker  *GatedInvoker
	notifier *dispatch.Notifier
	cfg      PollerConfig
	log      *slog.Logger

	seen map[string]struct{}
}

func NewPoller(invoker *GatedInvoker, notifier *dispatch.Notifier, cfg PollerConfig, log *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		invoker:  invoker,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		seen:     make(map[string]struct{}),
	}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	out, res, err := p.invoker.Invoke(ctx, p.cfg.Owner, "read_whatsapp", "")
	if err != nil {
		p.log.Warn("whatsapp_poll_error", "error", err.Error())
		return
	}
	if !res.Granted() {
		// No live session; nothing to read until the owner signs in.
		p.log.Debug("whatsapp_poll_skipped", "decision", string(res.Decision))
		return
	}

	// seen is rebuilt every tick from the current read window, so it
	// stays bounded by the reader's result cap.
	next := make(map[string]struct{}, 32)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		next[line] = struct{}{}
		if _, ok := p.seen[line]; ok {
			continue
		}

		sender, text, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		imp := ScoreImportance(sender, text)
		if !imp.Important {
			continue
		}
		msg := "❗ Important message from " + sender + ": " + text
		if err := p.notifier.Notify(ctx, p.cfg.Owner, msg, dispatch.PriorityUrgent); err != nil {
			p.log.Warn("whatsapp_poll_notify_error", "error", err.Error())
		}
	}
	p.seen = next
}

// DefaultRegistry wires the stock readers.
func DefaultRegistry(whatsappPath, smsPath, calendarPath string, fileMaxBytes int64, fileDenyPaths, fileAllowedDirs []string) *Registry {
	r := NewRegistry()
	r.Register(builtin.NewWhatsAppReader(whatsappPath, 20))
	r.Register(builtin.NewSMSReader(smsPath, 20))
	r.Register(builtin.NewCalendarReader(calendarPath))
	r.Register(builtin.NewFileReader(fileMaxBytes, fileDenyPaths, fileAllowedDirs))
	return r
}
