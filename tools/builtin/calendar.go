package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/closedclaw/warden/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// CalendarReader serves events from a local YAML calendar file.
type CalendarReader struct {
	Path string
}

func NewCalendarReader(path string) *CalendarReader {
	return &CalendarReader{Path: path}
}

func (r *CalendarReader) Name() string { return "read_calendar" }

type calendarEvent struct {
	Title string `yaml:"title"`
	When  string `yaml:"when"`
	Where string `yaml:"where,omitempty"`
}

func (r *CalendarReader) Read(ctx context.Context, query string) (string, error) {
	_ = ctx
	if r == nil || strings.TrimSpace(r.Path) == "" {
		return "", fmt.Errorf("calendar path not configured")
	}
	raw, err := os.ReadFile(pathutil.ExpandHomePath(r.Path))
	if err != nil {
		return "", err
	}
	var events []calendarEvent
	if err := yaml.Unmarshal(raw, &events); err != nil {
		return "", fmt.Errorf("parse calendar: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var b strings.Builder
	for _, ev := range events {
		if query != "" &&
			!strings.Contains(strings.ToLower(ev.Title), query) &&
			!strings.Contains(strings.ToLower(ev.When), query) {
			continue
		}
		fmt.Fprintf(&b, "%s - %s", ev.When, ev.Title)
		if ev.Where != "" {
			fmt.Fprintf(&b, " (%s)", ev.Where)
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "no events found", nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
