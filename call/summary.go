package call

import (
	"regexp"
	"strings"
	"time"
)

type Turn struct {
	Speaker string // "caller" or "assistant"
	Text    string
	At      time.Time
}

// Summary is produced once at Summarizing and immutable afterwards.
type Summary struct {
	Caller      string
	StartedAt   time.Time
	Duration    time.Duration
	Transcript  []Turn
	ActionItems []string
	Outcome     string // completed, rejected, incomplete
}

func (s Summary) TranscriptText() string {
	var b strings.Builder
	for _, t := range s.Transcript {
		b.WriteString(t.Speaker)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

var actionItemRules = []struct {
	re     *regexp.Regexp
	action string
}{
	{regexp.MustCompile(`call (?:him|her|them|back)`), "Call back"},
	{regexp.MustCompile(`(?:will|should) call`), "Call back"},
	{regexp.MustCompile(`(?:message|text) (?:him|her|them)`), "Send message"},
	{regexp.MustCompile(`urgent|important|asap`), "Follow up (marked urgent)"},
	{regexp.MustCompile(`email|mail`), "Check for email"},
	{regexp.MustCompile(`tomorrow|later|soon`), "Schedule follow-up"},
}

// ExtractActionItems is a rule-based pass over the transcript's final
// turns. The extraction model itself is deliberately simple; richer
// summarization is an external capability.
func ExtractActionItems(turns []Turn) []string {
	const window = 6
	start := 0
	if len(turns) > window {
		start = len(turns) - window
	}
	var b strings.Builder
	for _, t := range turns[start:] {
		b.WriteString(strings.ToLower(t.Text))
		b.WriteByte('\n')
	}
	text := b.String()

	var items []string
	seen := make(map[string]struct{})
	for _, rule := range actionItemRules {
		if !rule.re.MatchString(text) {
			continue
		}
		if _, dup := seen[rule.action]; dup {
			continue
		}
		seen[rule.action] = struct{}{}
		items = append(items, rule.action)
	}
	return items
}
