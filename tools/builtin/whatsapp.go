package builtin

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/closedclaw/warden/internal/pathutil"
)

// WhatsAppReader serves messages from an exported chat file. The live
// bridge is an external collaborator; the export format is what the
// poller and the read_whatsapp action both consume.
type WhatsAppReader struct {
	Path       string
	MaxResults int
}

func NewWhatsAppReader(path string, maxResults int) *WhatsAppReader {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &WhatsAppReader{Path: path, MaxResults: maxResults}
}

func (r *WhatsAppReader) Name() string { return "read_whatsapp" }

type Message struct {
	Sender string
	Text   string
}

// Export lines look like "12/31/23, 22:15 - Alice: message" or
// "[12/31/23, 10:15:32 PM] Alice: message".
var exportLine = regexp.MustCompile(`^\[?[\d/.-]+,? [\d:]+(?:\s?[AP]M)?\]?\s*[-–]?\s*([^:]+):\s*(.+)$`)

func ParseExport(raw string) []Message {
	var out []Message
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := exportLine.FindStringSubmatch(line)
		if m == nil {
			// Continuation of the previous message.
			if len(out) > 0 {
				out[len(out)-1].Text += "\n" + line
			}
			continue
		}
		sender := strings.TrimSpace(m[1])
		text := strings.TrimSpace(m[2])
		if sender == "" || text == "" {
			continue
		}
		// System messages have no real sender content.
		if strings.Contains(text, "Messages and calls are end-to-end encrypted") {
			continue
		}
		out = append(out, Message{Sender: sender, Text: text})
	}
	return out
}

func (r *WhatsAppReader) Read(ctx context.Context, query string) (string, error) {
	_ = ctx
	if r == nil || strings.TrimSpace(r.Path) == "" {
		return "", fmt.Errorf("whatsapp export path not configured")
	}
	raw, err := os.ReadFile(pathutil.ExpandHomePath(r.Path))
	if err != nil {
		return "", err
	}
	msgs := ParseExport(string(raw))

	query = strings.ToLower(strings.TrimSpace(query))
	var matched []Message
	for _, m := range msgs {
		if query == "" ||
			strings.Contains(strings.ToLower(m.Sender), query) ||
			strings.Contains(strings.ToLower(m.Text), query) {
			matched = append(matched, m)
		}
	}
	if len(matched) > r.MaxResults {
		matched = matched[len(matched)-r.MaxResults:]
	}
	if len(matched) == 0 {
		return "no messages found", nil
	}

	var b strings.Builder
	for _, m := range matched {
		fmt.Fprintf(&b, "%s: %s\n", m.Sender, m.Text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
