package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/closedclaw/warden/internal/pathutil"
)

// SMSReader reads a plain-text SMS dump, one message per line in the
// form "sender: body". Sync from the device is external.
type SMSReader struct {
	Path       string
	MaxResults int
}

func NewSMSReader(path string, maxResults int) *SMSReader {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &SMSReader{Path: path, MaxResults: maxResults}
}

func (r *SMSReader) Name() string { return "read_sms" }

func (r *SMSReader) Read(ctx context.Context, query string) (string, error) {
	_ = ctx
	path := pathutil.ExpandHomePath(strings.TrimSpace(r.Path))
	if path == "" {
		return "", fmt.Errorf("sms dump path not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sms dump: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var matched []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(line), query) {
			continue
		}
		matched = append(matched, line)
	}
	if len(matched) > r.MaxResults {
		matched = matched[len(matched)-r.MaxResults:]
	}
	if len(matched) == 0 {
		return "No messages found.", nil
	}
	return strings.Join(matched, "\n"), nil
}
