package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHomePath resolves a leading "~" or "~/" against the current
// user's home directory and cleans the result. Paths without a tilde
// prefix are only cleaned.
func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p)
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Clean(p)
	}
	rest, _ := strings.CutPrefix(p, "~")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return filepath.Clean(home)
	}
	return filepath.Join(home, rest)
}
