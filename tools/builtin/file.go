package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/closedclaw/warden/internal/pathutil"
)

// defaultDenyPatterns are banking and financial file patterns refused
// regardless of configuration. Matched case-insensitively against the
// full path.
var defaultDenyPatterns = []string{
	"statement",
	"transaction",
	"passbook",
	"account_details",
	"card_details",
	".bank",
	".upi",
	".wallet",
	"phonepe",
	"gpay",
	"paytm",
	"bhim",
}

// FileReader reads local text files for the read/edit flows. Symlinks
// are refused, every path is resolved before the deny check so a link
// cannot launder a deny-listed target, and when AllowedDirs is set
// reads outside those directories are rejected.
type FileReader struct {
	MaxBytes    int64
	DenyPaths   []string
	AllowedDirs []string
}

func NewFileReader(maxBytes int64, denyPaths, allowedDirs []string) *FileReader {
	if maxBytes <= 0 {
		maxBytes = 256 * 1024
	}
	return &FileReader{MaxBytes: maxBytes, DenyPaths: denyPaths, AllowedDirs: allowedDirs}
}

func (r *FileReader) Name() string { return "read_file" }

func (r *FileReader) Read(ctx context.Context, query string) (string, error) {
	_ = ctx
	path := strings.TrimSpace(query)
	if path == "" {
		return "", fmt.Errorf("missing file path")
	}
	if containsDotDot(path) {
		return "", fmt.Errorf("path traversal not allowed: %s", path)
	}
	cleaned := filepath.Clean(pathutil.ExpandHomePath(path))

	fi, err := os.Lstat(cleaned)
	if err != nil {
		return "", err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("read denied: refusing symlink %q", path)
	}

	// Resolve the rest of the path too; a symlinked parent directory
	// must not launder the real location past the checks below.
	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return "", err
	}

	for _, candidate := range []string{cleaned, resolved} {
		if matched, denied := r.deniedBy(candidate); denied {
			return "", fmt.Errorf("read denied for path %q (matched %q)", path, matched)
		}
	}

	if len(r.AllowedDirs) > 0 {
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return "", fmt.Errorf("invalid path: %w", err)
		}
		if !withinAnyDir(abs, r.AllowedDirs) {
			return "", fmt.Errorf("read denied: path %q is outside the allowed directories", path)
		}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	if int64(len(data)) > r.MaxBytes {
		data = data[:r.MaxBytes]
	}
	return string(data), nil
}

// deniedBy checks the configured deny list (exact path, path suffix or
// basename) and the built-in financial patterns.
func (r *FileReader) deniedBy(path string) (string, bool) {
	p := filepath.ToSlash(path)
	base := filepath.Base(p)

	for _, d := range r.DenyPaths {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		dc := filepath.ToSlash(filepath.Clean(d))
		if !strings.Contains(dc, "/") {
			if base == dc {
				return d, true
			}
			continue
		}
		if p == dc || strings.HasSuffix(p, "/"+dc) || base == filepath.Base(dc) {
			return d, true
		}
	}

	lower := strings.ToLower(p)
	for _, pat := range defaultDenyPatterns {
		if strings.Contains(lower, pat) {
			return pat, true
		}
	}
	return "", false
}

// containsDotDot checks the raw path component-wise; filepath.Clean
// resolves ".." in absolute paths, which would hide the traversal.
func containsDotDot(rawPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rawPath), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func withinAnyDir(absPath string, dirs []string) bool {
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		dirAbs, err := filepath.Abs(pathutil.ExpandHomePath(dir))
		if err != nil {
			continue
		}
		if real, err := filepath.EvalSymlinks(dirAbs); err == nil {
			dirAbs = real
		}
		rel, err := filepath.Rel(dirAbs, absPath)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, "../") {
			return true
		}
	}
	return false
}
