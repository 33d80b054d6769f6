package builtin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileReaderReadsAndCaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("a", 100)), 0o600); err != nil {
		t.Fatal(err)
	}
	r := NewFileReader(10, nil, nil)

	out, err := r.Read(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 10 {
		t.Fatalf("expected truncation to 10 bytes, got %d", len(out))
	}
}

func TestFileReaderDenyPath(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "wallet.dat")
	if err := os.WriteFile(secret, []byte("keys"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewFileReader(0, []string{secret}, nil)
	if _, err := r.Read(context.Background(), secret); err == nil {
		t.Fatal("expected deny for exact path")
	}

	byBase := NewFileReader(0, []string{"wallet.dat"}, nil)
	if _, err := byBase.Read(context.Background(), secret); err == nil {
		t.Fatal("expected deny by base name")
	}
}

func TestFileReaderRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(secret, []byte(`{"upi_pin":"4321"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "notes.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Fatal(err)
	}

	r := NewFileReader(0, []string{"credentials.json"}, nil)
	out, err := r.Read(context.Background(), link)
	if err == nil {
		t.Fatalf("deny-listed file read via symlink: %q", out)
	}
	if !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("expected symlink refusal, got %v", err)
	}
	if _, err := r.Read(context.Background(), secret); err == nil {
		t.Fatal("expected deny for the real path")
	}
}

func TestFileReaderDefaultFinancialPatterns(t *testing.T) {
	dir := t.TempDir()
	r := NewFileReader(0, nil, nil)

	for _, name := range []string{"statement_july.txt", "passbook.txt", "savings.upi"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("balance"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Read(context.Background(), path); err == nil {
			t.Fatalf("expected built-in deny for %s", name)
		}
	}
}

func TestFileReaderAllowedDirs(t *testing.T) {
	inside := t.TempDir()
	outside := t.TempDir()
	ok := filepath.Join(inside, "note.txt")
	if err := os.WriteFile(ok, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(outside, "note.txt")
	if err := os.WriteFile(bad, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewFileReader(0, nil, []string{inside})
	if out, err := r.Read(context.Background(), ok); err != nil || out != "hello" {
		t.Fatalf("expected read inside scope, got %q / %v", out, err)
	}
	if _, err := r.Read(context.Background(), bad); err == nil {
		t.Fatal("expected deny outside allowed directories")
	}
}

func TestFileReaderRejectsTraversal(t *testing.T) {
	r := NewFileReader(0, nil, nil)
	if _, err := r.Read(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected traversal rejection")
	}
}

func TestFileReaderMissingPath(t *testing.T) {
	r := NewFileReader(0, nil, nil)
	if _, err := r.Read(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSMSReaderFilterAndCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sms.txt")
	content := "+15550100: your package arrives today\nMom: dinner on sunday?\nBank: do not share your otp\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	r := NewSMSReader(path, 20)

	out, err := r.Read(context.Background(), "mom")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "dinner on sunday?") || strings.Contains(out, "package") {
		t.Fatalf("query filter broken:\n%s", out)
	}

	all, err := r.Read(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Split(all, "\n")); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}

	none, err := r.Read(context.Background(), "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if none != "No messages found." {
		t.Fatalf("unexpected empty result %q", none)
	}
}
