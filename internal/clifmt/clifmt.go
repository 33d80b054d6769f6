package clifmt

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// colorEnabled is resolved once; the daemon never reattaches its stdout.
var colorEnabled = sync.OnceValue(func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
})

func Headerf(format string, args ...any) string {
	return wrap("1;36", fmt.Sprintf(format, args...))
}

func Success(text string) string { return wrap("32", text) }

func Warn(text string) string { return wrap("33", text) }

func Dim(text string) string { return wrap("2", text) }

func wrap(code, text string) string {
	if !colorEnabled() {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}
