package brain

import (
	"regexp"
	"strings"
)

// Redactor strips confidential fields from text before it reaches the
// brain. Redaction happens at prompt construction, not at output: the
// generation backend must never receive the owner's PIN, OTPs or
// financial identifiers in the first place.
type Redactor struct {
	patterns []namedRe
}

type namedRe struct {
	name string
	re   *regexp.Regexp
}

// Built-in high-signal patterns for financial and credential data.
var builtinPatterns = []namedRe{
	{"card_number", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
	{"cvv", regexp.MustCompile(`(?i)\bcvv[:\s]*\d{3,4}\b`)},
	{"otp_pin", regexp.MustCompile(`(?i)\b(?:otp|pin)[:\s]*\d{4,6}\b`)},
	{"ifsc", regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)},
	{"upi_id", regexp.MustCompile(`\b[\w.-]+@(?:ok[a-z]+|ybl|ibl|axl|apl|paytm|upi)\b`)},
	{"account_number", regexp.MustCompile(`\b\d{9,18}\b`)},
	{"secret_kv", regexp.MustCompile(`(?i)\b(password|secret|token|pin)(\s*[:=]\s*)\S+`)},
}

func NewRedactor(extra ...string) *Redactor {
	r := &Redactor{patterns: append([]namedRe(nil), builtinPatterns...)}
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, namedRe{name: "custom", re: re})
	}
	return r
}

// RedactString replaces every confidential match with a tag. The
// second return reports whether anything was removed.
func (r *Redactor) RedactString(s string) (string, bool) {
	if r == nil || strings.TrimSpace(s) == "" {
		return s, false
	}
	orig := s
	for _, p := range r.patterns {
		switch p.name {
		case "secret_kv":
			s = p.re.ReplaceAllString(s, "$1$2[redacted]")
		default:
			s = p.re.ReplaceAllString(s, "[redacted_"+p.name+"]")
		}
	}
	return s, s != orig
}
