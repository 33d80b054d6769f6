package brain

import (
	"regexp"
	"strings"
)

// callerSystemPrompt constrains the on-call persona. The prompt never
// includes the owner's name, schedule or any credential material; the
// redactor enforces that at the boundary.
const callerSystemPrompt = `You are a helpful phone assistant answering on behalf of someone who is unavailable.
Rules:
- Be concise (max 2 sentences).
- Be polite and professional.
- Do NOT share any personal, location, or schedule information.
- Do NOT share passwords, financial info, or private details.
- If unsure, ask the caller to leave a message or call back later.
- Respond in the same language as the caller.`

// confidentialRequests matches caller utterances probing for private
// information. These never reach the brain at all.
var confidentialRequests = []*regexp.Regexp{
	regexp.MustCompile(`(?i)where (are you|do you live)`),
	regexp.MustCompile(`(?i)your (location|address|schedule|plans)`),
	regexp.MustCompile(`(?i)are you (home|at)`),
	regexp.MustCompile(`(?i)\b(password|otp|pin|bank|account|credit card|debit card|aadhar|pan)\b`),
	regexp.MustCompile(`(?i)\b(personal|private)\b`),
}

const blockedReply = "I'm sorry, I cannot discuss personal or confidential matters over the phone."

// IsConfidentialRequest reports whether the caller is asking for
// information the assistant must never discuss, with a safe reply.
func IsConfidentialRequest(text string) (bool, string) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false, ""
	}
	for _, re := range confidentialRequests {
		if re.MatchString(t) {
			return true, blockedReply
		}
	}
	return false, ""
}

// BuildCallerRequest assembles the generation request for one caller
// turn. Caller text passes through the redactor first so the backend
// never sees confidential fields.
func BuildCallerRequest(model string, red *Redactor, transcript []string, callerText string) Request {
	clean, _ := red.RedactString(callerText)

	var b strings.Builder
	if len(transcript) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, line := range transcript {
			safe, _ := red.RedactString(line)
			b.WriteString(safe)
			b.WriteByte('\n')
		}
		b.WriteString("\n")
	}
	b.WriteString("Caller says: ")
	b.WriteString(clean)

	return Request{
		Model:       model,
		System:      callerSystemPrompt,
		Prompt:      b.String(),
		MaxTokens:   100,
		Temperature: 0.7,
	}
}
