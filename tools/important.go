package tools

import (
	"strings"
)

var urgentKeywords = []string{
	"urgent", "emergency", "asap", "immediately", "critical",
	"important", "call me", "call now", "need help", "help me",
	"accident", "hospital", "police", "danger",
	"deadline", "overdue", "missed",
	"meeting now", "join now", "starting now",
}

var spamKeywords = []string{
	"winner", "congratulations", "you won", "prize", "lottery",
	"free", "click here", "limited time", "act now",
	"claim now", "cash prize", "inheritance",
	"make money fast", "work from home", "double your", "guaranteed",
}

// ImportanceResult explains why a message was flagged.
type ImportanceResult struct {
	Important bool
	Score     float64
	Reasons   []string
}

// ScoreImportance is the keyword scorer behind the message poll loop.
// Spam heavily discounts; urgent keywords and questions raise the
// score. The 0.5 threshold matches the original tuning.
func ScoreImportance(sender, text string) ImportanceResult {
	content := strings.ToLower(strings.TrimSpace(text))
	if content == "" {
		return ImportanceResult{}
	}

	spamHits := 0
	for _, kw := range spamKeywords {
		if strings.Contains(content, kw) {
			spamHits++
		}
	}
	if float64(spamHits)/5.0 > 0.7 {
		return ImportanceResult{Score: 0, Reasons: []string{"spam"}}
	}

	var score float64
	var reasons []string

	var matches int
	for _, kw := range urgentKeywords {
		if strings.Contains(content, kw) {
			matches++
			reasons = append(reasons, "keyword: "+kw)
		}
	}
	if matches > 0 {
		score += min(0.4, float64(matches)*0.15)
	}

	if strings.Contains(content, "?") {
		score += 0.2
		reasons = append(reasons, "question")
	}
	if strings.TrimSpace(sender) != "" {
		score += 0.1
	}
	if spamHits > 0 {
		score -= 0.2
	}

	return ImportanceResult{
		Important: score >= 0.5,
		Score:     max(0, min(1, score)),
		Reasons:   reasons,
	}
}
