package tools

import "testing"

func TestScoreImportance(t *testing.T) {
	cases := []struct {
		name   string
		sender string
		text   string
		want   bool
	}{
		{"urgent with sender", "Mom", "urgent, call me asap when you see this", true},
		{"emergency question", "Ravi", "emergency at the hospital, can you come?", true},
		{"casual chat", "Alex", "we had lunch at the new place", false},
		{"question alone", "Sam", "are you coming tonight?", false},
		{"empty", "", "", false},
		{"spam burst", "", "congratulations winner! claim now your cash prize, click here for free lottery", false},
		{"urgent despite one spam word", "Boss", "urgent deadline today, free to talk now? call me", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ScoreImportance(c.sender, c.text)
			if got.Important != c.want {
				t.Fatalf("ScoreImportance(%q, %q) = %v (score %.2f, reasons %v), expected %v",
					c.sender, c.text, got.Important, got.Score, got.Reasons, c.want)
			}
		})
	}
}

func TestScoreImportanceSpamZero(t *testing.T) {
	got := ScoreImportance("", "congratulations you won the lottery prize, claim now")
	if got.Score != 0 {
		t.Fatalf("expected spam score 0, got %.2f", got.Score)
	}
	if got.Important {
		t.Fatal("spam must never be important")
	}
}

func TestScoreImportanceClamped(t *testing.T) {
	got := ScoreImportance("Mom", "urgent emergency asap critical important, call me now, need help, accident?")
	if got.Score < 0 || got.Score > 1 {
		t.Fatalf("score out of range: %.2f", got.Score)
	}
	if !got.Important {
		t.Fatal("expected important")
	}
}
