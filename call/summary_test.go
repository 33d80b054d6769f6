package call

import (
	"strings"
	"testing"
)

func turnsOf(texts ...string) []Turn {
	turns := make([]Turn, 0, len(texts))
	for _, text := range texts {
		turns = append(turns, Turn{Speaker: "caller", Text: text})
	}
	return turns
}

func TestExtractActionItems(t *testing.T) {
	cases := []struct {
		name string
		in   []Turn
		want []string
	}{
		{
			name: "call back",
			in:   turnsOf("please ask her to call me back when free"),
			want: []string{"Call back"},
		},
		{
			name: "urgent follow up",
			in:   turnsOf("this is urgent, the server is down"),
			want: []string{"Follow up (marked urgent)"},
		},
		{
			name: "several rules",
			in:   turnsOf("tell him to call back", "I also sent an email, it's important"),
			want: []string{"Call back", "Follow up (marked urgent)", "Check for email"},
		},
		{
			name: "no matches",
			in:   turnsOf("just saying hello"),
			want: nil,
		},
		{
			name: "deduplicated",
			in:   turnsOf("call back please", "yes, call back"),
			want: []string{"Call back"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractActionItems(c.in)
			if len(got) != len(c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
			for _, w := range c.want {
				var found bool
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Fatalf("missing %q in %v", w, got)
				}
			}
		})
	}
}

func TestExtractActionItemsWindow(t *testing.T) {
	// An early mention outside the final-turns window is ignored.
	turns := turnsOf(
		"please call back",
		"filler one", "filler two", "filler three",
		"filler four", "filler five", "filler six",
	)
	got := ExtractActionItems(turns)
	for _, item := range got {
		if item == "Call back" {
			t.Fatalf("turn outside the window must be ignored, got %v", got)
		}
	}
}

func TestTranscriptText(t *testing.T) {
	s := Summary{Transcript: []Turn{
		{Speaker: "assistant", Text: "hello"},
		{Speaker: "caller", Text: "hi"},
	}}
	text := s.TranscriptText()
	if !strings.Contains(text, "assistant: hello") || !strings.Contains(text, "caller: hi") {
		t.Fatalf("unexpected transcript text %q", text)
	}
}

func TestStateString(t *testing.T) {
	states := []State{StateIdle, StateRinging, StateUserAnswered, StateAutoPickupPending, StateInConversation, StateSummarizing, StateCompleted, StateRejected}
	seen := make(map[string]struct{})
	for _, st := range states {
		s := st.String()
		if s == "" || strings.HasPrefix(s, "state(") {
			t.Fatalf("missing name for state %d", int32(st))
		}
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate state name %q", s)
		}
		seen[s] = struct{}{}
	}
}
