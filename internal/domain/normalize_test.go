package domain

import (
	"encoding/json"
	"testing"
)

func TestResolveCorrectIndexEncodings(t *testing.T) {
	options := []string{"Mercury", "Venus", "Mars"}

	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"index", `2`, 2},
		{"numeric string", `"2"`, 2},
		{"option text", `"Mars"`, 2},
		{"padded numeric string", `" 2 "`, 2},
		{"case drift", `"mars"`, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveCorrectIndex(json.RawMessage(tc.raw), options)
			if err != nil {
				t.Fatalf("resolve %s: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("expected index %d, got %d", tc.want, got)
			}
		})
	}
}

func TestResolveCorrectIndexRejectsBadReferences(t *testing.T) {
	options := []string{"Yes", "No"}

	for _, raw := range []string{`5`, `"5"`, `"Maybe"`, `-1`, ``} {
		if _, err := ResolveCorrectIndex(json.RawMessage(raw), options); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestNormalizeQuestionsDefaultsAndPolicy(t *testing.T) {
	raw := []RawQuestion{
		{
			ID:            "q1",
			Question:      "What is 7 × 8?",
			Options:       []string{"54", "56", "58"},
			CorrectAnswer: json.RawMessage(`"56"`),
		},
		{
			// Too few options: dropped, must not abort the set.
			ID:            "q2",
			Question:      "Broken question",
			Options:       []string{"only one"},
			CorrectAnswer: json.RawMessage(`0`),
		},
		{
			// Unresolvable correct answer: defaults to index 0.
			ID:            "q3",
			Question:      "Pick one",
			Options:       []string{"A", "B"},
			CorrectAnswer: json.RawMessage(`"C"`),
			Timer:         20,
			Score:         3,
		},
	}

	questions := NormalizeQuestions("Math", raw, TimerDefaults{}, nil)
	if len(questions) != 2 {
		t.Fatalf("expected malformed question dropped, got %d questions", len(questions))
	}

	q1 := questions[0]
	if q1.CorrectIndex != 1 {
		t.Fatalf("expected normalized index 1, got %d", q1.CorrectIndex)
	}
	if q1.Seconds != LongFormSeconds {
		t.Fatalf("expected math default %ds, got %d", LongFormSeconds, q1.Seconds)
	}
	if q1.Points != 1 {
		t.Fatalf("expected default point value 1, got %d", q1.Points)
	}

	q3 := questions[1]
	if q3.CorrectIndex != 0 {
		t.Fatalf("expected fallback index 0, got %d", q3.CorrectIndex)
	}
	if q3.Seconds != 20 || q3.Points != 3 {
		t.Fatalf("source-provided timer/points overridden: %+v", q3)
	}
}

func TestTimerDefaultsHeuristic(t *testing.T) {
	var timers TimerDefaults

	if got := timers.ForQuestion("Sports", "Who won?"); got != StandardSeconds {
		t.Fatalf("expected standard allotment, got %d", got)
	}
	if got := timers.ForQuestion("Mathematics", "2+2?"); got != LongFormSeconds {
		t.Fatalf("expected long allotment for math, got %d", got)
	}

	longPrompt := make([]byte, 150)
	for i := range longPrompt {
		longPrompt[i] = 'a'
	}
	if got := timers.ForQuestion("Science", string(longPrompt)); got != LongFormSeconds {
		t.Fatalf("expected long allotment for long-form science, got %d", got)
	}
	if got := timers.ForQuestion("Science", "Short one?"); got != StandardSeconds {
		t.Fatalf("expected standard allotment for short science, got %d", got)
	}

	custom := TimerDefaults{Standard: 10, Long: 45}
	if got := custom.ForQuestion("math", ""); got != 45 {
		t.Fatalf("expected configured long allotment, got %d", got)
	}
	if got := custom.ForQuestion("History", ""); got != 10 {
		t.Fatalf("expected configured standard allotment, got %d", got)
	}
}
