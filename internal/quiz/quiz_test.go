package quiz

import (
	"encoding/json"
	"testing"
)

func TestResultPassedIgnoresTrailingNewline(t *testing.T) {
	r := TestCaseResult{Input: "1", ExpectedOutput: "2", ActualOutput: "2\n"}
	if !r.Passed() {
		t.Fatalf("expected pass when outputs differ only by trailing newline")
	}
	r.ActualOutput = "3"
	if r.Passed() {
		t.Fatalf("expected fail for different output")
	}
}

func TestAlignedChecksLength(t *testing.T) {
	q := Question{TestCases: []TestCase{{Input: "1", ExpectedOutput: "2"}, {Input: "2", ExpectedOutput: "4"}}}
	if !Aligned(q, nil) {
		t.Fatalf("expected empty results to be aligned")
	}
	ok := []TestCaseResult{{Input: "1", ExpectedOutput: "2"}, {Input: "2", ExpectedOutput: "4"}}
	if !Aligned(q, ok) {
		t.Fatalf("expected aligned results")
	}
	if Aligned(q, ok[:1]) {
		t.Fatalf("expected short results to be misaligned")
	}
}

func TestToggleTopicDoesNotMutateReceiver(t *testing.T) {
	s := DefaultSettings()
	off := s.ToggleTopic("Maps")
	if off.HasTopic("Maps") {
		t.Fatalf("expected Maps removed")
	}
	if !s.HasTopic("Maps") {
		t.Fatalf("original settings mutated: %#v", s.Topics)
	}
	on := off.ToggleTopic("Generics")
	if !on.HasTopic("Generics") || len(on.Topics) != 3 {
		t.Fatalf("unexpected topics %#v", on.Topics)
	}
}

func TestDifficultyNextCycles(t *testing.T) {
	if DifficultyHard.Next() != DifficultyEasy {
		t.Fatalf("expected Hard to wrap to Easy")
	}
	if Difficulty("bogus").Next() != DifficultyEasy {
		t.Fatalf("expected unknown difficulty to reset to Easy")
	}
}

func TestParseLanguage(t *testing.T) {
	for raw, want := range map[string]Language{"OCaml": LanguageOCaml, " java ": LanguageJava, "C": LanguageC} {
		got, err := ParseLanguage(raw)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %q err=%v", raw, got, err)
		}
	}
	if _, err := ParseLanguage("rust"); err == nil {
		t.Fatalf("expected error for unsupported language")
	}
}

func TestQuestionWireNames(t *testing.T) {
	body := `{"name":"Sum","text":"add","testCases":[{"input":"1 2","expectedOutput":"3"}],"hint":"h","programming_language":"ocaml"}`
	var q Question
	if err := json.Unmarshal([]byte(body), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.ID != nil || q.Language != LanguageOCaml || len(q.TestCases) != 1 || q.TestCases[0].ExpectedOutput != "3" {
		t.Fatalf("unexpected question %#v", q)
	}
}
