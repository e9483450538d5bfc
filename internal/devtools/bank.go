package devtools

import (
	_ "embed"
	"fmt"
	"strings"

	"codequiz/internal/quiz"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var builtinBank []byte

type bankFile struct {
	Kind          string                        `yaml:"kind"`
	SchemaVersion int                           `yaml:"schema_version"`
	Questions     map[quiz.Language][]bankEntry `yaml:"questions"`
}

type bankEntry struct {
	Name      string `yaml:"name"`
	Text      string `yaml:"text"`
	Hint      string `yaml:"hint"`
	TestCases []struct {
		Input          string `yaml:"input"`
		ExpectedOutput string `yaml:"expected_output"`
	} `yaml:"test_cases"`
}

// YAMLBank serves questions round-robin per language.
type YAMLBank struct {
	questions map[quiz.Language][]quiz.Question
}

func LoadBank(b []byte) (*YAMLBank, error) {
	if len(b) == 0 {
		b = builtinBank
	}
	var f bankFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if f.Kind != "question_bank" {
		return nil, fmt.Errorf("question bank kind must be question_bank, got %q", f.Kind)
	}
	if f.SchemaVersion != 1 {
		return nil, fmt.Errorf("unsupported question bank schema_version %d", f.SchemaVersion)
	}
	bank := &YAMLBank{questions: map[quiz.Language][]quiz.Question{}}
	id := 1
	for lang := range f.Questions {
		if !lang.Valid() {
			return nil, fmt.Errorf("question bank: unknown language %q", lang)
		}
	}
	for _, lang := range quiz.Languages {
		for _, e := range f.Questions[lang] {
			if strings.TrimSpace(e.Name) == "" || len(e.TestCases) == 0 {
				return nil, fmt.Errorf("question bank: %s entry needs a name and test cases", lang)
			}
			q := quiz.Question{
				Name:     e.Name,
				Text:     strings.TrimSpace(e.Text),
				Hint:     e.Hint,
				Language: lang,
			}
			for _, tc := range e.TestCases {
				q.TestCases = append(q.TestCases, quiz.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
			}
			qid := id
			q.ID = &qid
			id++
			bank.questions[lang] = append(bank.questions[lang], q)
		}
	}
	return bank, nil
}

func (b *YAMLBank) Next(lang quiz.Language, n int) (quiz.Question, bool) {
	list := b.questions[lang]
	if len(list) == 0 {
		return quiz.Question{}, false
	}
	q := list[n%len(list)]
	q.TestCases = append([]quiz.TestCase(nil), q.TestCases...)
	return q, true
}
