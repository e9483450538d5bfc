package quiz

import (
	"fmt"
	"strings"
)

type Language string

const (
	LanguageOCaml Language = "ocaml"
	LanguageJava  Language = "java"
	LanguageC     Language = "c"
)

var Languages = []Language{LanguageOCaml, LanguageJava, LanguageC}

func (l Language) Label() string {
	switch l {
	case LanguageOCaml:
		return "OCaml"
	case LanguageJava:
		return "Java"
	case LanguageC:
		return "C"
	default:
		return string(l)
	}
}

func (l Language) Valid() bool {
	switch l {
	case LanguageOCaml, LanguageJava, LanguageC:
		return true
	}
	return false
}

func ParseLanguage(raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ocaml", "ml":
		return LanguageOCaml, nil
	case "java":
		return LanguageJava, nil
	case "c":
		return LanguageC, nil
	default:
		return "", fmt.Errorf("unknown programming language %q", raw)
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Next cycles Easy -> Medium -> Hard -> Easy.
func (d Difficulty) Next() Difficulty {
	for i, v := range Difficulties {
		if v == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return DifficultyEasy
}

type QuestionSettings struct {
	Difficulty Difficulty `json:"difficulty"`
	Topics     []string   `json:"topics"`
	Language   Language   `json:"programming_language"`
}

func DefaultSettings() QuestionSettings {
	return QuestionSettings{
		Difficulty: DifficultyEasy,
		Topics:     []string{"Lists", "Maps", "Sets"},
		Language:   LanguageJava,
	}
}

func (s QuestionSettings) Validate() error {
	if !s.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %q", s.Difficulty)
	}
	if !s.Language.Valid() {
		return fmt.Errorf("invalid programming language %q", s.Language)
	}
	return nil
}

func (s QuestionSettings) HasTopic(topic string) bool {
	for _, t := range s.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// ToggleTopic returns a copy with topic added if absent or removed if present.
func (s QuestionSettings) ToggleTopic(topic string) QuestionSettings {
	out := s.Clone()
	if s.HasTopic(topic) {
		out.Topics = out.Topics[:0]
		for _, t := range s.Topics {
			if t != topic {
				out.Topics = append(out.Topics, t)
			}
		}
		return out
	}
	out.Topics = append(out.Topics, topic)
	return out
}

func (s QuestionSettings) Clone() QuestionSettings {
	s.Topics = append([]string(nil), s.Topics...)
	return s
}
