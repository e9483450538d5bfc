package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"codequiz/internal/quiz"

	"gopkg.in/yaml.v3"
)

const (
	Kind                   = "catalog"
	SupportedSchemaVersion = 1
)

//go:embed catalog.yaml
var builtin []byte

type Catalog struct {
	Kind          string          `yaml:"kind"`
	SchemaVersion int             `yaml:"schema_version"`
	Languages     []LanguageEntry `yaml:"languages"`
}

type LanguageEntry struct {
	ID       quiz.Language `yaml:"id"`
	Label    string        `yaml:"label"`
	Defaults Defaults      `yaml:"defaults"`
	Topics   []string      `yaml:"topics"`
}

type Defaults struct {
	Difficulty quiz.Difficulty `yaml:"difficulty"`
	Topics     []string        `yaml:"topics"`
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Load reads a catalog override from disk. An empty path yields the builtin.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Catalog) {
	if c.Kind == "" {
		c.Kind = Kind
	}
	if c.SchemaVersion == 0 {
		c.SchemaVersion = SupportedSchemaVersion
	}
	for i := range c.Languages {
		l := &c.Languages[i]
		if l.Label == "" {
			l.Label = l.ID.Label()
		}
		if l.Defaults.Difficulty == "" {
			l.Defaults.Difficulty = quiz.DifficultyEasy
		}
	}
}

func (c *Catalog) Validate() error {
	if c.Kind != Kind {
		return fmt.Errorf("kind must be %q", Kind)
	}
	if c.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", c.SchemaVersion)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("catalog has no languages")
	}
	seen := map[quiz.Language]bool{}
	for _, l := range c.Languages {
		if !l.ID.Valid() {
			return fmt.Errorf("unsupported language %q", l.ID)
		}
		if seen[l.ID] {
			return fmt.Errorf("duplicate language %q", l.ID)
		}
		seen[l.ID] = true
		if !l.Defaults.Difficulty.Valid() {
			return fmt.Errorf("%s: invalid default difficulty %q", l.ID, l.Defaults.Difficulty)
		}
		known := map[string]bool{}
		for _, t := range l.Topics {
			known[t] = true
		}
		for _, t := range l.Defaults.Topics {
			if !known[t] {
				return fmt.Errorf("%s: default topic %q is not in the topic list", l.ID, t)
			}
		}
	}
	return nil
}

func (c *Catalog) Lookup(lang quiz.Language) (LanguageEntry, bool) {
	for _, l := range c.Languages {
		if l.ID == lang {
			return l, true
		}
	}
	return LanguageEntry{}, false
}

func (c *Catalog) Topics(lang quiz.Language) []string {
	l, ok := c.Lookup(lang)
	if !ok {
		return nil
	}
	return append([]string(nil), l.Topics...)
}

// DefaultSettings is what a fresh account gets for lang.
func (c *Catalog) DefaultSettings(lang quiz.Language) quiz.QuestionSettings {
	l, ok := c.Lookup(lang)
	if !ok {
		return quiz.QuestionSettings{Difficulty: quiz.DifficultyEasy, Language: lang}
	}
	return quiz.QuestionSettings{
		Difficulty: l.Defaults.Difficulty,
		Topics:     append([]string(nil), l.Defaults.Topics...),
		Language:   lang,
	}
}

func (c *Catalog) LanguageIDs() []quiz.Language {
	out := make([]quiz.Language, 0, len(c.Languages))
	for _, l := range c.Languages {
		out = append(out, l.ID)
	}
	return out
}
