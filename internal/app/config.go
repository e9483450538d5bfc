package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "CODEQUIZ_"

// Config controls runtime behavior for the TUI app.
type Config struct {
	APIBaseURL     string        `env:"API_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	DataDir        string        `env:"DATA_DIR"`
	LogPath        string        `env:"LOG"`
	CatalogPath    string        `env:"CATALOG"`
	DebugLayout    bool          `env:"DEBUG_LAYOUT"`
	ASCIIOnly      bool          `env:"ASCII"`

	// Ephemeral keeps the session token in memory only.
	Ephemeral   bool   `env:"EPHEMERAL"`
	MockBackend bool   `env:"MOCK_BACKEND"`
	IDToken     string `env:"ID_TOKEN"`

	Google GoogleConfig `envPrefix:"GOOGLE_"`
	UI     UIConfig     `envPrefix:"UI_"`
}

type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 60 * time.Second,
		UI: UIConfig{
			StyleVariant: "midnight",
			MotionLevel:  "full",
		},
	}
}

// LoadConfig layers an optional dotenv file and CODEQUIZ_* variables over
// the defaults. Variables already set in the environment win over the file.
func LoadConfig(dotenvPath string) (Config, error) {
	cfg := DefaultConfig()
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" && !c.MockBackend {
		return errors.New("api base url is required")
	}
	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request timeout %s", c.RequestTimeout)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	switch c.UI.StyleVariant {
	case "", "midnight", "paper", "terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "midnight"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	c.IDToken = strings.TrimSpace(c.IDToken)

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "codequiz")
	}

	return nil
}

// TokenPath is where the persistent token store lives.
func (c Config) TokenPath() string {
	return filepath.Join(c.DataDir, "state.db")
}
