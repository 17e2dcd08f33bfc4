package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "DEVCROSS_"

// Config controls runtime behavior for the TUI app.
type Config struct {
	DataDir      string `env:"DATA_DIR"`
	CacheDir     string `env:"CACHE_DIR"`
	LogPath      string `env:"LOG_PATH"`
	LogLevel     string `env:"LOG_LEVEL"`
	PuzzleDir    string `env:"PUZZLE_DIR"`
	Player       string `env:"PLAYER"`
	ASCIIOnly    bool   `env:"ASCII"`
	DebugLayout  bool   `env:"DEBUG_LAYOUT"`
	Frontend     string `env:"FRONTEND"`
	DemoScenario string `env:"DEMO"`
	DevState     bool   `env:"DEV_STATE"`

	// PuzzleFile and Target pick the puzzle to open at startup. They come
	// from command arguments only.
	PuzzleFile string
	Target     string

	Gameplay GameplayConfig `envPrefix:"GAMEPLAY_"`
	UI       UIConfig       `envPrefix:"UI_"`
}

type GameplayConfig struct {
	// Zero keeps the puzzle's own scoring values.
	TimeGraceSeconds int `env:"TIME_GRACE_SECONDS"`
	PointsPerLetter  int `env:"POINTS_PER_LETTER"`
}

type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
	MouseScope   string `env:"MOUSE"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		PuzzleDir: "puzzles",
		Frontend:  FrontendTea,
		UI: UIConfig{
			StyleVariant: "modern_arcade",
			MotionLevel:  "full",
			MouseScope:   "scoped",
		},
	}
}

// LoadEnv overlays DEVCROSS_* environment variables onto cfg. Unset
// variables leave the current values alone.
func LoadEnv(cfg *Config) error {
	return loadEnvFrom(cfg, nil)
}

func loadEnvFrom(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("read %s environment: %w", envPrefix, err)
	}
	return nil
}

func (c *Config) Validate() error {
	frontend := normalizeFrontend(c.Frontend)
	if frontend == "" {
		return fmt.Errorf("invalid frontend %q", c.Frontend)
	}
	c.Frontend = frontend
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Gameplay.TimeGraceSeconds < 0 {
		return fmt.Errorf("invalid time grace %d", c.Gameplay.TimeGraceSeconds)
	}
	if c.Gameplay.PointsPerLetter < 0 {
		return fmt.Errorf("invalid points per letter %d", c.Gameplay.PointsPerLetter)
	}
	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	switch c.UI.MouseScope {
	case "", "off", "scoped", "full":
	default:
		return fmt.Errorf("invalid ui mouse scope %q", c.UI.MouseScope)
	}
	if c.UI.MouseScope == "" {
		c.UI.MouseScope = "scoped"
	}
	if c.PuzzleFile != "" && c.Target != "" {
		return errors.New("open either a puzzle file or a pack/puzzle, not both")
	}
	if c.Target != "" {
		if _, _, err := splitTarget(c.Target); err != nil {
			return err
		}
	}
	if c.PuzzleDir == "" {
		c.PuzzleDir = "puzzles"
	}
	if strings.TrimSpace(c.Player) == "" {
		c.Player = defaultPlayer()
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "devcross")
	}
	if c.CacheDir == "" {
		c.CacheDir = c.DataDir
	}

	return nil
}

// splitTarget parses "pack/puzzle".
func splitTarget(target string) (string, string, error) {
	packID, puzzleID, ok := strings.Cut(strings.TrimSpace(target), "/")
	if !ok || packID == "" || puzzleID == "" || strings.Contains(puzzleID, "/") {
		return "", "", fmt.Errorf("invalid puzzle %q: want pack/puzzle", target)
	}
	return packID, puzzleID, nil
}

func defaultPlayer() string {
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return "player"
}
