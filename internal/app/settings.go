package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"devcross/internal/state"
)

// Stored UI preferences. They sit between the built-in defaults and any
// DEVCROSS_* variable or flag.
const (
	settingStyle  = "ui.style"
	settingMotion = "ui.motion"
	settingMouse  = "ui.mouse"
)

func SettingKeys() []string {
	return []string{settingMotion, settingMouse, settingStyle}
}

// applySettings fills UI fields that still hold their default value.
func applySettings(cfg *Config, values map[string]string) {
	def := DefaultConfig().UI
	if v, ok := values[settingStyle]; ok && (cfg.UI.StyleVariant == "" || cfg.UI.StyleVariant == def.StyleVariant) {
		cfg.UI.StyleVariant = v
	}
	if v, ok := values[settingMotion]; ok && (cfg.UI.MotionLevel == "" || cfg.UI.MotionLevel == def.MotionLevel) {
		cfg.UI.MotionLevel = v
	}
	if v, ok := values[settingMouse]; ok && (cfg.UI.MouseScope == "" || cfg.UI.MouseScope == def.MouseScope) {
		cfg.UI.MouseScope = v
	}
}

func openStore(ctx context.Context, cfg Config) (*state.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// SaveSetting validates and stores one UI preference.
func SaveSetting(ctx context.Context, cfg Config, key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	probe := DefaultConfig()
	probe.DataDir = cfg.DataDir
	probe.Player = "probe"
	switch key {
	case settingStyle:
		probe.UI.StyleVariant = value
	case settingMotion:
		probe.UI.MotionLevel = value
	case settingMouse:
		probe.UI.MouseScope = value
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	if value == "" {
		return fmt.Errorf("setting %s needs a value", key)
	}
	if err := probe.Validate(); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveSettings(ctx, map[string]string{key: value})
}

type Setting struct {
	Key   string
	Value string
}

func LoadSettings(ctx context.Context, cfg Config) ([]Setting, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	values, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Setting, 0, len(values))
	for k, v := range values {
		out = append(out, Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Stats reports lifetime totals and the most recent run, if any.
type Stats struct {
	Summary state.Summary
	LastRun *state.LastRun
}

func LoadStats(ctx context.Context, cfg Config) (Stats, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return Stats{}, err
	}
	defer store.Close()
	summary, err := store.GetSummary(ctx)
	if err != nil {
		return Stats{}, err
	}
	last, err := store.GetLastRun(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Summary: summary, LastRun: last}, nil
}

func LoadLeaderboard(ctx context.Context, cfg Config, limit int) ([]state.LeaderboardRow, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Leaderboard(ctx, limit)
}
