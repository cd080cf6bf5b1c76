package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chess10kp/quickpanel/internal/hotkey"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Panel.ToggleHotkey != hotkey.MustChord("Alt+Meta+KeyK") {
		t.Errorf("toggle = %s", cfg.Panel.ToggleHotkey)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppName != "quickpanel" || cfg.Panel.Width != 750 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if strings.HasPrefix(cfg.Launch.HistoryDB, "~") {
		t.Errorf("history path not expanded: %s", cfg.Launch.HistoryDB)
	}
	if strings.HasPrefix(cfg.Panel.CustomCSS, "~") {
		t.Errorf("custom css path not expanded: %s", cfg.Panel.CustomCSS)
	}
}

func TestPathsDeriveFromDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := "cache_dir = \"" + filepath.Join(dir, "cache") + "\"\n" +
		"data_dir = \"" + filepath.Join(dir, "data") + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"cache_file", cfg.Catalog.CacheFile, filepath.Join(dir, "cache", "apps.json")},
		{"log_file", cfg.LogFile, filepath.Join(dir, "cache", "quickpanel.log")},
		{"history_db", cfg.Launch.HistoryDB, filepath.Join(dir, "data", "history.db")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestExplicitPathsWinOverDirs(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = "/var/cache/qp"
	cfg.Launch.HistoryDB = "/srv/qp/history.db"
	cfg.ExpandPaths()

	if cfg.Launch.HistoryDB != "/srv/qp/history.db" {
		t.Errorf("history_db = %q", cfg.Launch.HistoryDB)
	}
	if cfg.Catalog.CacheFile != "/var/cache/qp/apps.json" {
		t.Errorf("cache_file = %q", cfg.Catalog.CacheFile)
	}
}

const sampleConfig = `
socket_path = "/tmp/qp_test_socket"

[panel]
width = 900
toggle_hotkey = "Meta+Space"
hide_on_focus_loss = false

[hotkeys]
backend = "sway"

[[targets]]
id = "t1"
name = "Notes"
variant = "App"
aliases = ["n"]
hotkeys = ["Control+Alt+Meta+KeyN"]
path = "/System/Applications/Notes.app"

[[targets]]
name = "Go docs"
variant = "Url"
hotkeys = ["Ctrl+Alt+G"]
path = "https://go.dev/doc"
`

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAndValidateConfig(path)
	if err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}

	if cfg.Panel.Width != 900 || cfg.Panel.Height != 500 {
		t.Errorf("panel size = %dx%d", cfg.Panel.Width, cfg.Panel.Height)
	}
	if cfg.Panel.HideOnFocusLoss {
		t.Error("hide_on_focus_loss should be false")
	}
	if cfg.Panel.ToggleHotkey != hotkey.MustChord("Meta+Space") {
		t.Errorf("toggle = %s", cfg.Panel.ToggleHotkey)
	}
	if cfg.Hotkeys.ClientCommand != "quickpanelctl chord" {
		t.Errorf("client_command default lost: %q", cfg.Hotkeys.ClientCommand)
	}

	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(cfg.Targets))
	}
	notes := cfg.Targets[0]
	if notes.Variant != launcher.VariantApp || notes.Hotkeys[0] != hotkey.MustChord("Control+Alt+Meta+KeyN") {
		t.Errorf("unexpected target %+v", notes)
	}
	if cfg.Targets[1].Variant != launcher.VariantURL || cfg.Targets[1].Hotkeys[0] != hotkey.MustChord("Control+Alt+KeyG") {
		t.Errorf("unexpected target %+v", cfg.Targets[1])
	}
	if err := cfg.CheckTargets(); err != nil {
		t.Errorf("CheckTargets: %v", err)
	}
}

func TestLoadConfigRejectsBadChord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[panel]\ntoggle_hotkey = \"Hyper+KeyK\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for an unknown modifier")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Targets = []launcher.Target{{
		ID:      "t1",
		Name:    "Notes",
		Variant: launcher.VariantApp,
		Aliases: []string{"n"},
		Hotkeys: []hotkey.Chord{hotkey.MustChord("Control+Alt+Meta+KeyN")},
		Path:    "/System/Applications/Notes.app",
	}}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Control+Alt+Meta+KeyN") {
		t.Errorf("chord not stored as a string:\n%s", data)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(loaded.Targets) != 1 || loaded.Targets[0].Hotkeys[0] != cfg.Targets[0].Hotkeys[0] {
		t.Errorf("targets did not survive: %+v", loaded.Targets)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"narrow panel", func(c *Config) { c.Panel.Width = 10 }, "invalid panel width"},
		{"no toggle", func(c *Config) { c.Panel.ToggleHotkey = hotkey.Chord{} }, "toggle_hotkey is required"},
		{"layer shell", func(c *Config) { c.Panel.LayerShell = "maybe" }, "invalid layer_shell"},
		{"backend", func(c *Config) { c.Hotkeys.Backend = "wayland" }, "invalid hotkeys backend"},
		{"catalog source", func(c *Config) { c.Catalog.Source = "spotlight" }, "invalid catalog source"},
		{"cache age", func(c *Config) { c.Catalog.CacheMaxAgeHours = 0 }, "invalid cache_max_age_hours"},
		{"resolve cache", func(c *Config) { c.Launch.ResolveCacheSize = 0 }, "invalid resolve_cache_size"},
		{"unnamed target", func(c *Config) { c.Targets = []launcher.Target{{ID: "a"}} }, "name is required"},
		{"duplicate id", func(c *Config) {
			c.Targets = []launcher.Target{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}
		}, "duplicate id"},
		{"url without path", func(c *Config) {
			c.Targets = []launcher.Target{{Name: "Docs", Variant: launcher.VariantURL}}
		}, "need a path"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestCheckTargets(t *testing.T) {
	cfg := Default()
	cfg.Targets = []launcher.Target{
		{ID: "a", Name: "A", Hotkeys: []hotkey.Chord{hotkey.MustChord("Meta+Alt+KeyK")}},
		{ID: "b", Name: "B", Hotkeys: []hotkey.Chord{hotkey.MustChord("Control+KeyB")}},
		{ID: "c", Name: "C", Hotkeys: []hotkey.Chord{hotkey.MustChord("Ctrl+B")}},
	}

	err := cfg.CheckTargets()
	if !errors.Is(err, hotkey.ErrToggleCollision) {
		t.Errorf("expected toggle collision, got %v", err)
	}
	if !errors.Is(err, hotkey.ErrDuplicateChord) {
		t.Errorf("expected duplicate chord, got %v", err)
	}

	// Runtime validation tolerates both.
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate should not fail on chord conflicts: %v", err)
	}
}
