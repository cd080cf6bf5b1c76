package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/chess10kp/quickpanel/internal/hotkey"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

type Config struct {
	AppName    string            `toml:"app_name"`
	SocketPath string            `toml:"socket_path"`
	CacheDir   string            `toml:"cache_dir"`
	DataDir    string            `toml:"data_dir"`
	LogFile    string            `toml:"log_file"`
	Panel      PanelConfig       `toml:"panel"`
	Hotkeys    HotkeysConfig     `toml:"hotkeys"`
	Catalog    CatalogConfig     `toml:"catalog"`
	Launch     LaunchConfig      `toml:"launch"`
	Targets    []launcher.Target `toml:"targets"`
}

type PanelConfig struct {
	Width           int           `toml:"width"`
	Height          int           `toml:"height"`
	ToggleHotkey    hotkey.Chord  `toml:"toggle_hotkey"`
	HideOnFocusLoss bool          `toml:"hide_on_focus_loss"`
	LayerShell      string        `toml:"layer_shell"` // auto, on, off
	CustomCSS       string        `toml:"custom_css"`
	Styling         StylingConfig `toml:"styling"`
}

type StylingConfig struct {
	BackgroundColor string `toml:"background_color"`
	ForegroundColor string `toml:"foreground_color"`
	BorderColor     string `toml:"border_color"`
	BorderRadius    int    `toml:"border_radius"`
	BorderWidth     int    `toml:"border_width"`
	FontFamily      string `toml:"font_family"`
	FontSize        int    `toml:"font_size"`
}

type HotkeysConfig struct {
	Backend       string `toml:"backend"` // auto, x11, sway
	ClientCommand string `toml:"client_command"`
}

type CatalogConfig struct {
	Source           string   `toml:"source"` // auto, system_profiler, desktop
	Tool             string   `toml:"tool"`
	CacheFile        string   `toml:"cache_file"`
	CacheMaxAgeHours int      `toml:"cache_max_age_hours"`
	DesktopDirs      []string `toml:"desktop_dirs"`
}

type LaunchConfig struct {
	Opener           string `toml:"opener"` // empty: open on macOS, xdg-open elsewhere
	DesktopLauncher  string `toml:"desktop_launcher"`
	UsePortal        bool   `toml:"use_portal"`
	HistoryDB        string `toml:"history_db"`
	ResolveCacheSize int    `toml:"resolve_cache_size"`
}

var DefaultConfig = Config{
	AppName:    "quickpanel",
	SocketPath: "/tmp/quickpanel_socket",
	CacheDir:   "~/.cache/quickpanel",
	DataDir:    "~/.local/share/quickpanel",
	Panel: PanelConfig{
		Width:           750,
		Height:          500,
		ToggleHotkey:    hotkey.MustChord("Alt+Meta+KeyK"),
		HideOnFocusLoss: true,
		LayerShell:      "auto",
		CustomCSS:       "~/.config/quickpanel/style.css",
		Styling: StylingConfig{
			BackgroundColor: "#0e1419",
			ForegroundColor: "#ebdbb2",
			BorderColor:     "#444444",
			BorderRadius:    12,
			BorderWidth:     1,
			FontFamily:      "monospace",
			FontSize:        14,
		},
	},
	Hotkeys: HotkeysConfig{
		Backend:       "auto",
		ClientCommand: "quickpanelctl chord",
	},
	Catalog: CatalogConfig{
		Source:           "auto",
		Tool:             "system_profiler",
		CacheMaxAgeHours: 24,
	},
	Launch: LaunchConfig{
		Opener:           "",
		DesktopLauncher:  "gio launch",
		UsePortal:        true,
		ResolveCacheSize: 128,
	},
}

// Default returns a copy of DefaultConfig that shares no slices with it.
func Default() *Config {
	cfg := DefaultConfig
	cfg.Catalog.DesktopDirs = append([]string(nil), DefaultConfig.Catalog.DesktopDirs...)
	cfg.Targets = nil
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	expandedPath := expandPath(path)
	cfg := Default()

	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		cfg.ExpandPaths()
		return cfg, nil
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.ExpandPaths()
	return cfg, nil
}

// ExpandPaths replaces a leading ~ in every path setting. Unset log_file
// and cache_file live under cache_dir, an unset history_db under data_dir.
func (c *Config) ExpandPaths() {
	c.CacheDir = expandPath(c.CacheDir)
	c.DataDir = expandPath(c.DataDir)
	c.SocketPath = expandPath(c.SocketPath)
	c.LogFile = expandPath(orDefault(c.LogFile, c.CacheDir, "quickpanel.log"))
	c.Catalog.CacheFile = expandPath(orDefault(c.Catalog.CacheFile, c.CacheDir, "apps.json"))
	c.Launch.HistoryDB = expandPath(orDefault(c.Launch.HistoryDB, c.DataDir, "history.db"))
	c.Panel.CustomCSS = expandPath(c.Panel.CustomCSS)
	for i, d := range c.Catalog.DesktopDirs {
		c.Catalog.DesktopDirs[i] = expandPath(d)
	}
}

func orDefault(path, dir, name string) string {
	if path != "" || dir == "" {
		return path
	}
	return filepath.Join(dir, name)
}

func LoadAndValidateConfig(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		usr, err := user.Current()
		if err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

// Validate checks the settings the daemon cannot start without. Chord
// conflicts between targets are reported by CheckTargets.
func (c *Config) Validate() error {
	if err := c.validatePanel(); err != nil {
		return err
	}
	if err := c.validateHotkeys(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateLaunch(); err != nil {
		return err
	}
	if err := c.validateTargets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePanel() error {
	p := c.Panel
	if p.Width < 100 || p.Width > 4000 {
		return fmt.Errorf("invalid panel width: %d (must be 100-4000)", p.Width)
	}
	if p.Height < 100 || p.Height > 4000 {
		return fmt.Errorf("invalid panel height: %d (must be 100-4000)", p.Height)
	}
	if p.ToggleHotkey.IsZero() {
		return fmt.Errorf("toggle_hotkey is required")
	}
	switch p.LayerShell {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("invalid layer_shell: %s (must be one of: auto, on, off)", p.LayerShell)
	}
	if p.Styling.FontSize < 6 || p.Styling.FontSize > 72 {
		return fmt.Errorf("invalid font_size: %d (must be 6-72)", p.Styling.FontSize)
	}
	return nil
}

func (c *Config) validateHotkeys() error {
	switch c.Hotkeys.Backend {
	case "auto", "x11", "sway":
	default:
		return fmt.Errorf("invalid hotkeys backend: %s (must be one of: auto, x11, sway)", c.Hotkeys.Backend)
	}
	if c.Hotkeys.Backend == "sway" && c.Hotkeys.ClientCommand == "" {
		return fmt.Errorf("sway hotkeys backend requires client_command")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case "auto", "system_profiler", "desktop":
	default:
		return fmt.Errorf("invalid catalog source: %s (must be one of: auto, system_profiler, desktop)", c.Catalog.Source)
	}
	if c.Catalog.CacheMaxAgeHours < 1 || c.Catalog.CacheMaxAgeHours > 168 {
		return fmt.Errorf("invalid cache_max_age_hours: %d (must be 1-168 hours)", c.Catalog.CacheMaxAgeHours)
	}
	return nil
}

func (c *Config) validateLaunch() error {
	if c.Launch.ResolveCacheSize < 1 || c.Launch.ResolveCacheSize > 10000 {
		return fmt.Errorf("invalid resolve_cache_size: %d (must be 1-10000)", c.Launch.ResolveCacheSize)
	}
	return nil
}

func (c *Config) validateTargets() error {
	var errs []error
	ids := make(map[string]bool)
	for i, t := range c.Targets {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("target %s: name is required", label))
		}
		if t.ID != "" {
			if ids[t.ID] {
				errs = append(errs, fmt.Errorf("target %s: duplicate id %q", label, t.ID))
			}
			ids[t.ID] = true
		}
		if (t.Variant == launcher.VariantURL || t.Variant == launcher.VariantExtension) && t.Path == "" {
			errs = append(errs, fmt.Errorf("target %s: %s targets need a path", label, t.Variant))
		}
	}
	return errors.Join(errs...)
}

// CheckTargets reports target chords that equal the toggle chord or are
// shared by two targets. At runtime these are warnings: the first binding
// wins and the toggle keeps working.
func (c *Config) CheckTargets() error {
	var errs []error
	owners := make(map[hotkey.Chord]string)
	toggle := c.Panel.ToggleHotkey

	for _, t := range c.Targets {
		for _, chord := range t.Hotkeys {
			if chord == toggle {
				errs = append(errs, fmt.Errorf("%w: target %q uses %s", hotkey.ErrToggleCollision, t.Name, chord))
				continue
			}
			if owner, ok := owners[chord]; ok && owner != t.Name {
				errs = append(errs, fmt.Errorf("%w: %s is bound to %q and %q", hotkey.ErrDuplicateChord, chord, owner, t.Name))
				continue
			}
			owners[chord] = t.Name
		}
	}
	return errors.Join(errs...)
}
