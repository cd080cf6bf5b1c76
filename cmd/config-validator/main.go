package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/chess10kp/quickpanel/internal/config"
	"github.com/chess10kp/quickpanel/internal/hotkey"
)

var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

// printJoined prints each error of an errors.Join result on its own line.
func printJoined(err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			printJoined(e)
		}
		return
	}
	fmt.Println("  - " + err.Error())
}

func main() {
	configPath := "~/.config/quickpanel/config.toml"
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--init" {
		if len(args) > 1 {
			configPath = args[1]
		}
		if err := config.SaveConfig(config.Default(), configPath); err != nil {
			fmt.Println(errStyle.Render("Failed to write default config: ") + err.Error())
			os.Exit(1)
		}
		fmt.Println(okStyle.Render("Wrote default config to " + configPath))
		return
	}
	if len(args) > 0 {
		configPath = args[0]
	}

	fmt.Println(dimStyle.Render("Validating config: " + configPath))

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Println(errStyle.Render("Config could not be loaded:"))
		printJoined(err)
		os.Exit(1)
	}

	failed := false
	if err := cfg.Validate(); err != nil {
		fmt.Println(errStyle.Render("Config validation failed:"))
		printJoined(err)
		failed = true
	}

	if err := cfg.CheckTargets(); err != nil {
		style := warnStyle
		if errors.Is(err, hotkey.ErrToggleCollision) {
			style = errStyle
		}
		fmt.Println(style.Render("Hotkey conflicts:"))
		printJoined(err)
		failed = true
	}

	if failed {
		os.Exit(1)
	}

	fmt.Println(okStyle.Render("Config is valid!") + dimStyle.Render(fmt.Sprintf(" (%d targets, toggle %s)", len(cfg.Targets), cfg.Panel.ToggleHotkey.Label())))
}
