package core

import (
	"fmt"
	"os"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/quickpanel/internal/config"
)

const stylesTemplate = `
* {
    font-family: "%[6]s", monospace;
    font-size: %[7]dpx;
    margin: 0;
    padding: 0;
}

label {
    color: %[2]s;
}

#panel-window {
    background-color: %[1]s;
    color: %[2]s;
    border-radius: %[4]dpx;
    border: %[5]dpx solid %[3]s;
}

#panel-window box {
    background-color: %[1]s;
}

#panel-entry {
    background-color: %[1]s;
    color: %[2]s;
    padding: 12px;
    border: none;
    border-bottom: %[5]dpx solid %[3]s;
}

#target-list {
    background-color: transparent;
}

#target-row {
    padding: 4px 8px;
}

#target-row:selected {
    background-color: %[3]s;
}

#target-hint {
    opacity: 0.6;
}
`

// buildStyles renders the panel stylesheet from the configured colors.
func buildStyles(s config.StylingConfig) string {
	return fmt.Sprintf(stylesTemplate,
		s.BackgroundColor, s.ForegroundColor, s.BorderColor,
		s.BorderRadius, s.BorderWidth, s.FontFamily, s.FontSize)
}

func SetupStyles(s config.StylingConfig) {
	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		logger.Printf("Warning: Failed to get default screen: %v", err)
		return
	}

	provider, err := gtk.CssProviderNew()
	if err != nil {
		logger.Printf("Warning: Failed to create css provider: %v", err)
		return
	}
	if err := provider.LoadFromData(buildStyles(s)); err != nil {
		logger.Printf("Warning: Failed to load styles: %v", err)
		return
	}

	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// LoadCustomCSS layers a user stylesheet over the generated one.
func LoadCustomCSS(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("Failed to read %s: %v", path, err)
		}
		return
	}

	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		return
	}

	provider, _ := gtk.CssProviderNew()
	if err := provider.LoadFromData(string(data)); err != nil {
		logger.Printf("Invalid custom CSS in %s: %v", path, err)
		return
	}
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
}
