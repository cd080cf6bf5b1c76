package launcher

import (
	"fmt"
	"strings"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

// Variant decides how a target's path is opened.
type Variant string

const (
	VariantApp       Variant = "App"
	VariantURL       Variant = "Url"
	VariantExtension Variant = "Extension"
)

// ParseVariant accepts the variant names case-insensitively.
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{VariantApp, VariantURL, VariantExtension} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q (must be App, Url or Extension)", s)
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v), nil
}

// Target is a user-configured launchable entry.
type Target struct {
	ID      string         `json:"id" toml:"id"`
	Name    string         `json:"name" toml:"name"`
	Variant Variant        `json:"variant" toml:"variant"`
	Aliases []string       `json:"aliases" toml:"aliases"`
	Hotkeys []hotkey.Chord `json:"hotkeys" toml:"hotkeys"`
	Path    string         `json:"path,omitempty" toml:"path,omitempty"`
}

// Clone returns a deep copy.
func (t Target) Clone() Target {
	out := t
	out.Aliases = append([]string{}, t.Aliases...)
	out.Hotkeys = append([]hotkey.Chord{}, t.Hotkeys...)
	return out
}

// Matches reports whether query equals the name or one of the aliases,
// ignoring case.
func (t Target) Matches(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	if strings.EqualFold(t.Name, query) {
		return true
	}
	for _, a := range t.Aliases {
		if strings.EqualFold(a, query) {
			return true
		}
	}
	return false
}

// Binding is the dispatcher's view of this target.
func (t Target) Binding() hotkey.TargetBinding {
	return hotkey.TargetBinding{ID: t.ID, Name: t.Name, Chords: t.Hotkeys}
}

// Bindings converts a target list for hotkey.Dispatcher.Rebind.
func Bindings(targets []Target) []hotkey.TargetBinding {
	out := make([]hotkey.TargetBinding, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Binding())
	}
	return out
}

func cloneTargets(targets []Target) []Target {
	out := make([]Target, len(targets))
	for i, t := range targets {
		out[i] = t.Clone()
	}
	return out
}
