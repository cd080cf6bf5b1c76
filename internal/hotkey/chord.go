package hotkey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Modifier is a single modifier key bit.
type Modifier uint8

const (
	ModControl Modifier = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// Modifiers is a set of modifier keys. Two chords with the same modifiers
// compare equal regardless of the order they were written in.
type Modifiers uint8

// canonical display order
var modifierOrder = []struct {
	mod   Modifier
	name  string
	label string
}{
	{ModControl, "Control", "⌃"},
	{ModAlt, "Alt", "⌥"},
	{ModShift, "Shift", "⇧"},
	{ModMeta, "Meta", "⌘"},
}

var modifierAliases = map[string]Modifier{
	"shift":        ModShift,
	"shiftleft":    ModShift,
	"shiftright":   ModShift,
	"control":      ModControl,
	"controlleft":  ModControl,
	"controlright": ModControl,
	"ctrl":         ModControl,
	"alt":          ModAlt,
	"altleft":      ModAlt,
	"altright":     ModAlt,
	"option":       ModAlt,
	"opt":          ModAlt,
	"meta":         ModMeta,
	"metaleft":     ModMeta,
	"metaright":    ModMeta,
	"cmd":          ModMeta,
	"command":      ModMeta,
	"super":        ModMeta,
	"win":          ModMeta,
}

// NewModifiers builds a set from individual modifiers.
func NewModifiers(mods ...Modifier) Modifiers {
	var m Modifiers
	for _, mod := range mods {
		m |= Modifiers(mod)
	}
	return m
}

// Has reports whether mod is part of the set.
func (m Modifiers) Has(mod Modifier) bool {
	return m&Modifiers(mod) != 0
}

// List returns the modifiers in canonical order.
func (m Modifiers) List() []Modifier {
	var out []Modifier
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			out = append(out, o.mod)
		}
	}
	return out
}

// Names returns the canonical modifier names in canonical order.
func (m Modifiers) Names() []string {
	var out []string
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			out = append(out, o.name)
		}
	}
	return out
}

// ParseModifier resolves a modifier name or one of its aliases.
func ParseModifier(name string) (Modifier, error) {
	if mod, ok := modifierAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return mod, nil
	}
	return 0, fmt.Errorf("unknown modifier %q%s", name, didYouMean(name, modifierNames()))
}

func modifierNames() []string {
	names := make([]string, 0, len(modifierOrder))
	for _, o := range modifierOrder {
		names = append(names, o.name)
	}
	return names
}

// Chord is zero or more modifiers plus exactly one base key.
type Chord struct {
	Mods Modifiers
	Key  Key
}

// NewChord builds a chord, validating the key code.
func NewChord(key string, mods ...string) (Chord, error) {
	k, err := ParseKey(key)
	if err != nil {
		return Chord{}, err
	}
	var set Modifiers
	for _, name := range mods {
		mod, err := ParseModifier(name)
		if err != nil {
			return Chord{}, err
		}
		set |= Modifiers(mod)
	}
	return Chord{Mods: set, Key: k}, nil
}

// MustChord is NewChord for tests and built-in defaults.
func MustChord(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseChord parses "Control+Alt+Meta+KeyN". The last element is the base key,
// everything before it must be a modifier.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}

	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Chord{}, fmt.Errorf("invalid chord %q: empty element", s)
		}
	}

	c, err := NewChord(parts[len(parts)-1], parts[:len(parts)-1]...)
	if err != nil {
		return Chord{}, fmt.Errorf("invalid chord %q: %w", s, err)
	}
	return c, nil
}

// IsZero reports whether the chord has no key.
func (c Chord) IsZero() bool {
	return c.Key == ""
}

// String renders the chord in canonical order so equal chords print equally.
func (c Chord) String() string {
	parts := append(c.Mods.Names(), string(c.Key))
	return strings.Join(parts, "+")
}

// Label renders the chord with the usual keyboard glyphs, e.g. ⌃⌥⌘N.
func (c Chord) Label() string {
	var b strings.Builder
	for _, o := range modifierOrder {
		if c.Mods.Has(o.mod) {
			b.WriteString(o.label)
		}
	}
	b.WriteString(c.Key.Label())
	return b.String()
}

// wireChord is the UI representation of a chord.
type wireChord struct {
	Modifiers   []string `json:"modifiers"`
	KeyboardKey string   `json:"keyboard_key"`
}

func (c Chord) MarshalJSON() ([]byte, error) {
	mods := c.Mods.Names()
	if mods == nil {
		mods = []string{}
	}
	return json.Marshal(wireChord{Modifiers: mods, KeyboardKey: string(c.Key)})
}

func (c *Chord) UnmarshalJSON(data []byte) error {
	var w wireChord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := NewChord(w.KeyboardKey, w.Modifiers...)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText lets chords be stored as plain strings in TOML.
func (c Chord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Chord) UnmarshalText(text []byte) error {
	parsed, err := ParseChord(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SortChords orders chords by their canonical string.
func SortChords(chords []Chord) {
	sort.Slice(chords, func(i, j int) bool {
		return chords[i].String() < chords[j].String()
	})
}
