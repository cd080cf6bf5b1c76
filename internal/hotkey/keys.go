package hotkey

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// Key is a physical key code in the DOM KeyboardEvent.code naming scheme.
type Key string

var keyLabels = map[Key]string{
	"Escape":       "Esc",
	"Tab":          "⇥",
	"Enter":        "↩",
	"Return":       "↩",
	"Space":        "Space",
	"Backspace":    "⌫",
	"Delete":       "⌦",
	"CapsLock":     "⇪",
	"ArrowUp":      "▲",
	"ArrowDown":    "▼",
	"ArrowLeft":    "◄",
	"ArrowRight":   "►",
	"Home":         "Home",
	"End":          "End",
	"PageUp":       "PgUp",
	"PageDown":     "PgDn",
	"Grave":        "`",
	"Minus":        "-",
	"Equal":        "=",
	"BracketLeft":  "[",
	"BracketRight": "]",
	"Backslash":    "\\",
	"Semicolon":    ";",
	"Quote":        "'",
	"Comma":        ",",
	"Period":       ".",
	"Slash":        "/",
}

var knownKeys map[Key]bool

func init() {
	knownKeys = make(map[Key]bool)
	for c := 'A'; c <= 'Z'; c++ {
		knownKeys[Key("Key"+string(c))] = true
	}
	for c := '0'; c <= '9'; c++ {
		knownKeys[Key("Digit"+string(c))] = true
	}
	for i := 1; i <= 12; i++ {
		knownKeys[Key(fmt.Sprintf("F%d", i))] = true
	}
	for k := range keyLabels {
		knownKeys[k] = true
	}
}

// KnownKeys returns every accepted key code, sorted.
func KnownKeys() []string {
	out := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// ParseKey validates a key code. Single letters and digits are accepted as
// shorthands for KeyX and DigitN, and matching is case-insensitive.
func ParseKey(name string) (Key, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("missing key")
	}

	if len(name) == 1 {
		c := strings.ToUpper(name)[0]
		switch {
		case c >= 'A' && c <= 'Z':
			return Key("Key" + string(c)), nil
		case c >= '0' && c <= '9':
			return Key("Digit" + string(c)), nil
		}
	}

	if knownKeys[Key(name)] {
		return Key(name), nil
	}
	for k := range knownKeys {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown key %q%s", name, didYouMean(name, KnownKeys()))
}

// Label is the short label shown on a keycap.
func (k Key) Label() string {
	s := string(k)
	if strings.HasPrefix(s, "Key") && len(s) == 4 {
		return s[3:]
	}
	if strings.HasPrefix(s, "Digit") && len(s) == 6 {
		return s[5:]
	}
	if l, ok := keyLabels[k]; ok {
		return l
	}
	return s
}

// IsLetter reports whether the key is KeyA..KeyZ.
func (k Key) IsLetter() bool {
	s := string(k)
	return len(s) == 4 && strings.HasPrefix(s, "Key") && s[3] >= 'A' && s[3] <= 'Z'
}

// IsDigit reports whether the key is Digit0..Digit9.
func (k Key) IsDigit() bool {
	s := string(k)
	return len(s) == 6 && strings.HasPrefix(s, "Digit") && s[5] >= '0' && s[5] <= '9'
}

// FunctionNumber returns n for Fn keys and 0 otherwise.
func (k Key) FunctionNumber() int {
	var n int
	if _, err := fmt.Sscanf(string(k), "F%d", &n); err != nil || fmt.Sprintf("F%d", n) != string(k) {
		return 0
	}
	return n
}

// didYouMean formats a suggestion suffix for error messages. Fuzzy matching
// catches abbreviations ("ArrUp"), edit distance catches typos ("KeyNN").
func didYouMean(input string, candidates []string) string {
	if s := suggest(input, candidates); s != "" {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	return ""
}

func suggest(input string, candidates []string) string {
	input = strings.TrimSpace(input)
	if input == "" || len(candidates) == 0 {
		return ""
	}

	if matches := fuzzy.Find(input, candidates); len(matches) > 0 {
		return matches[0].Str
	}

	best := ""
	bestDist := -1
	lower := strings.ToLower(input)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > 2 {
		return ""
	}
	return best
}
