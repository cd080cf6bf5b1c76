// Package sway talks to the sway compositor over its IPC socket. On Wayland
// there is no global key grab, so chords are installed as sway bindings that
// run the control client, which forwards the chord back to the daemon.
package sway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/joshuarubin/go-sway"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

var logger = log.New(log.Writer(), "[SWAY] ", log.LstdFlags|log.Lmicroseconds)

const ipcTimeout = 2 * time.Second

var modifierNames = map[hotkey.Modifier]string{
	hotkey.ModControl: "Ctrl",
	hotkey.ModAlt:     "Mod1",
	hotkey.ModShift:   "Shift",
	hotkey.ModMeta:    "Mod4",
}

var keysyms = map[hotkey.Key]string{
	"Escape":       "Escape",
	"Tab":          "Tab",
	"Enter":        "Return",
	"Return":       "Return",
	"Space":        "space",
	"Backspace":    "BackSpace",
	"Delete":       "Delete",
	"CapsLock":     "Caps_Lock",
	"ArrowUp":      "Up",
	"ArrowDown":    "Down",
	"ArrowLeft":    "Left",
	"ArrowRight":   "Right",
	"Home":         "Home",
	"End":          "End",
	"PageUp":       "Prior",
	"PageDown":     "Next",
	"Grave":        "grave",
	"Minus":        "minus",
	"Equal":        "equal",
	"BracketLeft":  "bracketleft",
	"BracketRight": "bracketright",
	"Backslash":    "backslash",
	"Semicolon":    "semicolon",
	"Quote":        "apostrophe",
	"Comma":        "comma",
	"Period":       "period",
	"Slash":        "slash",
}

// Keysym renders a chord as a sway key combination, e.g. Mod1+Mod4+k.
func Keysym(c hotkey.Chord) (string, error) {
	var key string
	switch {
	case c.Key.IsLetter():
		key = strings.ToLower(string(c.Key)[3:])
	case c.Key.IsDigit():
		key = string(c.Key)[5:]
	case c.Key.FunctionNumber() > 0:
		key = string(c.Key)
	default:
		sym, ok := keysyms[c.Key]
		if !ok {
			return "", fmt.Errorf("no keysym for %s", c.Key)
		}
		key = sym
	}

	parts := make([]string, 0, 5)
	for _, m := range c.Mods.List() {
		parts = append(parts, modifierNames[m])
	}
	parts = append(parts, key)
	return strings.Join(parts, "+"), nil
}

// Commander is the subset of the sway client used for bindings.
type Commander interface {
	RunCommand(ctx context.Context, command string) ([]sway.RunCommandReply, error)
}

// Binder implements hotkey.Backend with bindsym/unbindsym commands. Sway runs
// clientCommand with the canonical chord appended on every press.
type Binder struct {
	client        Commander
	clientCommand string

	mu    sync.Mutex
	bound map[hotkey.Chord]string
}

// Connect opens the sway IPC socket and returns a Binder.
func Connect(ctx context.Context, clientCommand string) (*Binder, error) {
	client, err := sway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sway: %w", err)
	}
	return NewBinder(client, clientCommand), nil
}

// NewBinder wraps an existing sway client.
func NewBinder(client Commander, clientCommand string) *Binder {
	return &Binder{
		client:        client,
		clientCommand: clientCommand,
		bound:         make(map[hotkey.Chord]string),
	}
}

func (b *Binder) run(command string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()

	replies, err := b.client.RunCommand(ctx, command)
	if err != nil {
		return err
	}
	for _, r := range replies {
		if !r.Success {
			return fmt.Errorf("sway rejected %q: %s", command, r.Error)
		}
	}
	return nil
}

// Register installs a sway binding for c.
func (b *Binder) Register(c hotkey.Chord) error {
	combo, err := Keysym(c)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.bound[c]; ok {
		return nil
	}

	cmd := fmt.Sprintf("bindsym --no-repeat %s exec %s %s", combo, b.clientCommand, c.String())
	if err := b.run(cmd); err != nil {
		return fmt.Errorf("%w: %v", hotkey.ErrChordClaimed, err)
	}
	b.bound[c] = combo
	logger.Printf("Bound %s (%s)", c, combo)
	return nil
}

// Unregister removes the sway binding for c.
func (b *Binder) Unregister(c hotkey.Chord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	combo, ok := b.bound[c]
	if !ok {
		return nil
	}
	delete(b.bound, c)

	if err := b.run("unbindsym " + combo); err != nil {
		return fmt.Errorf("failed to unbind %s: %w", c, err)
	}
	logger.Printf("Unbound %s", c)
	return nil
}

// Close removes every binding this process installed.
func (b *Binder) Close() error {
	b.mu.Lock()
	chords := make([]hotkey.Chord, 0, len(b.bound))
	for c := range b.bound {
		chords = append(chords, c)
	}
	b.mu.Unlock()

	for _, c := range chords {
		if err := b.Unregister(c); err != nil {
			logger.Printf("Close: %v", err)
		}
	}
	return nil
}
