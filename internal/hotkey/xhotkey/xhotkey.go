// Package xhotkey registers global chords with the OS hotkey facility
// (X11 grabs, Carbon hot keys, RegisterHotKey) through golang.design/x/hotkey.
package xhotkey

import (
	"fmt"
	"log"
	"sync"

	oshotkey "golang.design/x/hotkey"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

var logger = log.New(log.Writer(), "[XHOTKEY] ", log.LstdFlags|log.Lmicroseconds)

var keyMap = map[hotkey.Key]oshotkey.Key{
	"KeyA": oshotkey.KeyA, "KeyB": oshotkey.KeyB, "KeyC": oshotkey.KeyC,
	"KeyD": oshotkey.KeyD, "KeyE": oshotkey.KeyE, "KeyF": oshotkey.KeyF,
	"KeyG": oshotkey.KeyG, "KeyH": oshotkey.KeyH, "KeyI": oshotkey.KeyI,
	"KeyJ": oshotkey.KeyJ, "KeyK": oshotkey.KeyK, "KeyL": oshotkey.KeyL,
	"KeyM": oshotkey.KeyM, "KeyN": oshotkey.KeyN, "KeyO": oshotkey.KeyO,
	"KeyP": oshotkey.KeyP, "KeyQ": oshotkey.KeyQ, "KeyR": oshotkey.KeyR,
	"KeyS": oshotkey.KeyS, "KeyT": oshotkey.KeyT, "KeyU": oshotkey.KeyU,
	"KeyV": oshotkey.KeyV, "KeyW": oshotkey.KeyW, "KeyX": oshotkey.KeyX,
	"KeyY": oshotkey.KeyY, "KeyZ": oshotkey.KeyZ,

	"Digit0": oshotkey.Key0, "Digit1": oshotkey.Key1, "Digit2": oshotkey.Key2,
	"Digit3": oshotkey.Key3, "Digit4": oshotkey.Key4, "Digit5": oshotkey.Key5,
	"Digit6": oshotkey.Key6, "Digit7": oshotkey.Key7, "Digit8": oshotkey.Key8,
	"Digit9": oshotkey.Key9,

	"F1": oshotkey.KeyF1, "F2": oshotkey.KeyF2, "F3": oshotkey.KeyF3,
	"F4": oshotkey.KeyF4, "F5": oshotkey.KeyF5, "F6": oshotkey.KeyF6,
	"F7": oshotkey.KeyF7, "F8": oshotkey.KeyF8, "F9": oshotkey.KeyF9,
	"F10": oshotkey.KeyF10, "F11": oshotkey.KeyF11, "F12": oshotkey.KeyF12,

	"Space":      oshotkey.KeySpace,
	"Enter":      oshotkey.KeyReturn,
	"Return":     oshotkey.KeyReturn,
	"Escape":     oshotkey.KeyEscape,
	"Delete":     oshotkey.KeyDelete,
	"Tab":        oshotkey.KeyTab,
	"ArrowLeft":  oshotkey.KeyLeft,
	"ArrowRight": oshotkey.KeyRight,
	"ArrowUp":    oshotkey.KeyUp,
	"ArrowDown":  oshotkey.KeyDown,
}

type grab struct {
	hk   *oshotkey.Hotkey
	done chan struct{}
}

// Backend implements hotkey.Backend on top of golang.design/x/hotkey.
// Events are delivered to the handler from the listener goroutines; the
// caller is responsible for moving them onto its UI thread.
type Backend struct {
	handler func(hotkey.Event)

	mu    sync.Mutex
	grabs map[hotkey.Chord]*grab
}

// New creates a backend delivering key events to handler.
func New(handler func(hotkey.Event)) *Backend {
	return &Backend{
		handler: handler,
		grabs:   make(map[hotkey.Chord]*grab),
	}
}

func translate(c hotkey.Chord) ([]oshotkey.Modifier, oshotkey.Key, error) {
	key, ok := keyMap[c.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %s has no OS hotkey code", c.Key)
	}

	mods := make([]oshotkey.Modifier, 0, 4)
	for _, m := range c.Mods.List() {
		osMod, ok := modifierMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("modifier %d unsupported on this platform", m)
		}
		mods = append(mods, osMod)
	}
	return mods, key, nil
}

// Register grabs the chord system-wide.
func (b *Backend) Register(c hotkey.Chord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.grabs[c]; ok {
		return nil
	}

	mods, key, err := translate(c)
	if err != nil {
		return err
	}

	hk := oshotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("%w: %s: %v", hotkey.ErrChordClaimed, c, err)
	}

	g := &grab{hk: hk, done: make(chan struct{})}
	b.grabs[c] = g
	go b.listen(c, g)

	logger.Printf("Grabbed %s", c)
	return nil
}

func (b *Backend) listen(c hotkey.Chord, g *grab) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("Listener for %s panicked: %v", c, r)
		}
	}()

	for {
		select {
		case <-g.done:
			return
		case <-g.hk.Keydown():
			b.handler(hotkey.Event{Chord: c, State: hotkey.Pressed})
		case <-g.hk.Keyup():
			b.handler(hotkey.Event{Chord: c, State: hotkey.Released})
		}
	}
}

// Unregister releases the grab for c.
func (b *Backend) Unregister(c hotkey.Chord) error {
	b.mu.Lock()
	g, ok := b.grabs[c]
	delete(b.grabs, c)
	b.mu.Unlock()

	if !ok {
		return nil
	}

	close(g.done)
	if err := g.hk.Unregister(); err != nil {
		return fmt.Errorf("failed to release %s: %w", c, err)
	}
	logger.Printf("Released %s", c)
	return nil
}

// Close releases every grab.
func (b *Backend) Close() error {
	b.mu.Lock()
	chords := make([]hotkey.Chord, 0, len(b.grabs))
	for c := range b.grabs {
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
