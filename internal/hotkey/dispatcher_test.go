package hotkey

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// MockBackend records OS registrations and can refuse chosen chords.
type MockBackend struct {
	mu           sync.Mutex
	registered   map[Chord]bool
	claimed      map[Chord]bool
	registerLog  []Chord
	unregistered []Chord
	closed       bool
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		registered: make(map[Chord]bool),
		claimed:    make(map[Chord]bool),
	}
}

func (b *MockBackend) Register(c Chord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.claimed[c] {
		return fmt.Errorf("%s: %w", c, ErrChordClaimed)
	}
	b.registered[c] = true
	b.registerLog = append(b.registerLog, c)
	return nil
}

func (b *MockBackend) Unregister(c Chord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.registered, c)
	b.unregistered = append(b.unregistered, c)
	return nil
}

func (b *MockBackend) Close() error {
	b.closed = true
	return nil
}

func (b *MockBackend) IsRegistered(c Chord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered[c]
}

type MockPanel struct {
	toggles int
}

func (p *MockPanel) Toggle() { p.toggles++ }

type MockLauncher struct {
	launched []string
	err      error
	panicMsg string
}

func (l *MockLauncher) LaunchByID(id string) error {
	if l.panicMsg != "" {
		panic(l.panicMsg)
	}
	l.launched = append(l.launched, id)
	return l.err
}

func newTestDispatcher() (*Dispatcher, *MockBackend, *MockPanel, *MockLauncher) {
	backend := NewMockBackend()
	panel := &MockPanel{}
	launcher := &MockLauncher{}
	return NewDispatcher(backend, panel, launcher), backend, panel, launcher
}

func TestRegisterLastWriteWins(t *testing.T) {
	d, backend, _, launcher := newTestDispatcher()
	c := MustChord("Control+Alt+KeyJ")

	if err := d.Register(c, LaunchTarget("a")); err != nil {
		t.Fatalf("Register A: %v", err)
	}
	if err := d.Register(c, LaunchTarget("b")); err != nil {
		t.Fatalf("Register B: %v", err)
	}

	if len(backend.registerLog) != 1 {
		t.Errorf("expected a single OS registration, got %d", len(backend.registerLog))
	}

	if !d.HandleEvent(Event{Chord: c, State: Pressed}) {
		t.Fatal("expected event to be handled")
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != "b" {
		t.Errorf("expected only b to launch, got %v", launcher.launched)
	}
}

func TestHandleEventIgnoresRelease(t *testing.T) {
	d, _, panel, _ := newTestDispatcher()
	c := MustChord("Alt+Meta+KeyK")
	if err := d.Register(c, TogglePanel()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if d.HandleEvent(Event{Chord: c, State: Released}) {
		t.Error("release should not dispatch")
	}
	if panel.toggles != 0 {
		t.Errorf("expected no toggles, got %d", panel.toggles)
	}

	d.HandleEvent(Event{Chord: c, State: Pressed})
	if panel.toggles != 1 {
		t.Errorf("expected one toggle, got %d", panel.toggles)
	}
}

func TestHandleEventExactMatch(t *testing.T) {
	d, _, panel, _ := newTestDispatcher()
	if err := d.Register(MustChord("Alt+Meta+KeyK"), TogglePanel()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	misses := []string{"Meta+KeyK", "Alt+Meta+Shift+KeyK", "Alt+Meta+KeyL"}
	for _, s := range misses {
		if d.HandleEvent(Event{Chord: MustChord(s), State: Pressed}) {
			t.Errorf("%s should not match", s)
		}
	}

	reordered, _ := NewChord("KeyK", "Meta", "Alt")
	if !d.HandleEvent(Event{Chord: reordered, State: Pressed}) {
		t.Error("modifier order must not matter")
	}
	if panel.toggles != 1 {
		t.Errorf("expected one toggle, got %d", panel.toggles)
	}
}

func TestRegisterClaimedChordIsContained(t *testing.T) {
	d, backend, _, _ := newTestDispatcher()
	claimed := MustChord("Meta+Space")
	backend.claimed[claimed] = true

	err := d.Register(claimed, TogglePanel())
	if !errors.Is(err, ErrChordClaimed) {
		t.Fatalf("expected ErrChordClaimed, got %v", err)
	}

	other := MustChord("Alt+Meta+KeyK")
	if err := d.Register(other, TogglePanel()); err != nil {
		t.Fatalf("other chord should still register: %v", err)
	}
	if _, ok := d.Bindings()[claimed]; ok {
		t.Error("claimed chord must not be bound")
	}
}

func TestRebind(t *testing.T) {
	d, backend, panel, launcher := newTestDispatcher()
	toggle := MustChord("Alt+Meta+KeyK")
	notes := MustChord("Control+Alt+Meta+KeyN")
	mail := MustChord("Control+Alt+Meta+KeyM")

	err := d.Rebind(toggle, []TargetBinding{
		{ID: "1", Name: "Notes", Chords: []Chord{notes}},
		{ID: "2", Name: "Mail", Chords: []Chord{mail}},
	})
	if err != nil {
		t.Fatalf("Rebind: %v", err)
	}
	if len(d.Bindings()) != 3 {
		t.Fatalf("expected 3 bindings, got %d", len(d.Bindings()))
	}

	// Mail removed, Notes moves to a new chord.
	notesNew := MustChord("Control+Alt+Meta+KeyO")
	if err := d.Rebind(toggle, []TargetBinding{{ID: "1", Name: "Notes", Chords: []Chord{notesNew}}}); err != nil {
		t.Fatalf("second Rebind: %v", err)
	}

	for _, c := range []Chord{notes, mail} {
		if backend.IsRegistered(c) {
			t.Errorf("stale chord %s still registered", c)
		}
	}
	if !backend.IsRegistered(notesNew) || !backend.IsRegistered(toggle) {
		t.Error("expected new chord and toggle to be registered")
	}

	d.HandleEvent(Event{Chord: notesNew, State: Pressed})
	d.HandleEvent(Event{Chord: toggle, State: Pressed})
	if len(launcher.launched) != 1 || launcher.launched[0] != "1" {
		t.Errorf("unexpected launches %v", launcher.launched)
	}
	if panel.toggles != 1 {
		t.Errorf("expected 1 toggle, got %d", panel.toggles)
	}
}

func TestRebindCollisions(t *testing.T) {
	d, backend, panel, launcher := newTestDispatcher()
	toggle := MustChord("Alt+Meta+KeyK")
	shared := MustChord("Control+Alt+KeyS")
	claimed := MustChord("Control+Alt+KeyC")
	backend.claimed[claimed] = true

	err := d.Rebind(toggle, []TargetBinding{
		{ID: "a", Name: "First", Chords: []Chord{shared}},
		{ID: "b", Name: "Second", Chords: []Chord{shared, toggle}},
		{ID: "c", Name: "Third", Chords: []Chord{claimed}},
	})
	if err == nil {
		t.Fatal("expected problems to be reported")
	}
	if !errors.Is(err, ErrToggleCollision) {
		t.Errorf("expected ErrToggleCollision in %v", err)
	}
	if !errors.Is(err, ErrDuplicateChord) {
		t.Errorf("expected ErrDuplicateChord in %v", err)
	}
	if !errors.Is(err, ErrChordClaimed) {
		t.Errorf("expected ErrChordClaimed in %v", err)
	}

	d.HandleEvent(Event{Chord: shared, State: Pressed})
	if len(launcher.launched) != 1 || launcher.launched[0] != "a" {
		t.Errorf("first registered target should win, got %v", launcher.launched)
	}

	d.HandleEvent(Event{Chord: toggle, State: Pressed})
	if panel.toggles != 1 {
		t.Errorf("toggle chord must keep toggling, got %d toggles", panel.toggles)
	}
}

func TestLaunchFailureDoesNotEscape(t *testing.T) {
	d, _, _, launcher := newTestDispatcher()
	c := MustChord("Control+KeyL")
	if err := d.Register(c, LaunchTarget("x")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	launcher.err = errors.New("no path")
	if !d.HandleEvent(Event{Chord: c, State: Pressed}) {
		t.Error("failing launch still counts as dispatched")
	}

	launcher.panicMsg = "boom"
	d.HandleEvent(Event{Chord: c, State: Pressed})
}

func TestCloseUnregistersEverything(t *testing.T) {
	d, backend, _, _ := newTestDispatcher()
	d.Register(MustChord("Alt+KeyA"), TogglePanel())
	d.Register(MustChord("Alt+KeyB"), LaunchTarget("b"))

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(backend.unregistered) != 2 {
		t.Errorf("expected 2 unregistrations, got %d", len(backend.unregistered))
	}
	if !backend.closed {
		t.Error("backend should be closed")
	}
	if len(d.Bindings()) != 0 {
		t.Error("bindings should be empty after Close")
	}
}
