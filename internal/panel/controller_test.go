package panel

import (
	"errors"
	"math/rand"
	"testing"
)

// FakeSurface is an in-memory window.
type FakeSurface struct {
	visible    bool
	width      int
	height     int
	pos        Point
	moves      int
	shows      int
	hides      int
	onShow     func()
	movedWhile []bool
}

func (s *FakeSurface) Size() (int, int) { return s.width, s.height }

func (s *FakeSurface) Move(x, y int) {
	s.pos = Point{X: x, Y: y}
	s.moves++
	s.movedWhile = append(s.movedWhile, s.visible)
}

func (s *FakeSurface) Show() {
	s.shows++
	s.visible = true
	if s.onShow != nil {
		s.onShow()
	}
}

func (s *FakeSurface) Hide() {
	s.hides++
	s.visible = false
}

func (s *FakeSurface) IsVisible() bool { return s.visible }

type FakeLocator struct {
	pointer    Point
	pointerErr error
	displays   []Display
	displayErr error
}

func (l *FakeLocator) PointerPosition() (Point, error) { return l.pointer, l.pointerErr }
func (l *FakeLocator) Displays() ([]Display, error)    { return l.displays, l.displayErr }

func twoDisplays() []Display {
	return []Display{
		{Name: "left", Bounds: Rect{0, 0, 1920, 1080}, Visible: Rect{0, 25, 1920, 1055}, Primary: true},
		{Name: "right", Bounds: Rect{1920, 0, 2560, 1440}, Visible: Rect{1920, 0, 2560, 1440}},
	}
}

func newTestController() (*Controller, *FakeSurface, *FakeLocator) {
	surface := &FakeSurface{width: 600, height: 400}
	locator := &FakeLocator{pointer: Point{100, 100}, displays: twoDisplays()}
	return NewController(surface, locator), surface, locator
}

func TestInitialStateHidden(t *testing.T) {
	c, _, _ := newTestController()
	if c.State() != Hidden {
		t.Errorf("expected hidden, got %s", c.State())
	}
	if c.IsVisible() {
		t.Error("surface should not be visible")
	}
}

func TestShowHideIdempotent(t *testing.T) {
	c, surface, _ := newTestController()

	c.Show()
	c.Show()
	if surface.shows != 1 {
		t.Errorf("expected 1 OS show, got %d", surface.shows)
	}
	if c.State() != Visible {
		t.Errorf("expected visible, got %s", c.State())
	}

	c.Hide()
	c.Hide()
	if surface.hides != 1 {
		t.Errorf("expected 1 OS hide, got %d", surface.hides)
	}
	if c.State() != Hidden {
		t.Errorf("expected hidden, got %s", c.State())
	}
}

func TestSequenceMatchesBooleanModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		c, surface, _ := newTestController()
		model := false

		steps := rng.Intn(30)
		for i := 0; i < steps; i++ {
			switch rng.Intn(3) {
			case 0:
				c.Show()
				model = true
			case 1:
				c.Hide()
				model = false
			case 2:
				c.Toggle()
				model = !model
			}
		}

		if surface.IsVisible() != model {
			t.Fatalf("run %d: visible=%v, model=%v", run, surface.IsVisible(), model)
		}
		want := Hidden
		if model {
			want = Visible
		}
		if c.State() != want {
			t.Fatalf("run %d: state=%s, want %s", run, c.State(), want)
		}
	}
}

func TestToggleTrustsOSVisibility(t *testing.T) {
	c, surface, _ := newTestController()
	c.Show()

	// Hidden by the OS, e.g. a system-wide "hide all".
	surface.visible = false

	c.Toggle()
	if !surface.IsVisible() {
		t.Error("toggle after external hide should show the panel")
	}
	if c.State() != Visible {
		t.Errorf("expected visible, got %s", c.State())
	}
}

func TestFocusResignedAlwaysHides(t *testing.T) {
	c, surface, _ := newTestController()

	c.OnFocusResigned()
	if c.State() != Hidden || surface.hides != 0 {
		t.Errorf("hidden -> hidden should be a no-op, hides=%d", surface.hides)
	}

	c.Show()
	c.OnFocusResigned()
	if c.State() != Hidden || surface.IsVisible() {
		t.Error("visible -> hidden expected after focus resign")
	}
}

func TestFocusResignedDisabled(t *testing.T) {
	surface := &FakeSurface{width: 10, height: 10}
	c := NewController(surface, nil, WithFocusLossDismiss(false))

	c.Show()
	c.OnFocusResigned()
	if !surface.IsVisible() {
		t.Error("panel should stay visible when focus-loss dismiss is off")
	}
}

func TestFocusResignDuringShowIsDropped(t *testing.T) {
	c, surface, _ := newTestController()
	surface.onShow = func() {
		// The OS may report a resign while the panel is being presented.
		c.OnFocusResigned()
	}

	c.Show()
	if !surface.IsVisible() || c.State() != Visible {
		t.Error("show must win over a resign emitted during the show")
	}

	surface.onShow = nil
	c.OnFocusResigned()
	if surface.IsVisible() {
		t.Error("a resign after the show completes must hide")
	}
}

func TestShowCentersOnPointerDisplay(t *testing.T) {
	c, surface, locator := newTestController()
	locator.pointer = Point{2000, 500}

	c.Show()
	want := Point{X: 1920 + (2560-600)/2, Y: (1440 - 400) / 2}
	if surface.pos != want {
		t.Errorf("position = %+v, want %+v", surface.pos, want)
	}
	if len(surface.movedWhile) != 1 || surface.movedWhile[0] {
		t.Error("panel must be positioned before it becomes visible")
	}
}

func TestShowSurvivesLocatorFailures(t *testing.T) {
	c, surface, locator := newTestController()
	locator.pointerErr = errors.New("no seat")

	c.Show()
	want := Point{X: (1920 - 600) / 2, Y: 25 + (1055-400)/2}
	if surface.pos != want {
		t.Errorf("expected primary display fallback %+v, got %+v", want, surface.pos)
	}
	c.Hide()

	locator.displayErr = errors.New("no display")
	c.Show()
	if !surface.IsVisible() {
		t.Error("panel should still show when displays cannot be listed")
	}
}

func TestToggleScenarioWithResign(t *testing.T) {
	c, surface, locator := newTestController()
	locator.pointer = Point{500, 500}

	c.Toggle()
	if c.State() != Visible {
		t.Fatalf("expected visible after toggle, got %s", c.State())
	}
	want := Point{X: (1920 - 600) / 2, Y: 25 + (1055-400)/2}
	if surface.pos != want {
		t.Errorf("position = %+v, want %+v", surface.pos, want)
	}

	c.OnFocusResigned()
	if c.State() != Hidden {
		t.Errorf("expected hidden after resign, got %s", c.State())
	}
}
