package core

import (
	"fmt"

	"github.com/gotk3/gotk3/gdk"

	"github.com/chess10kp/quickpanel/internal/panel"
)

// gdkLocator answers pointer and monitor questions through GDK. On
// Wayland GDK cannot see a global pointer position, so the sway locator is
// preferred there.
type gdkLocator struct{}

func (gdkLocator) PointerPosition() (panel.Point, error) {
	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return panel.Point{}, fmt.Errorf("failed to get display: %w", err)
	}
	seat, err := display.GetDefaultSeat()
	if err != nil {
		return panel.Point{}, fmt.Errorf("failed to get seat: %w", err)
	}
	pointer, err := seat.GetPointer()
	if err != nil {
		return panel.Point{}, fmt.Errorf("failed to get pointer: %w", err)
	}

	var screen *gdk.Screen
	var x, y int
	if err := pointer.GetPosition(&screen, &x, &y); err != nil {
		return panel.Point{}, fmt.Errorf("failed to read pointer position: %w", err)
	}
	return panel.Point{X: x, Y: y}, nil
}

func (gdkLocator) Displays() ([]panel.Display, error) {
	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to get display: %w", err)
	}

	n := display.GetNMonitors()
	displays := make([]panel.Display, 0, n)
	for i := 0; i < n; i++ {
		monitor, err := display.GetMonitor(i)
		if err != nil || monitor == nil {
			continue
		}
		displays = append(displays, panel.Display{
			Name:    fmt.Sprintf("monitor-%d", i),
			Bounds:  toRect(monitor.GetGeometry()),
			Visible: toRect(monitor.GetWorkarea()),
			Primary: monitor.IsPrimary(),
		})
	}
	return displays, nil
}

func toRect(r *gdk.Rectangle) panel.Rect {
	if r == nil {
		return panel.Rect{}
	}
	return panel.Rect{X: r.GetX(), Y: r.GetY(), Width: r.GetWidth(), Height: r.GetHeight()}
}
