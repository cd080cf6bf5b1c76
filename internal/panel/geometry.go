package panel

// Point is a position in global screen coordinates.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned rectangle in global screen coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive so adjacent displays never both claim a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Display is one monitor as seen by the windowing system.
type Display struct {
	Name    string
	Bounds  Rect
	Visible Rect // bounds minus docks, menu bars and panels
	Primary bool
}

func (d Display) usable() Rect {
	if d.Visible.Width > 0 && d.Visible.Height > 0 {
		return d.Visible
	}
	return d.Bounds
}

// DisplayAt returns the display containing p, falling back to the primary
// display, then to the first one.
func DisplayAt(displays []Display, p Point) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	for _, d := range displays {
		if d.Bounds.Contains(p) {
			return d, true
		}
	}
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	return displays[0], true
}

// CenterPosition computes the top-left corner that centers a w×h window in
// the visible area of the display under the pointer.
func CenterPosition(displays []Display, pointer Point, w, h int) (Point, bool) {
	d, ok := DisplayAt(displays, pointer)
	if !ok {
		return Point{}, false
	}
	area := d.usable()
	return Point{
		X: area.X + (area.Width-w)/2,
		Y: area.Y + (area.Height-h)/2,
	}, true
}
