// Package layer wraps the parts of gtk-layer-shell the panel window needs.
package layer

/*
#cgo pkg-config: gtk-layer-shell-0
#include <gtk-layer-shell.h>
*/
import "C"
import "unsafe"

// IsSupported reports whether the compositor speaks wlr-layer-shell. It is
// false under X11 and on Wayland compositors without the protocol.
func IsSupported() bool {
	return C.gtk_layer_is_supported() != 0
}

// InitForWindow initializes a window as a layer shell surface. It must be
// called before the window is realized.
func InitForWindow(window unsafe.Pointer) {
	C.gtk_layer_init_for_window((*C.GtkWindow)(window))
}

// SetLayer sets the layer for a layer shell surface
func SetLayer(window unsafe.Pointer, layer Layer) {
	C.gtk_layer_set_layer((*C.GtkWindow)(window), C.GtkLayerShellLayer(layer))
}

// SetMonitor pins the surface to a GdkMonitor. Margins are measured from
// that monitor's edges.
func SetMonitor(window unsafe.Pointer, monitor unsafe.Pointer) {
	C.gtk_layer_set_monitor((*C.GtkWindow)(window), (*C.GdkMonitor)(monitor))
}

// SetAnchor sets which edges to anchor the window to
func SetAnchor(window unsafe.Pointer, edge Edge, anchorTo bool) {
	var anchor C.gboolean
	if anchorTo {
		anchor = 1
	}
	C.gtk_layer_set_anchor((*C.GtkWindow)(window), C.GtkLayerShellEdge(edge), anchor)
}

// SetExclusiveZone sets the exclusive zone for the surface. Zero keeps
// the surface from pushing other windows aside.
func SetExclusiveZone(window unsafe.Pointer, zone int) {
	C.gtk_layer_set_exclusive_zone((*C.GtkWindow)(window), C.int(zone))
}

// SetMargin sets the margin for a specific edge
func SetMargin(window unsafe.Pointer, edge Edge, margin int) {
	C.gtk_layer_set_margin((*C.GtkWindow)(window), C.GtkLayerShellEdge(edge), C.int(margin))
}

// SetKeyboardMode sets the keyboard interactivity mode
func SetKeyboardMode(window unsafe.Pointer, mode KeyboardMode) {
	C.gtk_layer_set_keyboard_mode((*C.GtkWindow)(window), C.GtkLayerShellKeyboardMode(mode))
}

// SetupOverlay turns window into a floating overlay that takes keyboard
// focus while mapped and is positioned by Place.
func SetupOverlay(window unsafe.Pointer) {
	InitForWindow(window)
	SetLayer(window, LayerOverlay)
	SetKeyboardMode(window, KeyboardModeExclusive)
	SetAnchor(window, EdgeTop, true)
	SetAnchor(window, EdgeLeft, true)
	SetExclusiveZone(window, 0)
}

// Place puts an overlay set up by SetupOverlay at x, y relative to the
// top-left corner of monitor.
func Place(window unsafe.Pointer, monitor unsafe.Pointer, x, y int) {
	if monitor != nil {
		SetMonitor(window, monitor)
	}
	SetMargin(window, EdgeLeft, x)
	SetMargin(window, EdgeTop, y)
}

// Layer represents a layer shell layer
type Layer int

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

// Edge represents a screen edge
type Edge int

const (
	EdgeLeft   Edge = 0
	EdgeRight  Edge = 1
	EdgeTop    Edge = 2
	EdgeBottom Edge = 3
)

// KeyboardMode represents keyboard focus mode
type KeyboardMode int

const (
	KeyboardModeNone      KeyboardMode = 0
	KeyboardModeExclusive KeyboardMode = 1
	KeyboardModeOnDemand  KeyboardMode = 2
)
