package core

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/quickpanel/internal/config"
	"github.com/chess10kp/quickpanel/internal/launcher"
	"github.com/chess10kp/quickpanel/internal/layer"
)

// panelControl is the subset of the panel controller the window reports to.
type panelControl interface {
	Hide()
	OnFocusResigned()
}

// PanelWindow is the GTK window behind the panel. It implements
// panel.Surface and must only be touched from the GTK main thread.
type PanelWindow struct {
	window     *gtk.Window
	entry      *gtk.Entry
	list       *gtk.ListBox
	scrolled   *gtk.ScrolledWindow
	layerShell bool
	width      int
	height     int

	registry *launcher.Registry
	launch   func(id string) error
	control  panelControl

	rows []launcher.Target
}

// NewPanelWindow builds the hidden panel window. launch is called with a
// target id when the user picks one.
func NewPanelWindow(cfg *config.Config, registry *launcher.Registry, launch func(id string) error, layerShell bool) (*PanelWindow, error) {
	window, err := gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	window.SetTitle(cfg.AppName)
	window.SetDecorated(false)
	window.SetSkipTaskbarHint(true)
	window.SetSkipPagerHint(true)
	window.SetKeepAbove(true)
	window.SetResizable(false)
	window.SetName("panel-window")
	window.SetDefaultSize(cfg.Panel.Width, cfg.Panel.Height)

	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}
	window.Add(box)

	entry, err := gtk.EntryNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	entry.SetPlaceholderText("Type an alias and press Enter...")
	entry.SetName("panel-entry")
	box.PackStart(entry, false, false, 0)

	scrolled, err := gtk.ScrolledWindowNew(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrolled window: %w", err)
	}
	scrolled.SetPolicy(gtk.POLICY_NEVER, gtk.POLICY_AUTOMATIC)
	scrolled.SetVExpand(true)
	box.PackStart(scrolled, true, true, 0)

	list, err := gtk.ListBoxNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create target list: %w", err)
	}
	list.SetName("target-list")
	list.SetVExpand(true)
	scrolled.Add(list)

	if layerShell {
		layer.SetupOverlay(unsafe.Pointer(window.Native()))
	}

	w := &PanelWindow{
		window:     window,
		entry:      entry,
		list:       list,
		scrolled:   scrolled,
		layerShell: layerShell,
		width:      cfg.Panel.Width,
		height:     cfg.Panel.Height,
		registry:   registry,
		launch:     launch,
	}
	w.setupSignals()
	return w, nil
}

// Attach connects the window to the controller that drives it.
func (w *PanelWindow) Attach(control panelControl) {
	w.control = control
}

func (w *PanelWindow) setupSignals() {
	w.entry.Connect("activate", func() {
		w.onActivate()
	})

	w.entry.Connect("changed", func() {
		text, _ := w.entry.GetText()
		w.selectAlias(text)
	})

	w.entry.Connect("key-press-event", func(entry *gtk.Entry, event *gdk.Event) bool {
		return w.onKeyPress(gdk.EventKeyNewFromEvent(event))
	})

	w.list.Connect("row-activated", func(list *gtk.ListBox, row *gtk.ListBoxRow) {
		w.activateIndex(row.GetIndex())
	})

	w.window.Connect("focus-out-event", func(window *gtk.Window, event *gdk.Event) bool {
		if w.control != nil {
			w.control.OnFocusResigned()
		}
		return false
	})

	// The panel lives for the whole session; closing it only hides it.
	w.window.Connect("delete-event", func() bool {
		w.dismiss()
		return true
	})
}

func (w *PanelWindow) dismiss() {
	if w.control != nil {
		w.control.Hide()
		return
	}
	w.Hide()
}

func (w *PanelWindow) onKeyPress(event *gdk.EventKey) bool {
	switch event.KeyVal() {
	case gdk.KEY_Escape:
		w.dismiss()
		return true
	case gdk.KEY_Down:
		w.navigate(1)
		return true
	case gdk.KEY_Up:
		w.navigate(-1)
		return true
	}
	return false
}

// onActivate launches the first exact alias match for the typed text, or
// the selected row when nothing matches.
func (w *PanelWindow) onActivate() {
	text, _ := w.entry.GetText()
	if matches := w.registry.Lookup(text); len(matches) > 0 {
		w.launchTarget(matches[0])
		return
	}
	if row := w.list.GetSelectedRow(); row != nil {
		w.activateIndex(row.GetIndex())
	}
}

func (w *PanelWindow) activateIndex(index int) {
	if index < 0 || index >= len(w.rows) {
		return
	}
	w.launchTarget(w.rows[index])
}

func (w *PanelWindow) launchTarget(t launcher.Target) {
	w.dismiss()
	if err := w.launch(t.ID); err != nil {
		logger.Printf("Failed to launch %s: %v", t.Name, err)
	}
}

// selectAlias highlights the row of the first target whose name or alias
// equals text. The list order never changes.
func (w *PanelWindow) selectAlias(text string) {
	for i, t := range w.rows {
		if t.Matches(text) {
			if row := w.list.GetRowAtIndex(i); row != nil {
				w.list.SelectRow(row)
			}
			return
		}
	}
}

func (w *PanelWindow) navigate(direction int) {
	if len(w.rows) == 0 {
		return
	}

	next := 0
	if selected := w.list.GetSelectedRow(); selected != nil {
		next = (selected.GetIndex() + direction + len(w.rows)) % len(w.rows)
	} else if direction < 0 {
		next = len(w.rows) - 1
	}
	if row := w.list.GetRowAtIndex(next); row != nil {
		w.list.SelectRow(row)
	}
}

// Refresh rebuilds the target list from the registry.
func (w *PanelWindow) Refresh() {
	w.rows = w.registry.Read()

	children := w.list.GetChildren()
	children.Foreach(func(child interface{}) {
		if widget, ok := child.(gtk.IWidget); ok {
			w.list.Remove(widget)
		}
	})

	for _, t := range w.rows {
		row, err := createTargetRow(t)
		if err != nil {
			logger.Printf("Failed to create row for %s: %v", t.Name, err)
			row, _ = gtk.ListBoxRowNew()
		}
		w.list.Add(row)
	}
	w.list.ShowAll()

	if first := w.list.GetRowAtIndex(0); first != nil {
		w.list.SelectRow(first)
	}
}

func createTargetRow(t launcher.Target) (*gtk.ListBoxRow, error) {
	row, err := gtk.ListBoxRowNew()
	if err != nil {
		return nil, err
	}
	row.SetName("target-row")

	box, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 8)
	if err != nil {
		return nil, err
	}
	box.SetMarginStart(8)
	box.SetMarginEnd(8)
	box.SetMarginTop(6)
	box.SetMarginBottom(6)

	name, err := gtk.LabelNew(t.Name)
	if err != nil {
		return nil, err
	}
	name.SetHAlign(gtk.ALIGN_START)
	box.PackStart(name, true, true, 0)

	if hint := rowHint(t); hint != "" {
		sub, err := gtk.LabelNew(hint)
		if err != nil {
			return nil, err
		}
		sub.SetName("target-hint")
		sub.SetHAlign(gtk.ALIGN_END)
		box.PackEnd(sub, false, false, 0)
	}

	row.Add(box)
	return row, nil
}

// rowHint renders aliases and chord labels shown next to a target.
func rowHint(t launcher.Target) string {
	var parts []string
	if len(t.Aliases) > 0 {
		parts = append(parts, strings.Join(t.Aliases, ", "))
	}
	for _, c := range t.Hotkeys {
		parts = append(parts, c.Label())
	}
	return strings.Join(parts, "  ")
}

// Size returns the window size, or the configured size before the first map.
func (w *PanelWindow) Size() (int, int) {
	width, height := w.window.GetSize()
	if width <= 1 || height <= 1 {
		return w.width, w.height
	}
	return width, height
}

// Move places the top-left corner at x, y in global coordinates. Layer
// surfaces cannot be moved, so the monitor and margins are set instead.
func (w *PanelWindow) Move(x, y int) {
	if !w.layerShell {
		w.window.Move(x, y)
		return
	}

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		logger.Printf("Failed to get display: %v", err)
		return
	}
	monitor, err := display.GetMonitorAtPoint(x, y)
	if err != nil || monitor == nil {
		layer.Place(unsafe.Pointer(w.window.Native()), nil, x, y)
		return
	}
	geom := monitor.GetGeometry()
	layer.Place(unsafe.Pointer(w.window.Native()), unsafe.Pointer(monitor.Native()), x-geom.GetX(), y-geom.GetY())
}

// Show maps the window and takes keyboard focus.
func (w *PanelWindow) Show() {
	w.entry.SetText("")
	w.Refresh()
	w.window.ShowAll()
	w.window.Present()
	w.entry.GrabFocus()
}

// Hide unmaps the window without destroying it.
func (w *PanelWindow) Hide() {
	w.window.Hide()
	w.entry.SetText("")
}

func (w *PanelWindow) IsVisible() bool {
	return w.window.IsVisible()
}

// Destroy releases the window at shutdown.
func (w *PanelWindow) Destroy() {
	w.window.Destroy()
}
