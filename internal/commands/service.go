// Package commands is the command surface the panel UI and the control
// client call into.
package commands

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chess10kp/quickpanel/internal/apps"
	"github.com/chess10kp/quickpanel/internal/hotkey"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

var logger = log.New(log.Writer(), "[COMMANDS] ", log.LstdFlags|log.Lmicroseconds)

// Panel is the panel controller as seen by the command surface.
type Panel interface {
	Show()
	Hide()
	Toggle()
	IsVisible() bool
}

// Launcher starts targets and reports past launches.
type Launcher interface {
	Launch(id string, source launcher.Source) error
	Recent(limit int) ([]launcher.LaunchRecord, error)
	ForgetResolved()
}

// invalidator is implemented by catalogs that keep an on-disk cache.
type invalidator interface {
	Invalidate() error
}

// Dispatcher routes chords and owns the live binding set.
type Dispatcher interface {
	HandleEvent(ev hotkey.Event) bool
	Rebind(toggle hotkey.Chord, targets []hotkey.TargetBinding) error
}

// Poster runs fn on the UI thread.
type Poster func(fn func())

// Inline runs fn immediately on the calling goroutine.
func Inline(fn func()) { fn() }

// Service implements the UI commands.
type Service struct {
	panel      Panel
	registry   *launcher.Registry
	launcher   Launcher
	catalog    apps.Catalog
	dispatcher Dispatcher
	toggle     hotkey.Chord
	post       Poster

	rebindMu sync.Mutex
}

// Options configure New.
type Options struct {
	Panel      Panel
	Registry   *launcher.Registry
	Launcher   Launcher
	Catalog    apps.Catalog
	Dispatcher Dispatcher
	Toggle     hotkey.Chord
	Post       Poster
}

// New creates the service and subscribes the dispatcher to registry
// changes, so every sync re-registers the full chord set.
func New(opts Options) *Service {
	s := &Service{
		panel:      opts.Panel,
		registry:   opts.Registry,
		launcher:   opts.Launcher,
		catalog:    opts.Catalog,
		dispatcher: opts.Dispatcher,
		toggle:     opts.Toggle,
		post:       opts.Post,
	}
	if s.post == nil {
		s.post = Inline
	}
	if s.registry == nil {
		s.registry = launcher.NewRegistry()
	}
	if s.dispatcher != nil {
		s.registry.Subscribe(s.rebind)
	}
	return s
}

// rebind runs on the goroutine that synced, never the UI thread, since
// backend registration may wait on the compositor. It re-reads the registry
// instead of using the notified list, so notifications from racing syncs
// cannot leave an older chord set live.
func (s *Service) rebind(_ []launcher.Target) {
	if err := s.Bind(); err != nil {
		logger.Printf("Rebind finished with problems: %v", err)
	}
}

// Bind registers the toggle chord and the current targets' chords.
func (s *Service) Bind() error {
	if s.dispatcher == nil {
		return nil
	}
	s.rebindMu.Lock()
	defer s.rebindMu.Unlock()
	return s.dispatcher.Rebind(s.toggle, launcher.Bindings(s.registry.Read()))
}

// ShowPanel makes the panel visible. Positioning happens on the UI thread.
func (s *Service) ShowPanel() {
	s.post(s.panel.Show)
}

// HidePanel hides the panel.
func (s *Service) HidePanel() {
	s.post(s.panel.Hide)
}

// TogglePanel flips panel visibility.
func (s *Service) TogglePanel() {
	s.post(s.panel.Toggle)
}

// SyncTargets replaces the target list and returns what was stored.
func (s *Service) SyncTargets(targets []launcher.Target) []launcher.Target {
	if targets == nil {
		targets = []launcher.Target{}
	}
	return s.registry.Sync(targets)
}

// Targets returns the stored target list.
func (s *Service) Targets() []launcher.Target {
	return s.registry.Read()
}

// ListInstalledApps enumerates installed applications. Failures come back
// as *apps.CatalogError and no partial list is returned.
func (s *Service) ListInstalledApps(ctx context.Context) ([]apps.AppInfo, error) {
	if s.catalog == nil {
		return nil, &apps.CatalogError{Stage: apps.StageInvoke, Err: fmt.Errorf("no app catalog configured")}
	}
	return s.catalog.List(ctx)
}

// RefreshInstalledApps drops the catalog cache and every path resolved from
// it, then lists the installed applications again.
func (s *Service) RefreshInstalledApps(ctx context.Context) ([]apps.AppInfo, error) {
	if c, ok := s.catalog.(invalidator); ok {
		if err := c.Invalidate(); err != nil {
			return nil, &apps.CatalogError{Stage: apps.StageInvoke, Err: err}
		}
	}
	if s.launcher != nil {
		s.launcher.ForgetResolved()
	}
	return s.ListInstalledApps(ctx)
}

// Launch starts a target chosen in the UI.
func (s *Service) Launch(id string) error {
	if s.launcher == nil {
		return fmt.Errorf("no launcher configured")
	}
	return s.launcher.Launch(id, launcher.SourceUI)
}

// RecentLaunches returns the newest launches first.
func (s *Service) RecentLaunches(limit int) ([]launcher.LaunchRecord, error) {
	if s.launcher == nil {
		return []launcher.LaunchRecord{}, nil
	}
	return s.launcher.Recent(limit)
}

// DispatchChord feeds a chord pressed outside the daemon, such as a sway
// binding, through the dispatcher.
func (s *Service) DispatchChord(chord string) error {
	c, err := hotkey.ParseChord(chord)
	if err != nil {
		return err
	}
	if s.dispatcher == nil {
		return fmt.Errorf("no hotkey dispatcher configured")
	}
	s.post(func() {
		s.dispatcher.HandleEvent(hotkey.Event{Chord: c, State: hotkey.Pressed})
	})
	return nil
}
