// Package core wires the panel daemon together and owns the GTK main loop.
package core

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/quickpanel/internal/apps"
	"github.com/chess10kp/quickpanel/internal/commands"
	"github.com/chess10kp/quickpanel/internal/config"
	"github.com/chess10kp/quickpanel/internal/hotkey"
	"github.com/chess10kp/quickpanel/internal/hotkey/xhotkey"
	"github.com/chess10kp/quickpanel/internal/ipc"
	"github.com/chess10kp/quickpanel/internal/launcher"
	"github.com/chess10kp/quickpanel/internal/layer"
	"github.com/chess10kp/quickpanel/internal/panel"
	"github.com/chess10kp/quickpanel/internal/sway"
)

var logger = log.New(log.Writer(), "[CORE] ", log.LstdFlags|log.Lmicroseconds)

const (
	backendSway = "sway"
	backendX11  = "x11"

	swayConnectTimeout = 3 * time.Second
)

// App is the panel daemon.
type App struct {
	config  *config.Config
	running atomic.Bool
	sigChan chan os.Signal

	window     *PanelWindow
	controller *panel.Controller
	registry   *launcher.Registry
	launcher   *launcher.Launcher
	history    *launcher.History
	dispatcher *hotkey.Dispatcher
	service    *commands.Service
	ipc        *ipc.Server
}

// NewApp creates a new application
func NewApp(cfg *config.Config) (*App, error) {
	return &App{
		config:  cfg,
		sigChan: make(chan os.Signal, 1),
	}, nil
}

// Run starts the daemon and blocks until the GTK main loop exits.
func (a *App) Run() error {
	a.running.Store(true)

	signal.Notify(a.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-a.sigChan
		logger.Printf("Received signal: %v", sig)
		a.Quit()
	}()

	logger.Println("quickpanel starting...")

	gtk.Init(nil)
	if err := a.initialize(); err != nil {
		a.cleanup()
		return err
	}

	go a.monitorGTKMainLoop()

	gtk.Main()
	return nil
}

// post runs fn on the GTK main thread.
func post(fn func()) {
	glib.IdleAdd(func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("Panic in main-thread callback: %v", r)
			}
		}()
		fn()
	})
}

func (a *App) initialize() error {
	cfg := a.config
	logger.Println("Initializing components...")

	SetupStyles(cfg.Panel.Styling)
	LoadCustomCSS(cfg.Panel.CustomCSS)

	a.registry = launcher.NewRegistry()

	catalog := apps.New(apps.Options{
		Source:      apps.Source(cfg.Catalog.Source),
		Tool:        cfg.Catalog.Tool,
		DesktopDirs: cfg.Catalog.DesktopDirs,
		CacheFile:   cfg.Catalog.CacheFile,
		MaxAgeHours: cfg.Catalog.CacheMaxAgeHours,
	})

	a.launcher = a.newLauncher(catalog)

	var service *commands.Service
	window, err := NewPanelWindow(cfg, a.registry, func(id string) error {
		return service.Launch(id)
	}, useLayerShell(cfg.Panel.LayerShell, layer.IsSupported()))
	if err != nil {
		return err
	}
	a.window = window

	backend, locator := a.newHotkeyBackend()
	a.controller = panel.NewController(window, locator, panel.WithFocusLossDismiss(cfg.Panel.HideOnFocusLoss))
	window.Attach(a.controller)

	a.dispatcher = hotkey.NewDispatcher(backend, a.controller, a.launcher)

	service = commands.New(commands.Options{
		Panel:      a.controller,
		Registry:   a.registry,
		Launcher:   a.launcher,
		Catalog:    catalog,
		Dispatcher: a.dispatcher,
		Toggle:     cfg.Panel.ToggleHotkey,
		Post:       post,
	})
	a.service = service

	a.registry.Subscribe(func([]launcher.Target) {
		post(func() {
			if a.window.IsVisible() {
				a.window.Refresh()
			}
		})
	})

	if err := cfg.CheckTargets(); err != nil {
		logger.Printf("Warning: configured targets have hotkey conflicts: %v", err)
	}
	// The registry notification binds the toggle chord and the target chords.
	stored := service.SyncTargets(cfg.Targets)
	logger.Printf("Loaded %d targets from config", len(stored))

	server := ipc.NewServer(service, cfg.SocketPath)
	if err := server.Start(); err != nil {
		logger.Printf("Failed to start IPC server: %v", err)
	} else {
		a.ipc = server
	}

	logger.Println("Initialization complete")
	return nil
}

func (a *App) newLauncher(catalog apps.Catalog) *launcher.Launcher {
	cfg := a.config.Launch
	opener := launcher.NewCommandOpener(cfg.Opener)

	opts := []launcher.Option{
		launcher.WithDesktopOpener(launcher.NewCommandOpener(cfg.DesktopLauncher)),
	}

	if cfg.UsePortal {
		portal, err := launcher.ConnectPortal()
		if err != nil {
			logger.Printf("Desktop portal unavailable, opening URLs with %s: %v", opener.Command, err)
		} else {
			opts = append(opts, launcher.WithURLOpener(&launcher.FallbackOpener{Primary: portal, Fallback: opener}))
		}
	}

	resolver, err := launcher.NewResolver(catalog, cfg.ResolveCacheSize)
	if err != nil {
		logger.Printf("Failed to create path resolver: %v", err)
	} else {
		opts = append(opts, launcher.WithResolver(resolver))
	}

	if cfg.HistoryDB != "" {
		history, err := launcher.OpenHistory(cfg.HistoryDB)
		if err != nil {
			logger.Printf("Launch history disabled: %v", err)
		} else {
			a.history = history
			opts = append(opts, launcher.WithHistory(history))
		}
	}

	return launcher.New(a.registry, opener, opts...)
}

// newHotkeyBackend picks the chord backend and the display locator that
// matches it.
func (a *App) newHotkeyBackend() (hotkey.Backend, panel.DisplayLocator) {
	kind := selectBackend(a.config.Hotkeys.Backend, os.Getenv("SWAYSOCK"))

	if kind == backendSway {
		ctx, cancel := context.WithTimeout(context.Background(), swayConnectTimeout)
		defer cancel()

		binder, err := sway.Connect(ctx, a.config.Hotkeys.ClientCommand)
		if err == nil {
			var locator panel.DisplayLocator = gdkLocator{}
			if outputs, err := sway.ConnectOutputs(ctx); err == nil {
				locator = outputs
			} else {
				logger.Printf("Failed to query sway outputs, using GDK monitors: %v", err)
			}
			logger.Println("Using sway hotkey backend")
			return binder, locator
		}
		logger.Printf("Failed to connect to sway, falling back to X11 hotkeys: %v", err)
	}

	logger.Println("Using OS hotkey backend")
	return xhotkey.New(func(ev hotkey.Event) {
		post(func() {
			a.dispatcher.HandleEvent(ev)
		})
	}), gdkLocator{}
}

func selectBackend(configured, swaySocket string) string {
	switch configured {
	case backendSway, backendX11:
		return configured
	}
	if swaySocket != "" {
		return backendSway
	}
	return backendX11
}

func useLayerShell(mode string, supported bool) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return supported
}

// Quit shuts the daemon down. It is safe to call from any goroutine.
func (a *App) Quit() {
	if !a.running.Swap(false) {
		return
	}
	logger.Println("Shutting down...")

	if a.ipc != nil {
		a.ipc.Stop()
	}

	post(func() {
		a.cleanup()
		gtk.MainQuit()
	})
}

// cleanup releases OS hotkeys, waits for pending launches and closes the
// history database.
func (a *App) cleanup() {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			logger.Printf("Failed to release hotkeys: %v", err)
		}
	}
	if a.window != nil {
		a.window.Destroy()
	}
	if a.launcher != nil {
		a.launcher.Close()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Printf("Failed to close launch history: %v", err)
		}
	}
}

// monitorGTKMainLoop warns when queued main-thread callbacks stop running.
func (a *App) monitorGTKMainLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if !a.running.Load() {
			return
		}

		done := make(chan struct{}, 1)
		glib.IdleAdd(func() {
			done <- struct{}{}
		})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			logger.Printf("[MONITOR] WARNING: GTK main loop appears to be BLOCKED (callback not executed in 2s)")
		}
	}
}
