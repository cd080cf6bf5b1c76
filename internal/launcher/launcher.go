package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrNoPath        = errors.New("target has no path")
)

const historyQueueSize = 64

// Launcher starts registry targets. A launch is fire-and-forget: success
// means the spawn was issued, nothing more.
type Launcher struct {
	registry      *Registry
	opener        Opener
	urlOpener     Opener
	desktopOpener Opener
	resolver      *Resolver
	history       *History

	resolveTimeout time.Duration
	pending        sync.WaitGroup

	// History writes go through one goroutine so a busy database never
	// stalls the thread that issued the launch.
	mu      sync.Mutex
	closed  bool
	records chan LaunchRecord
}

type Option func(*Launcher)

// WithURLOpener routes Url targets through o.
func WithURLOpener(o Opener) Option {
	return func(l *Launcher) { l.urlOpener = o }
}

// WithDesktopOpener routes .desktop paths through o, e.g. "gio launch".
func WithDesktopOpener(o Opener) Option {
	return func(l *Launcher) { l.desktopOpener = o }
}

// WithResolver fills in paths for App targets saved without one.
func WithResolver(r *Resolver) Option {
	return func(l *Launcher) { l.resolver = r }
}

// WithHistory records every issued launch.
func WithHistory(h *History) Option {
	return func(l *Launcher) { l.history = h }
}

// New creates a launcher over registry that opens paths with opener.
func New(registry *Registry, opener Opener, opts ...Option) *Launcher {
	l := &Launcher{
		registry:       registry,
		opener:         opener,
		resolveTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resolver != nil && registry != nil {
		// Names and aliases may now point at different apps.
		registry.Subscribe(func([]Target) {
			l.resolver.Purge()
		})
	}
	if l.history != nil {
		l.records = make(chan LaunchRecord, historyQueueSize)
		go l.writeHistory()
	}
	return l
}

// LaunchByID launches a target in response to a hotkey.
func (l *Launcher) LaunchByID(id string) error {
	return l.Launch(id, SourceHotkey)
}

// Launch starts the target with the given id. When the path has to be looked
// up in the app catalog the lookup runs in the background and failures are
// only logged.
func (l *Launcher) Launch(id string, source Source) error {
	t, ok := l.registry.ByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}

	if t.Path != "" {
		return l.spawn(t, t.Path, source)
	}
	if t.Variant != VariantApp || l.resolver == nil {
		return fmt.Errorf("%w: %s", ErrNoPath, t.Name)
	}
	if path, ok := l.resolver.Cached(t); ok {
		return l.spawn(t, path, source)
	}

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("Panic resolving %q: %v", t.Name, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), l.resolveTimeout)
		defer cancel()

		path, err := l.resolver.Resolve(ctx, t)
		if err != nil {
			logger.Printf("Cannot launch %q: %v", t.Name, fmt.Errorf("%w: %v", ErrNoPath, err))
			return
		}
		if err := l.spawn(t, path, source); err != nil {
			logger.Printf("Launch of %q failed: %v", t.Name, err)
		}
	}()
	return nil
}

// Wait blocks until background lookups and queued history writes have
// finished.
func (l *Launcher) Wait() {
	l.pending.Wait()
}

// Close stops accepting history writes and waits for pending work.
func (l *Launcher) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.records != nil {
			close(l.records)
		}
	}
	l.mu.Unlock()
	l.pending.Wait()
}

// ForgetResolved drops every cached catalog lookup.
func (l *Launcher) ForgetResolved() {
	if l.resolver != nil {
		l.resolver.Purge()
	}
}

func (l *Launcher) openerFor(t Target, path string) Opener {
	switch {
	case t.Variant == VariantURL && l.urlOpener != nil:
		return l.urlOpener
	case strings.HasSuffix(path, ".desktop") && l.desktopOpener != nil:
		return l.desktopOpener
	default:
		return l.opener
	}
}

func (l *Launcher) spawn(t Target, path string, source Source) error {
	if err := l.openerFor(t, path).Open(path); err != nil {
		return fmt.Errorf("launch %q: %w", t.Name, err)
	}
	logger.Printf("Launched %q (%s) from %s", t.Name, path, source)

	if l.history != nil {
		l.queueRecord(LaunchRecord{
			TargetID:   t.ID,
			Name:       t.Name,
			Path:       path,
			Source:     source,
			LaunchedAt: l.history.now(),
		})
	}
	return nil
}

// queueRecord hands a launch to the history writer without blocking. A full
// queue drops the record.
func (l *Launcher) queueRecord(r LaunchRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.pending.Add(1)
	select {
	case l.records <- r:
	default:
		l.pending.Done()
		logger.Printf("Warning: launch history queue full, dropping launch of %s", r.TargetID)
	}
}

func (l *Launcher) writeHistory() {
	for r := range l.records {
		if err := l.history.insert(r); err != nil {
			logger.Printf("Warning: %v", err)
		}
		l.pending.Done()
	}
}

// Recent returns the launch history, newest first.
func (l *Launcher) Recent(limit int) ([]LaunchRecord, error) {
	if l.history == nil {
		return []LaunchRecord{}, nil
	}
	return l.history.Recent(limit)
}
