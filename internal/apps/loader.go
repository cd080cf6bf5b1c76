package apps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := user.Current()
		if err == nil {
			return filepath.Join(home.HomeDir, path[1:])
		}
	}
	return path
}

// DefaultDesktopDirs are the XDG application directories.
func DefaultDesktopDirs() []string {
	return []string{
		filepath.Join(os.Getenv("HOME"), ".local", "share", "applications"),
		"/usr/share/applications",
		"/usr/local/share/applications",
	}
}

// DesktopEntries lists applications from .desktop files.
type DesktopEntries struct {
	dirs []string
}

// NewDesktopEntries scans dirs, or the XDG defaults when empty.
func NewDesktopEntries(dirs []string) *DesktopEntries {
	if len(dirs) == 0 {
		dirs = DefaultDesktopDirs()
	}
	expanded := make([]string, len(dirs))
	for i, d := range dirs {
		expanded[i] = expandPath(d)
	}
	return &DesktopEntries{dirs: expanded}
}

func (d *DesktopEntries) List(ctx context.Context) ([]AppInfo, error) {
	start := time.Now()
	loaded := make(map[string]bool)
	seenIDs := make(map[string]bool)

	// Earlier directories shadow later ones with the same desktop id.
	var desktopFiles []string
	for _, dir := range d.dirs {
		if err := ctx.Err(); err != nil {
			return nil, &CatalogError{Stage: StageInvoke, Err: err}
		}
		_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}
			id := desktopID(path)
			if loaded[path] || seenIDs[id] {
				return nil
			}
			desktopFiles = append(desktopFiles, path)
			loaded[path] = true
			seenIDs[id] = true
			return nil
		})
	}

	var wg sync.WaitGroup
	appChan := make(chan AppInfo, 100)
	semaphore := make(chan struct{}, 10)

	for _, filePath := range desktopFiles {
		wg.Add(1)
		go func(fp string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			app, hidden, err := parseDesktopFile(fp)
			if err == nil && !hidden {
				appChan <- app
			}
		}(filePath)
	}

	go func() {
		wg.Wait()
		close(appChan)
	}()

	list := []AppInfo{}
	for app := range appChan {
		list = append(list, app)
	}

	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})

	logger.Printf("Loaded %d applications from %d desktop files in %v", len(list), len(desktopFiles), time.Since(start))
	return list, nil
}

func desktopID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".desktop")
}

// parseDesktopFile reads the [Desktop Entry] group of a .desktop file.
func parseDesktopFile(path string) (AppInfo, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return AppInfo{}, false, err
	}
	defer file.Close()

	app := AppInfo{
		BundleID: desktopID(path),
		Path:     path,
	}
	hidden := false
	hasExec := false
	inEntry := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"")

		switch key {
		case "Name":
			app.Name = value
		case "Exec":
			hasExec = value != ""
		case "X-AppVersion":
			app.Version = value
		case "Type":
			if value != "Application" {
				hidden = true
			}
		case "NoDisplay", "Hidden":
			if strings.EqualFold(value, "true") {
				hidden = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return AppInfo{}, false, err
	}

	if app.Name == "" || !hasExec {
		return AppInfo{}, false, fmt.Errorf("invalid desktop file %s: missing Name or Exec", path)
	}
	return app, hidden, nil
}

// Cached keeps the last catalog result in a JSON file and serves it while it
// is younger than the max age.
type Cached struct {
	inner       Catalog
	cacheFile   string
	maxAgeHours int

	mu  sync.Mutex
	now func() time.Time
}

type cacheFile struct {
	Apps      []AppInfo `json:"apps"`
	Timestamp string    `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewCached wraps inner with a cache stored at path.
func NewCached(inner Catalog, path string, maxAgeHours int) *Cached {
	return &Cached{
		inner:       inner,
		cacheFile:   expandPath(path),
		maxAgeHours: maxAgeHours,
		now:         time.Now,
	}
}

func (c *Cached) List(ctx context.Context) ([]AppInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if list, ok := c.loadFromCache(); ok {
		return list, nil
	}

	list, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if saveErr := c.saveToCache(list); saveErr != nil {
		logger.Printf("Warning: failed to save app cache: %v", saveErr)
	}
	return list, nil
}

// Invalidate removes the cache file so the next List queries the system.
func (c *Cached) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.cacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

func (c *Cached) loadFromCache() ([]AppInfo, bool) {
	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		return nil, false
	}

	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		logger.Printf("Cache miss: failed to unmarshal cache file: %v", err)
		return nil, false
	}

	cacheTime, err := time.Parse(time.RFC3339, cache.Timestamp)
	if err != nil {
		return nil, false
	}
	age := c.now().Sub(cacheTime)
	if age.Hours() >= float64(c.maxAgeHours) {
		logger.Printf("Cache miss: cache expired (age: %v, max: %dh)", age, c.maxAgeHours)
		return nil, false
	}

	logger.Printf("Cache hit: %d apps (age: %v)", len(cache.Apps), age)
	return cache.Apps, true
}

func (c *Cached) saveToCache(list []AppInfo) error {
	if err := os.MkdirAll(filepath.Dir(c.cacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cacheFile{
		Apps:      list,
		Timestamp: c.now().Format(time.RFC3339),
		Version:   "1.0",
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tempFile := c.cacheFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tempFile, c.cacheFile); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}
