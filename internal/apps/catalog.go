// Package apps enumerates the applications installed on the machine.
package apps

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
)

var logger = log.New(log.Writer(), "[APPS] ", log.LstdFlags|log.Lmicroseconds)

// AppInfo describes one installed application.
type AppInfo struct {
	Name     string `json:"name"`
	BundleID string `json:"bundle_id,omitempty"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Catalog lists installed applications.
type Catalog interface {
	List(ctx context.Context) ([]AppInfo, error)
}

// Stage names the step of a catalog query that failed.
type Stage string

const (
	StageInvoke Stage = "invoke"
	StageDecode Stage = "decode"
	StageParse  Stage = "parse"
)

// CatalogError is returned when the catalog cannot be produced. No partial
// list accompanies it.
type CatalogError struct {
	Stage Stage
	Err   error
}

func (e *CatalogError) Error() string {
	switch e.Stage {
	case StageInvoke:
		return fmt.Sprintf("failed to run app enumeration: %v", e.Err)
	case StageDecode:
		return fmt.Sprintf("app enumeration output is not valid UTF-8: %v", e.Err)
	default:
		return fmt.Sprintf("failed to parse app list: %v", e.Err)
	}
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// FindByName returns the first app whose name or bundle id equals name,
// ignoring case.
func FindByName(list []AppInfo, name string) (AppInfo, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AppInfo{}, false
	}
	for _, a := range list {
		if strings.EqualFold(a.Name, name) || (a.BundleID != "" && strings.EqualFold(a.BundleID, name)) {
			return a, true
		}
	}
	return AppInfo{}, false
}

// Source selects which catalog implementation to use.
type Source string

const (
	SourceAuto           Source = "auto"
	SourceSystemProfiler Source = "system_profiler"
	SourceDesktop        Source = "desktop"
)

// Options configure New.
type Options struct {
	Source      Source
	Tool        string
	DesktopDirs []string
	CacheFile   string
	MaxAgeHours int
}

// New builds the catalog for the running platform, wrapped in the file cache
// when a cache file is configured.
func New(opts Options) Catalog {
	source := opts.Source
	if source == "" || source == SourceAuto {
		if runtime.GOOS == "darwin" {
			source = SourceSystemProfiler
		} else {
			source = SourceDesktop
		}
	}

	var c Catalog
	switch source {
	case SourceSystemProfiler:
		c = NewSystemProfiler(opts.Tool)
	default:
		c = NewDesktopEntries(opts.DesktopDirs)
	}

	if opts.CacheFile == "" {
		return c
	}
	return NewCached(c, opts.CacheFile, opts.MaxAgeHours)
}
