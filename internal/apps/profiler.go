package apps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"howett.net/plist"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}

// SystemProfiler lists applications with macOS system_profiler.
type SystemProfiler struct {
	Tool string
	Run  Runner
}

// NewSystemProfiler uses tool, or system_profiler when empty.
func NewSystemProfiler(tool string) *SystemProfiler {
	if tool == "" {
		tool = "system_profiler"
	}
	return &SystemProfiler{Tool: tool, Run: execRunner}
}

func (p *SystemProfiler) List(ctx context.Context) ([]AppInfo, error) {
	start := time.Now()

	out, err := p.Run(ctx, p.Tool, "SPApplicationsDataType", "-xml")
	if err != nil {
		return nil, &CatalogError{Stage: StageInvoke, Err: err}
	}
	if !utf8.Valid(out) {
		return nil, &CatalogError{Stage: StageDecode, Err: errors.New("invalid byte sequence")}
	}

	list, err := ParseProfilerXML(out)
	if err != nil {
		return nil, &CatalogError{Stage: StageParse, Err: err}
	}

	logger.Printf("Listed %d applications via %s in %v", len(list), p.Tool, time.Since(start))
	return list, nil
}

type profilerSection struct {
	Items []profilerItem `plist:"_items"`
}

type profilerItem struct {
	Name     string `plist:"name"`
	AltName  string `plist:"_name"`
	BundleID string `plist:"bundle_identifier"`
	Version  string `plist:"version"`
	Path     string `plist:"path"`
}

// ParseProfilerXML reads the plist printed by
// `system_profiler SPApplicationsDataType -xml`: a top-level array of
// sections, each holding its applications under _items.
func ParseProfilerXML(data []byte) ([]AppInfo, error) {
	var sections []profilerSection
	if _, err := plist.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("unexpected plist format: %w", err)
	}

	list := []AppInfo{}
	for _, section := range sections {
		for _, item := range section.Items {
			list = append(list, AppInfo{
				Name:     appName(item),
				BundleID: item.BundleID,
				Version:  item.Version,
				Path:     item.Path,
			})
		}
	}
	return list, nil
}

func appName(item profilerItem) string {
	switch {
	case item.Name != "":
		return item.Name
	case item.AltName != "":
		return item.AltName
	case item.Path != "":
		base := filepath.Base(item.Path)
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
			return stem
		}
	}
	return "Unknown"
}
