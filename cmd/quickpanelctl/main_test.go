package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chess10kp/quickpanel/internal/ipc"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		wantErr bool
	}{
		{[]string{"show"}, ipc.CmdShowPanel, false},
		{[]string{"hide"}, ipc.CmdHidePanel, false},
		{[]string{"toggle"}, ipc.CmdTogglePanel, false},
		{[]string{"targets"}, ipc.CmdListTargets, false},
		{[]string{"apps"}, ipc.CmdListInstalledApps, false},
		{[]string{"apps", "--refresh"}, ipc.CmdRefreshApps, false},
		{[]string{"apps", "--all"}, "", true},
		{[]string{"launch", "t1"}, ipc.CmdLaunch, false},
		{[]string{"launch"}, "", true},
		{[]string{"chord", "Control+KeyN"}, ipc.CmdChord, false},
		{[]string{"chord"}, "", true},
		{[]string{"recent", "5"}, ipc.CmdRecentLaunches, false},
		{[]string{"recent", "zero"}, "", true},
		{[]string{"reboot"}, "", true},
		{nil, "", true},
	}

	for _, tt := range tests {
		req, err := buildRequest(tt.args, strings.NewReader(""))
		if (err != nil) != tt.wantErr {
			t.Errorf("buildRequest(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if req.Command != tt.command {
			t.Errorf("buildRequest(%v) command = %q, want %q", tt.args, req.Command, tt.command)
		}
	}
}

func TestBuildRequestCarriesArguments(t *testing.T) {
	req, _ := buildRequest([]string{"launch", "t1"}, nil)
	if req.ID != "t1" {
		t.Errorf("ID = %q", req.ID)
	}
	req, _ = buildRequest([]string{"chord", "Alt+Meta+KeyK"}, nil)
	if req.Chord != "Alt+Meta+KeyK" {
		t.Errorf("Chord = %q", req.Chord)
	}
	req, _ = buildRequest([]string{"recent", "3"}, nil)
	if req.Limit != 3 {
		t.Errorf("Limit = %d", req.Limit)
	}
}

func TestSyncReadsTargets(t *testing.T) {
	payload := `[{"id":"t1","name":"Notes","variant":"App","aliases":["n"],
		"hotkeys":[{"modifiers":["Control","Alt","Meta"],"keyboard_key":"KeyN"}],
		"path":"/System/Applications/Notes.app"}]`

	req, err := buildRequest([]string{"sync", "-"}, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("sync from stdin: %v", err)
	}
	if len(req.Targets) != 1 || req.Targets[0].Name != "Notes" || len(req.Targets[0].Hotkeys) != 1 {
		t.Errorf("targets = %+v", req.Targets)
	}

	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	req, err = buildRequest([]string{"sync", path}, nil)
	if err != nil {
		t.Fatalf("sync from file: %v", err)
	}
	if req.Targets == nil || len(req.Targets) != 0 {
		t.Errorf("empty list should sync as empty, got %#v", req.Targets)
	}

	if _, err := buildRequest([]string{"sync", "-"}, strings.NewReader("{not json")); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}
