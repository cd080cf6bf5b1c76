package sway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joshuarubin/go-sway"

	"github.com/chess10kp/quickpanel/internal/hotkey"
	"github.com/chess10kp/quickpanel/internal/panel"
)

type MockSway struct {
	commands   []string
	reject     string
	outputs    []sway.Output
	workspaces []sway.Workspace
}

func (m *MockSway) RunCommand(ctx context.Context, command string) ([]sway.RunCommandReply, error) {
	m.commands = append(m.commands, command)
	if m.reject != "" && strings.Contains(command, m.reject) {
		return []sway.RunCommandReply{{Success: false, Error: "binding conflict"}}, nil
	}
	return []sway.RunCommandReply{{Success: true}}, nil
}

func (m *MockSway) GetOutputs(ctx context.Context) ([]sway.Output, error) {
	return m.outputs, nil
}

func (m *MockSway) GetWorkspaces(ctx context.Context) ([]sway.Workspace, error) {
	return m.workspaces, nil
}

func TestKeysym(t *testing.T) {
	testCases := []struct {
		chord string
		want  string
	}{
		{"Alt+Meta+KeyK", "Mod1+Mod4+k"},
		{"Control+Alt+Meta+KeyN", "Ctrl+Mod1+Mod4+n"},
		{"Shift+Digit3", "Shift+3"},
		{"Meta+Space", "Mod4+space"},
		{"Control+PageUp", "Ctrl+Prior"},
		{"F7", "F7"},
	}
	for _, tc := range testCases {
		got, err := Keysym(hotkey.MustChord(tc.chord))
		if err != nil {
			t.Errorf("Keysym(%s): %v", tc.chord, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Keysym(%s) = %q, want %q", tc.chord, got, tc.want)
		}
	}
}

func TestBinderRegisterAndUnregister(t *testing.T) {
	mock := &MockSway{}
	b := NewBinder(mock, "quickpanelctl chord")
	c := hotkey.MustChord("Alt+Meta+KeyK")

	if err := b.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := b.Register(c); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if len(mock.commands) != 1 {
		t.Fatalf("expected one sway command, got %v", mock.commands)
	}
	want := "bindsym --no-repeat Mod1+Mod4+k exec quickpanelctl chord Alt+Meta+KeyK"
	if mock.commands[0] != want {
		t.Errorf("command = %q, want %q", mock.commands[0], want)
	}

	if err := b.Unregister(c); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if mock.commands[1] != "unbindsym Mod1+Mod4+k" {
		t.Errorf("unexpected unbind command %q", mock.commands[1])
	}
}

func TestBinderRejectedBindingIsClaimed(t *testing.T) {
	mock := &MockSway{reject: "Mod4+space"}
	b := NewBinder(mock, "quickpanelctl chord")

	err := b.Register(hotkey.MustChord("Meta+Space"))
	if !errors.Is(err, hotkey.ErrChordClaimed) {
		t.Errorf("expected ErrChordClaimed, got %v", err)
	}
}

func TestOutputsLocator(t *testing.T) {
	mock := &MockSway{
		outputs: []sway.Output{
			{Name: "eDP-1", Active: true, Rect: sway.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
			{Name: "DP-1", Active: true, Focused: true, Rect: sway.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
			{Name: "HDMI-1", Active: false},
		},
		workspaces: []sway.Workspace{
			{Name: "1", Output: "eDP-1", Visible: true, Rect: sway.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}},
		},
	}
	o := NewOutputs(mock)

	displays, err := o.Displays()
	if err != nil {
		t.Fatalf("Displays: %v", err)
	}
	if len(displays) != 2 {
		t.Fatalf("expected 2 active displays, got %d", len(displays))
	}
	if displays[0].Visible != (panel.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}) {
		t.Errorf("unexpected visible rect %+v", displays[0].Visible)
	}

	p, err := o.PointerPosition()
	if err != nil {
		t.Fatalf("PointerPosition: %v", err)
	}
	if p != (panel.Point{X: 1920 + 1280, Y: 720}) {
		t.Errorf("unexpected pointer %+v", p)
	}
}
