package hotkey

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseChord(t *testing.T) {
	testCases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Control+Alt+Meta+KeyN", "Control+Alt+Meta+KeyN", false},
		{"Meta+Alt+Control+KeyN", "Control+Alt+Meta+KeyN", false},
		{"Alt+Meta+KeyK", "Alt+Meta+KeyK", false},
		{"Option+Cmd+k", "Alt+Meta+KeyK", false},
		{"ctrl+shiftleft+5", "Control+Shift+Digit5", false},
		{"F12", "F12", false},
		{"Super+Space", "Meta+Space", false},
		{"", "", true},
		{"Alt+", "", true},
		{"Alt+Hyper+KeyK", "", true},
		{"Alt+KeyNN", "", true},
		{"Alt+Meta", "", true},
	}

	for _, tc := range testCases {
		c, err := ParseChord(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseChord(%q): expected error, got %s", tc.input, c)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChord(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if c.String() != tc.want {
			t.Errorf("ParseChord(%q) = %s, want %s", tc.input, c, tc.want)
		}
	}
}

func TestChordEqualityIgnoresModifierOrder(t *testing.T) {
	a, err := NewChord("KeyN", "Control", "Alt", "Meta")
	if err != nil {
		t.Fatalf("NewChord: %v", err)
	}
	b, err := NewChord("KeyN", "MetaLeft", "Control", "AltRight")
	if err != nil {
		t.Fatalf("NewChord: %v", err)
	}
	if a != b {
		t.Errorf("expected %s == %s", a, b)
	}

	c := MustChord("Control+Alt+KeyN")
	if a == c {
		t.Errorf("expected %s != %s", a, c)
	}
}

func TestUnknownKeySuggestion(t *testing.T) {
	_, err := ParseKey("KeyNN")
	if err == nil {
		t.Fatal("expected error for KeyNN")
	}
	if !strings.Contains(err.Error(), `did you mean "KeyN"`) {
		t.Errorf("expected suggestion in %q", err.Error())
	}

	_, err = ParseModifier("Contrl")
	if err == nil {
		t.Fatal("expected error for Contrl")
	}
	if !strings.Contains(err.Error(), `"Control"`) {
		t.Errorf("expected Control suggestion in %q", err.Error())
	}
}

func TestChordLabel(t *testing.T) {
	testCases := []struct {
		chord string
		want  string
	}{
		{"Control+Alt+Meta+KeyN", "⌃⌥⌘N"},
		{"Shift+Digit1", "⇧1"},
		{"Meta+ArrowUp", "⌘▲"},
		{"F5", "F5"},
	}
	for _, tc := range testCases {
		if got := MustChord(tc.chord).Label(); got != tc.want {
			t.Errorf("Label(%s) = %q, want %q", tc.chord, got, tc.want)
		}
	}
}

func TestChordJSONWireFormat(t *testing.T) {
	var c Chord
	input := `{"modifiers":["Control","Alt","Meta"],"keyboard_key":"KeyN"}`
	if err := json.Unmarshal([]byte(input), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c != MustChord("Control+Alt+Meta+KeyN") {
		t.Errorf("unexpected chord %s", c)
	}

	if err := json.Unmarshal([]byte(`{"modifiers":["Alt"],"keyboard_key":"Nope"}`), &c); err == nil {
		t.Error("expected error for unknown key")
	}

	data, err := json.Marshal(MustChord("KeyA"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"modifiers":[],"keyboard_key":"KeyA"}` {
		t.Errorf("unexpected encoding %s", data)
	}
}

func TestKeyClassification(t *testing.T) {
	if !Key("KeyQ").IsLetter() || Key("Digit1").IsLetter() {
		t.Error("IsLetter misclassified")
	}
	if !Key("Digit0").IsDigit() || Key("KeyD").IsDigit() {
		t.Error("IsDigit misclassified")
	}
	if Key("F11").FunctionNumber() != 11 {
		t.Error("expected F11 -> 11")
	}
	if Key("Fx").FunctionNumber() != 0 {
		t.Error("expected Fx -> 0")
	}
}
