//go:build windows

package xhotkey

import (
	oshotkey "golang.design/x/hotkey"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

var modifierMap = map[hotkey.Modifier]oshotkey.Modifier{
	hotkey.ModControl: oshotkey.ModCtrl,
	hotkey.ModShift:   oshotkey.ModShift,
	hotkey.ModAlt:     oshotkey.ModAlt,
	hotkey.ModMeta:    oshotkey.ModWin,
}
