//go:build darwin

package xhotkey

import (
	oshotkey "golang.design/x/hotkey"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

var modifierMap = map[hotkey.Modifier]oshotkey.Modifier{
	hotkey.ModControl: oshotkey.ModCtrl,
	hotkey.ModShift:   oshotkey.ModShift,
	hotkey.ModAlt:     oshotkey.ModOption,
	hotkey.ModMeta:    oshotkey.ModCmd,
}
