//go:build linux

package xhotkey

import (
	oshotkey "golang.design/x/hotkey"

	"github.com/chess10kp/quickpanel/internal/hotkey"
)

// Alt is Mod1 and Super/Meta is Mod4 on X11.
var modifierMap = map[hotkey.Modifier]oshotkey.Modifier{
	hotkey.ModControl: oshotkey.ModCtrl,
	hotkey.ModShift:   oshotkey.ModShift,
	hotkey.ModAlt:     oshotkey.Mod1,
	hotkey.ModMeta:    oshotkey.Mod4,
}
