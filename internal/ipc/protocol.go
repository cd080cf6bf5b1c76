// Package ipc exposes the command surface over a unix socket. Each request
// and each response is one JSON object on its own line.
package ipc

import (
	"encoding/json"
	"strings"

	"github.com/chess10kp/quickpanel/internal/apps"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

const (
	CmdShowPanel         = "show_panel"
	CmdHidePanel         = "hide_panel"
	CmdTogglePanel       = "toggle_panel"
	CmdSyncTargets       = "sync_targets"
	CmdListTargets       = "list_targets"
	CmdListInstalledApps = "list_installed_apps"
	CmdRefreshApps       = "refresh_installed_apps"
	CmdLaunch            = "launch"
	CmdRecentLaunches    = "recent_launches"
	CmdChord             = "chord"
	CmdPing              = "ping"
)

type Request struct {
	Command string            `json:"command"`
	Targets []launcher.Target `json:"targets,omitempty"`
	ID      string            `json:"id,omitempty"`
	Chord   string            `json:"chord,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

// Response lists are omitted only when nil. An empty list is sent as [].
type Response struct {
	OK       bool                    `json:"ok"`
	Error    string                  `json:"error,omitempty"`
	Stage    string                  `json:"stage,omitempty"`
	Targets  []launcher.Target       `json:"targets,omitzero"`
	Apps     []apps.AppInfo          `json:"apps,omitzero"`
	Launches []launcher.LaunchRecord `json:"launches,omitzero"`
}

// ParseRequest decodes one line. A bare word such as "toggle_panel" is
// accepted as a command without arguments so the socket can be driven from
// a shell.
func ParseRequest(line []byte) (Request, error) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed != "" && !strings.HasPrefix(trimmed, "{") {
		fields := strings.Fields(trimmed)
		req := Request{Command: fields[0]}
		if len(fields) > 1 {
			switch req.Command {
			case CmdChord:
				req.Chord = fields[1]
			case CmdLaunch:
				req.ID = fields[1]
			}
		}
		return req, nil
	}

	var req Request
	err := json.Unmarshal([]byte(trimmed), &req)
	return req, err
}

func errorResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
