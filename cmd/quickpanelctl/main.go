package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chess10kp/quickpanel/internal/config"
	"github.com/chess10kp/quickpanel/internal/ipc"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

const defaultConfigPath = "~/.config/quickpanel/config.toml"

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	chordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
)

func socketPath() string {
	if path := os.Getenv("QUICKPANEL_SOCKET"); path != "" {
		return path
	}
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err == nil && cfg.SocketPath != "" {
		return cfg.SocketPath
	}
	return config.DefaultConfig.SocketPath
}

// buildRequest turns command line arguments into a socket request.
func buildRequest(args []string, stdin io.Reader) (ipc.Request, error) {
	if len(args) == 0 {
		return ipc.Request{}, errors.New("missing command")
	}

	switch args[0] {
	case "show":
		return ipc.Request{Command: ipc.CmdShowPanel}, nil
	case "hide":
		return ipc.Request{Command: ipc.CmdHidePanel}, nil
	case "toggle":
		return ipc.Request{Command: ipc.CmdTogglePanel}, nil
	case "targets":
		return ipc.Request{Command: ipc.CmdListTargets}, nil
	case "apps":
		if len(args) > 1 {
			if args[1] != "--refresh" {
				return ipc.Request{}, fmt.Errorf("unknown apps flag %q", args[1])
			}
			return ipc.Request{Command: ipc.CmdRefreshApps}, nil
		}
		return ipc.Request{Command: ipc.CmdListInstalledApps}, nil
	case "ping":
		return ipc.Request{Command: ipc.CmdPing}, nil
	case "launch":
		if len(args) < 2 {
			return ipc.Request{}, errors.New("usage: quickpanelctl launch <target-id>")
		}
		return ipc.Request{Command: ipc.CmdLaunch, ID: args[1]}, nil
	case "chord":
		if len(args) < 2 {
			return ipc.Request{}, errors.New("usage: quickpanelctl chord <chord>")
		}
		return ipc.Request{Command: ipc.CmdChord, Chord: args[1]}, nil
	case "recent":
		req := ipc.Request{Command: ipc.CmdRecentLaunches}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return ipc.Request{}, fmt.Errorf("invalid limit %q", args[1])
			}
			req.Limit = n
		}
		return req, nil
	case "sync":
		targets, err := readTargets(args[1:], stdin)
		if err != nil {
			return ipc.Request{}, err
		}
		return ipc.Request{Command: ipc.CmdSyncTargets, Targets: targets}, nil
	}
	return ipc.Request{}, fmt.Errorf("unknown command %q", args[0])
}

// readTargets loads a JSON target list from a file or stdin ("-"). With no
// argument the [[targets]] of the config file are used.
func readTargets(args []string, stdin io.Reader) ([]launcher.Target, error) {
	if len(args) == 0 {
		cfg, err := config.LoadConfig(defaultConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Targets == nil {
			return []launcher.Target{}, nil
		}
		return cfg.Targets, nil
	}

	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}

	var targets []launcher.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("invalid target list: %w", err)
	}
	if targets == nil {
		targets = []launcher.Target{}
	}
	return targets, nil
}

func printTargets(targets []launcher.Target) {
	if len(targets) == 0 {
		fmt.Println(dimStyle.Render("No targets"))
		return
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d targets", len(targets))))
	for _, t := range targets {
		line := nameStyle.Render(t.Name) + " " + dimStyle.Render(string(t.Variant)+" "+t.ID)
		for _, c := range t.Hotkeys {
			line += " " + chordStyle.Render(c.Label())
		}
		if len(t.Aliases) > 0 {
			line += " " + dimStyle.Render("("+strings.Join(t.Aliases, ", ")+")")
		}
		fmt.Println("  " + line)
	}
}

func printResponse(req ipc.Request, resp ipc.Response) {
	switch req.Command {
	case ipc.CmdListTargets, ipc.CmdSyncTargets:
		printTargets(resp.Targets)
	case ipc.CmdListInstalledApps, ipc.CmdRefreshApps:
		fmt.Println(titleStyle.Render(fmt.Sprintf("%d installed apps", len(resp.Apps))))
		for _, app := range resp.Apps {
			fmt.Println("  " + nameStyle.Render(app.Name) + " " + dimStyle.Render(app.Path))
		}
	case ipc.CmdRecentLaunches:
		if len(resp.Launches) == 0 {
			fmt.Println(dimStyle.Render("No launches recorded"))
			return
		}
		for _, r := range resp.Launches {
			fmt.Println("  " + dimStyle.Render(r.LaunchedAt.Local().Format(time.DateTime)) + " " +
				nameStyle.Render(r.Name) + " " + dimStyle.Render(string(r.Source)))
		}
	case ipc.CmdChord:
		// Runs from compositor bindings; stay quiet.
	default:
		fmt.Println(okStyle.Render("ok"))
	}
}

func printUsage() {
	fmt.Println(titleStyle.Render("quickpanelctl") + " - control the quickpanel daemon")
	fmt.Println()
	fmt.Println("Usage: quickpanelctl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  show | hide | toggle   Change panel visibility")
	fmt.Println("  targets                List synced targets")
	fmt.Println("  sync [file.json|-]     Replace targets (default: [[targets]] from config)")
	fmt.Println("  apps [--refresh]       List installed applications, optionally rescanning")
	fmt.Println("  launch <id>            Launch a target")
	fmt.Println("  recent [n]             Show recent launches")
	fmt.Println("  chord <chord>          Press a chord, e.g. Control+Alt+Meta+KeyN")
	fmt.Println("  ping                   Check that the daemon is running")
	fmt.Println()
	fmt.Println(dimStyle.Render("Socket: " + socketPath()))
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		if len(args) == 0 {
			os.Exit(1)
		}
		return
	}

	req, err := buildRequest(args, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: ")+err.Error())
		os.Exit(2)
	}

	resp, err := ipc.NewClient(socketPath()).Send(req)
	if err != nil {
		msg := err.Error()
		if resp.Stage != "" {
			msg = fmt.Sprintf("%s (stage: %s)", msg, resp.Stage)
		}
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: ")+msg)
		os.Exit(1)
	}
	printResponse(req, resp)
}
