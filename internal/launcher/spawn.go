package launcher

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Opener hands a path or URL to the operating system.
type Opener interface {
	Open(target string) error
}

// CommandOpener runs Command with Args and the target appended, detached
// from the daemon's session.
type CommandOpener struct {
	Command string
	Args    []string
}

// NewCommandOpener splits a command line such as "gio open" into a command
// and its leading arguments.
func NewCommandOpener(commandLine string) *CommandOpener {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &CommandOpener{Command: defaultOpener()}
	}
	return &CommandOpener{Command: fields[0], Args: fields[1:]}
}

func (o *CommandOpener) Open(target string) error {
	args := append(append([]string{}, o.Args...), target)
	cmd := exec.Command(o.Command, args...)
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", o.Command, err)
	}

	// Reap the child so it does not linger as a zombie.
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Printf("%s %s exited: %v", o.Command, target, err)
		}
	}()
	return nil
}

const (
	portalDest   = "org.freedesktop.portal.Desktop"
	portalPath   = "/org/freedesktop/portal/desktop"
	portalMethod = "org.freedesktop.portal.OpenURI.OpenURI"
)

// BusObject is the subset of a D-Bus object used by PortalOpener.
type BusObject interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// PortalOpener opens URLs through the desktop portal's OpenURI interface.
type PortalOpener struct {
	obj BusObject
}

// ConnectPortal connects to the session bus.
func ConnectPortal() (*PortalOpener, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewPortalOpener(conn.Object(portalDest, dbus.ObjectPath(portalPath))), nil
}

// NewPortalOpener wraps a portal object.
func NewPortalOpener(obj BusObject) *PortalOpener {
	return &PortalOpener{obj: obj}
}

func (p *PortalOpener) Open(uri string) error {
	var handle dbus.ObjectPath
	call := p.obj.Call(portalMethod, 0, "", uri, map[string]dbus.Variant{})
	if call.Err != nil {
		return fmt.Errorf("portal OpenURI failed: %w", call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return fmt.Errorf("portal OpenURI reply: %w", err)
	}
	return nil
}

// FallbackOpener tries Primary and uses Fallback when it fails.
type FallbackOpener struct {
	Primary  Opener
	Fallback Opener
}

func (f *FallbackOpener) Open(target string) error {
	if f.Primary != nil {
		err := f.Primary.Open(target)
		if err == nil {
			return nil
		}
		logger.Printf("Primary opener failed for %s, falling back: %v", target, err)
	}
	return f.Fallback.Open(target)
}
