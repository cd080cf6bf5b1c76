package sway

import (
	"context"
	"fmt"

	"github.com/joshuarubin/go-sway"

	"github.com/chess10kp/quickpanel/internal/panel"
)

// Querier is the subset of the sway client used to locate displays.
type Querier interface {
	GetOutputs(ctx context.Context) ([]sway.Output, error)
	GetWorkspaces(ctx context.Context) ([]sway.Workspace, error)
}

// Outputs implements panel.DisplayLocator for sway. Wayland clients cannot
// read the global pointer position, so the focused output stands in for the
// display under the pointer.
type Outputs struct {
	client Querier
}

// NewOutputs creates a locator from a sway client.
func NewOutputs(client Querier) *Outputs {
	return &Outputs{client: client}
}

// ConnectOutputs opens the sway IPC socket and returns a locator.
func ConnectOutputs(ctx context.Context) (*Outputs, error) {
	client, err := sway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sway: %w", err)
	}
	return NewOutputs(client), nil
}

func toRect(r sway.Rect) panel.Rect {
	return panel.Rect{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}
}

// Displays lists active outputs. The visible area is the rect of the
// workspace shown on the output, which excludes bars.
func (o *Outputs) Displays() ([]panel.Display, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()

	outputs, err := o.client.GetOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_outputs: %w", err)
	}

	workspaceRects := make(map[string]panel.Rect)
	if workspaces, err := o.client.GetWorkspaces(ctx); err == nil {
		for _, ws := range workspaces {
			if ws.Visible {
				workspaceRects[ws.Output] = toRect(ws.Rect)
			}
		}
	} else {
		logger.Printf("get_workspaces failed, using full output bounds: %v", err)
	}

	displays := make([]panel.Display, 0, len(outputs))
	for _, out := range outputs {
		if !out.Active {
			continue
		}
		displays = append(displays, panel.Display{
			Name:    out.Name,
			Bounds:  toRect(out.Rect),
			Visible: workspaceRects[out.Name],
			Primary: out.Focused,
		})
	}
	return displays, nil
}

// PointerPosition returns the center of the focused output.
func (o *Outputs) PointerPosition() (panel.Point, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()

	outputs, err := o.client.GetOutputs(ctx)
	if err != nil {
		return panel.Point{}, fmt.Errorf("get_outputs: %w", err)
	}
	for _, out := range outputs {
		if out.Active && out.Focused {
			r := toRect(out.Rect)
			return panel.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}, nil
		}
	}
	return panel.Point{}, fmt.Errorf("no focused output")
}
