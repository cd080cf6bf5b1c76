package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chess10kp/quickpanel/internal/apps"
	"github.com/chess10kp/quickpanel/internal/launcher"
)

var logger = log.New(log.Writer(), "[IPC] ", log.LstdFlags|log.Lmicroseconds)

const (
	maxLineSize    = 4 << 20
	catalogTimeout = 30 * time.Second
)

// Commands is the command surface served on the socket.
type Commands interface {
	ShowPanel()
	HidePanel()
	TogglePanel()
	SyncTargets(targets []launcher.Target) []launcher.Target
	Targets() []launcher.Target
	ListInstalledApps(ctx context.Context) ([]apps.AppInfo, error)
	RefreshInstalledApps(ctx context.Context) ([]apps.AppInfo, error)
	Launch(id string) error
	RecentLaunches(limit int) ([]launcher.LaunchRecord, error)
	DispatchChord(chord string) error
}

type Server struct {
	commands   Commands
	socketPath string
	listener   net.Listener
	running    atomic.Bool

	mu     sync.Mutex
	active map[net.Conn]struct{}
	conns  sync.WaitGroup
}

func NewServer(commands Commands, socketPath string) *Server {
	return &Server{
		commands:   commands,
		socketPath: socketPath,
		active:     make(map[net.Conn]struct{}),
	}
}

func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("IPC server already running")
	}

	// Remove a stale socket left by a previous run
	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	s.listener = listener
	s.running.Store(true)

	logger.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptConnections()
	return nil
}

func (s *Server) acceptConnections() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.mu.Lock()
		if !s.running.Load() {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.active[conn] = struct{}{}
		s.conns.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.conns.Done()
			defer func() {
				s.mu.Lock()
				delete(s.active, conn)
				s.mu.Unlock()
			}()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("Panic handling connection: %v", r)
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		req, err := ParseRequest(line)
		if err != nil {
			resp = errorResponse(fmt.Errorf("invalid request: %w", err))
		} else {
			resp = s.Handle(req)
		}

		if err := enc.Encode(resp); err != nil {
			logger.Printf("Error writing response: %v", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("Error reading from connection: %v", err)
	}
}

// Handle runs one request against the command surface.
func (s *Server) Handle(req Request) Response {
	switch req.Command {
	case CmdPing:
		return Response{OK: true}
	case CmdShowPanel:
		s.commands.ShowPanel()
		return Response{OK: true}
	case CmdHidePanel:
		s.commands.HidePanel()
		return Response{OK: true}
	case CmdTogglePanel:
		s.commands.TogglePanel()
		return Response{OK: true}
	case CmdSyncTargets:
		return Response{OK: true, Targets: nonNil(s.commands.SyncTargets(req.Targets))}
	case CmdListTargets:
		return Response{OK: true, Targets: nonNil(s.commands.Targets())}
	case CmdListInstalledApps, CmdRefreshApps:
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		list := s.commands.ListInstalledApps
		if req.Command == CmdRefreshApps {
			list = s.commands.RefreshInstalledApps
		}
		found, err := list(ctx)
		if err != nil {
			resp := errorResponse(err)
			var catErr *apps.CatalogError
			if errors.As(err, &catErr) {
				resp.Stage = string(catErr.Stage)
			}
			return resp
		}
		return Response{OK: true, Apps: nonNil(found)}
	case CmdLaunch:
		if req.ID == "" {
			return errorResponse(errors.New("launch requires an id"))
		}
		if err := s.commands.Launch(req.ID); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true}
	case CmdRecentLaunches:
		records, err := s.commands.RecentLaunches(req.Limit)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Launches: nonNil(records)}
	case CmdChord:
		if err := s.commands.DispatchChord(req.Chord); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true}
	case "":
		return errorResponse(errors.New("missing command"))
	default:
		return errorResponse(fmt.Errorf("unknown command %q", req.Command))
	}
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.active {
		conn.Close()
	}
	s.mu.Unlock()
	s.conns.Wait()

	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	logger.Println("IPC server stopped")
	return nil
}
