package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/monswitch/internal/runtimepath"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

// Service is the profile API the daemon serves.
type Service interface {
	Save(ctx context.Context, name string) error
	Load(ctx context.Context, name string) (switcher.LoadResult, error)
	Undo(ctx context.Context) (switcher.LoadResult, error)
	Delete(name string) error
	List() ([]string, error)
	Details(name string) ([]topology.MonitorDetails, error)
	Current(ctx context.Context) ([]topology.MonitorDetails, error)
	PowerOff(ctx context.Context) error
}

// requestTimeout bounds how long a request waits for the display subsystem.
const requestTimeout = 25 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	svc          Service
	logger       *slog.Logger
	startTime    time.Time
	reloadChan   chan<- struct{}
	hotkeyCount  func() int
	lastProfile  string
	stateMu      sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default runtime socket.
func NewServer(svc Service, reloadChan chan<- struct{}, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, svc, reloadChan, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, svc Service, reloadChan chan<- struct{}, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		svc:        svc,
		logger:     logger.With("component", "ipc"),
		startTime:  time.Now(),
		reloadChan: reloadChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetHotkeyCount installs the source of the hotkey count in GET_STATUS.
func (s *Server) SetHotkeyCount(fn func() int) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.hotkeyCount = fn
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListProfiles:
		names, err := s.svc.List()
		if err != nil {
			return errorResponse(err)
		}
		return ok(ProfilesData{Profiles: names})
	case CommandSaveProfile:
		return s.withProfile(req.Payload, func(name string) *Response {
			if err := s.svc.Save(ctx, name); err != nil {
				return errorResponse(err)
			}
			return ok(nil)
		})
	case CommandLoadProfile:
		return s.withProfile(req.Payload, func(name string) *Response {
			res, err := s.svc.Load(ctx, name)
			if err != nil {
				return errorResponse(err)
			}
			s.SetLastProfile(name)
			return ok(res)
		})
	case CommandDeleteProfile:
		return s.withProfile(req.Payload, func(name string) *Response {
			if err := s.svc.Delete(name); err != nil {
				return errorResponse(err)
			}
			return ok(nil)
		})
	case CommandProfileDetails:
		return s.withProfile(req.Payload, func(name string) *Response {
			monitors, err := s.svc.Details(name)
			if err != nil {
				return errorResponse(err)
			}
			return ok(MonitorsData{Monitors: monitors})
		})
	case CommandCurrentMonitors:
		monitors, err := s.svc.Current(ctx)
		if err != nil {
			return errorResponse(err)
		}
		return ok(MonitorsData{Monitors: monitors})
	case CommandUndo:
		res, err := s.svc.Undo(ctx)
		if err != nil {
			return errorResponse(err)
		}
		return ok(res)
	case CommandPowerOff:
		if err := s.svc.PowerOff(ctx); err != nil {
			return errorResponse(err)
		}
		return ok(nil)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) withProfile(payload json.RawMessage, fn func(name string) *Response) *Response {
	var p ProfilePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid profile payload: %v", err))
	}
	if p.Name == "" {
		return NewErrorResponse("name is required")
	}
	return fn(p.Name)
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// handleReload asks the daemon loop to reload its configuration.
func (s *Server) handleReload() *Response {
	s.logger.Info("IPC: received RELOAD command")
	if s.reloadChan == nil {
		return NewErrorResponse("reload is not supported")
	}
	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	s.stateMu.Lock()
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		LastProfile:   s.lastProfile,
	}
	if s.hotkeyCount != nil {
		status.HotkeyCount = s.hotkeyCount()
	}
	s.stateMu.Unlock()

	if names, err := s.svc.List(); err == nil {
		status.ProfileCount = len(names)
	}
	return ok(status)
}

// SetLastProfile records a profile loaded outside IPC, e.g. by a hotkey.
func (s *Server) SetLastProfile(name string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastProfile = name
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
