// Package mcp exposes the profile operations as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

const (
	ServerName    = "monswitch"
	ServerVersion = "0.1.0"
)

// Service is the profile API the tools call. It is satisfied by the
// in-process switcher and by the daemon client.
type Service interface {
	Save(ctx context.Context, name string) error
	Load(ctx context.Context, name string) (switcher.LoadResult, error)
	Undo(ctx context.Context) (switcher.LoadResult, error)
	Delete(name string) error
	List() ([]string, error)
	Exists(name string) (bool, error)
	Details(name string) ([]topology.MonitorDetails, error)
	Current(ctx context.Context) ([]topology.MonitorDetails, error)
	PowerOff(ctx context.Context) error
}

// Server is the MCP server for display profile switching.
type Server struct {
	mcpServer *mcpsdk.Server
	svc       Service
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by svc.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		logger: logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio, blocking until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunTransport serves on an arbitrary transport.
func (s *Server) RunTransport(ctx context.Context, t mcpsdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_profiles",
		Description: "List the names of all saved display profiles.",
	}, s.handleListProfiles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_profile",
		Description: "Capture the current monitor arrangement (layout, resolution, refresh rate, rotation, scaling) and save it under a name. An existing profile with the same name is replaced.",
	}, s.handleSaveProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_profile",
		Description: "Apply a saved display profile. Monitors are matched by their EDID identity when adapter ids changed since the profile was saved. The previous arrangement is recorded so undo_load can restore it.",
	}, s.handleLoadProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_profile",
		Description: "Delete a saved display profile.",
	}, s.handleDeleteProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "profile_details",
		Description: "Describe the monitors stored in a profile (name, resolution, refresh rate, position, rotation, DPI scale) without applying it.",
	}, s.handleProfileDetails)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "current_monitors",
		Description: "Describe the monitors that are active right now.",
	}, s.handleCurrentMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "undo_load",
		Description: "Restore the monitor arrangement that was active before the most recent profile load.",
	}, s.handleUndoLoad)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "turn_off_displays",
		Description: "Put all displays into power-saving mode. They wake on the next keyboard or mouse input.",
	}, s.handleTurnOffDisplays)
}
