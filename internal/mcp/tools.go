package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

func requireName(tool, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%s: name is required", tool)
	}
	return name, nil
}

// toolError rewrites the sentinel errors into messages an agent can act on.
func toolError(tool string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w (use list_profiles to see saved profiles)", tool, err)
	case errors.Is(err, switcher.ErrNothingToUndo):
		return fmt.Errorf("%s: %w; no profile has been loaded since history was last cleared", tool, err)
	}
	return fmt.Errorf("%s: %w", tool, err)
}

func loadOutput(r switcher.LoadResult) LoadOutput {
	return LoadOutput{
		Profile:    r.Profile,
		Tier:       r.Tier,
		Matched:    r.Matched,
		SnapshotID: r.SnapshotID,
	}
}

func monitorsOrEmpty(m []topology.MonitorDetails) []topology.MonitorDetails {
	if m == nil {
		return []topology.MonitorDetails{}
	}
	return m
}

func (s *Server) handleListProfiles(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListProfilesOutput, error) {
	names, err := s.svc.List()
	if err != nil {
		return nil, ListProfilesOutput{}, toolError("list_profiles", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListProfilesOutput{Profiles: names, Count: len(names)}, nil
}

func (s *Server) handleSaveProfile(ctx context.Context, _ *mcpsdk.CallToolRequest, args ProfileNameInput) (*mcpsdk.CallToolResult, SaveProfileOutput, error) {
	name, err := requireName("save_profile", args.Name)
	if err != nil {
		return nil, SaveProfileOutput{}, err
	}
	existed, err := s.svc.Exists(name)
	if err != nil {
		return nil, SaveProfileOutput{}, toolError("save_profile", err)
	}
	if err := s.svc.Save(ctx, name); err != nil {
		return nil, SaveProfileOutput{}, toolError("save_profile", err)
	}
	s.logger.Info("profile saved via mcp", "profile", name, "overwritten", existed)
	return nil, SaveProfileOutput{Name: name, Overwritten: existed}, nil
}

func (s *Server) handleLoadProfile(ctx context.Context, _ *mcpsdk.CallToolRequest, args ProfileNameInput) (*mcpsdk.CallToolResult, LoadOutput, error) {
	name, err := requireName("load_profile", args.Name)
	if err != nil {
		return nil, LoadOutput{}, err
	}
	res, err := s.svc.Load(ctx, name)
	if err != nil {
		return nil, LoadOutput{}, toolError("load_profile", err)
	}
	s.logger.Info("profile loaded via mcp", "profile", name, "tier", res.Tier)
	return nil, loadOutput(res), nil
}

func (s *Server) handleDeleteProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args ProfileNameInput) (*mcpsdk.CallToolResult, DeleteProfileOutput, error) {
	name, err := requireName("delete_profile", args.Name)
	if err != nil {
		return nil, DeleteProfileOutput{}, err
	}
	if err := s.svc.Delete(name); err != nil {
		return nil, DeleteProfileOutput{}, toolError("delete_profile", err)
	}
	return nil, DeleteProfileOutput{Name: name, Deleted: true}, nil
}

func (s *Server) handleProfileDetails(_ context.Context, _ *mcpsdk.CallToolRequest, args ProfileNameInput) (*mcpsdk.CallToolResult, MonitorsOutput, error) {
	name, err := requireName("profile_details", args.Name)
	if err != nil {
		return nil, MonitorsOutput{}, err
	}
	monitors, err := s.svc.Details(name)
	if err != nil {
		return nil, MonitorsOutput{}, toolError("profile_details", err)
	}
	return nil, MonitorsOutput{Profile: name, Monitors: monitorsOrEmpty(monitors)}, nil
}

func (s *Server) handleCurrentMonitors(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, MonitorsOutput, error) {
	monitors, err := s.svc.Current(ctx)
	if err != nil {
		return nil, MonitorsOutput{}, toolError("current_monitors", err)
	}
	return nil, MonitorsOutput{Monitors: monitorsOrEmpty(monitors)}, nil
}

func (s *Server) handleUndoLoad(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, LoadOutput, error) {
	res, err := s.svc.Undo(ctx)
	if err != nil {
		return nil, LoadOutput{}, toolError("undo_load", err)
	}
	s.logger.Info("undo via mcp", "profile", res.Profile)
	return nil, loadOutput(res), nil
}

func (s *Server) handleTurnOffDisplays(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, PowerOffOutput, error) {
	if err := s.svc.PowerOff(ctx); err != nil {
		return nil, PowerOffOutput{}, toolError("turn_off_displays", err)
	}
	return nil, PowerOffOutput{Signalled: true}, nil
}
