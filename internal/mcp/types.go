package mcp

import "github.com/1broseidon/monswitch/internal/topology"

// ProfileNameInput is the input for tools that act on one stored profile.
type ProfileNameInput struct {
	Name string `json:"name" jsonschema:"required,Profile name as shown by list_profiles"`
}

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// ListProfilesOutput is the output for the list_profiles tool.
type ListProfilesOutput struct {
	Profiles []string `json:"profiles"`
	Count    int      `json:"count"`
}

// SaveProfileOutput is the output for the save_profile tool.
type SaveProfileOutput struct {
	Name string `json:"name"`
	// Overwritten is true when a profile with the same name was replaced.
	Overwritten bool `json:"overwritten"`
}

// LoadOutput is the output for load_profile and undo_load.
type LoadOutput struct {
	Profile    string `json:"profile"`
	Tier       string `json:"tier,omitempty"`
	Matched    bool   `json:"matched"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// DeleteProfileOutput is the output for the delete_profile tool.
type DeleteProfileOutput struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

// MonitorsOutput is the output for profile_details and current_monitors.
type MonitorsOutput struct {
	Profile  string                    `json:"profile,omitempty"`
	Monitors []topology.MonitorDetails `json:"monitors"`
}

// PowerOffOutput is the output for the turn_off_displays tool.
type PowerOffOutput struct {
	Signalled bool `json:"signalled"`
}
