package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload          CommandType = "RELOAD"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListProfiles    CommandType = "LIST_PROFILES"
	CommandSaveProfile     CommandType = "SAVE_PROFILE"
	CommandLoadProfile     CommandType = "LOAD_PROFILE"
	CommandDeleteProfile   CommandType = "DELETE_PROFILE"
	CommandProfileDetails  CommandType = "PROFILE_DETAILS"
	CommandCurrentMonitors CommandType = "CURRENT_MONITORS"
	CommandUndo            CommandType = "UNDO"
	CommandPowerOff        CommandType = "POWER_OFF"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	// Code classifies well-known failures so the client can rebuild them.
	Code ErrorCode `json:"code,omitempty"`
}

// ErrorCode names a failure class that survives the socket.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeNothingToUndo ErrorCode = "NOTHING_TO_UNDO"
)

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	LastProfile   string `json:"last_profile,omitempty"`
	ProfileCount  int    `json:"profile_count"`
	HotkeyCount   int    `json:"hotkey_count"`
}

// ProfilePayload names the profile a command acts on.
type ProfilePayload struct {
	Name string `json:"name"`
}

// ProfilesData is returned by LIST_PROFILES.
type ProfilesData struct {
	Profiles []string `json:"profiles"`
}

// MonitorsData is returned by PROFILE_DETAILS and CURRENT_MONITORS.
type MonitorsData struct {
	Monitors []topology.MonitorDetails `json:"monitors"`
}

// LoadData is returned by LOAD_PROFILE and UNDO.
type LoadData = switcher.LoadResult

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// errorResponse classifies err for the client.
func errorResponse(err error) *Response {
	resp := NewErrorResponse(err.Error())
	switch {
	case errors.Is(err, store.ErrNotFound):
		resp.Code = CodeNotFound
	case errors.Is(err, switcher.ErrNothingToUndo):
		resp.Code = CodeNothingToUndo
	}
	return resp
}

// RemoteError is a failure reported by the daemon.
type RemoteError struct {
	Code    ErrorCode
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon error: " + e.Message
}

// Is lets errors.Is match the sentinel behind a classified failure.
func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeNotFound:
		return target == store.ErrNotFound
	case CodeNothingToUndo:
		return target == switcher.ErrNothingToUndo
	}
	return false
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
