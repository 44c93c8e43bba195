package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/monswitch/internal/runtimepath"
	"github.com/1broseidon/monswitch/internal/topology"
)

// ErrDaemonUnavailable is returned when no daemon answers on the socket.
var ErrDaemonUnavailable = errors.New("daemon is not running")

// DefaultTimeout covers a full profile load, which may wait for the
// display subsystem and for the OS to settle after a commit.
const DefaultTimeout = 30 * time.Second

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, &RemoteError{Code: resp.Code, Message: resp.Error}
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ListProfiles() ([]string, error) {
	var data ProfilesData
	if err := c.call(CommandListProfiles, nil, &data); err != nil {
		return nil, err
	}
	return data.Profiles, nil
}

func (c *Client) SaveProfile(name string) error {
	return c.call(CommandSaveProfile, ProfilePayload{Name: name}, nil)
}

func (c *Client) LoadProfile(name string) (LoadData, error) {
	var data LoadData
	err := c.call(CommandLoadProfile, ProfilePayload{Name: name}, &data)
	return data, err
}

func (c *Client) DeleteProfile(name string) error {
	return c.call(CommandDeleteProfile, ProfilePayload{Name: name}, nil)
}

func (c *Client) ProfileDetails(name string) ([]topology.MonitorDetails, error) {
	var data MonitorsData
	if err := c.call(CommandProfileDetails, ProfilePayload{Name: name}, &data); err != nil {
		return nil, err
	}
	return data.Monitors, nil
}

func (c *Client) CurrentMonitors() ([]topology.MonitorDetails, error) {
	var data MonitorsData
	if err := c.call(CommandCurrentMonitors, nil, &data); err != nil {
		return nil, err
	}
	return data.Monitors, nil
}

// Undo reverts the most recent profile load.
func (c *Client) Undo() (LoadData, error) {
	var data LoadData
	err := c.call(CommandUndo, nil, &data)
	return data, err
}

func (c *Client) PowerOff() error {
	return c.call(CommandPowerOff, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
