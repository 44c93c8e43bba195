package ipc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

type fakeService struct {
	mu       sync.Mutex
	profiles map[string]bool
	calls    []string
	undoErr  error
}

func newFakeService(names ...string) *fakeService {
	f := &fakeService{profiles: make(map[string]bool)}
	for _, n := range names {
		f.profiles[n] = true
	}
	return f
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) has(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.profiles[name] {
		return fmt.Errorf("profile %q: %w", name, store.ErrNotFound)
	}
	return nil
}

func (f *fakeService) Save(ctx context.Context, name string) error {
	f.record("save:" + name)
	f.mu.Lock()
	f.profiles[name] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeService) Load(ctx context.Context, name string) (switcher.LoadResult, error) {
	f.record("load:" + name)
	if err := f.has(name); err != nil {
		return switcher.LoadResult{}, err
	}
	return switcher.LoadResult{Profile: name, Tier: "path-ids", Matched: true, SnapshotID: "snap-1"}, nil
}

func (f *fakeService) Undo(ctx context.Context) (switcher.LoadResult, error) {
	f.record("undo")
	if f.undoErr != nil {
		return switcher.LoadResult{}, f.undoErr
	}
	return switcher.LoadResult{Profile: "before", Matched: true}, nil
}

func (f *fakeService) Delete(name string) error {
	f.record("delete:" + name)
	if err := f.has(name); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.profiles, name)
	f.mu.Unlock()
	return nil
}

func (f *fakeService) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range []string{"desk", "tv"} {
		if f.profiles[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeService) Details(name string) ([]topology.MonitorDetails, error) {
	if err := f.has(name); err != nil {
		return nil, err
	}
	return []topology.MonitorDetails{{Name: "DELL U2720Q", Width: 3840, Height: 2160, IsPrimary: true}}, nil
}

func (f *fakeService) Current(ctx context.Context) ([]topology.MonitorDetails, error) {
	return []topology.MonitorDetails{{Name: "Display 1", Width: 1920, Height: 1080}}, nil
}

func (f *fakeService) PowerOff(ctx context.Context) error {
	f.record("power-off")
	return nil
}

func startServer(t *testing.T, svc Service, reload chan<- struct{}) *Client {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "monswitch.sock")
	srv := NewServerAt(socket, svc, reload, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClientAt(socket)
}

func TestProfileCommands(t *testing.T) {
	svc := newFakeService("desk")
	client := startServer(t, svc, nil)

	if err := client.SaveProfile("tv"); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	names, err := client.ListProfiles()
	if err != nil || len(names) != 2 {
		t.Fatalf("ListProfiles = %v, %v", names, err)
	}

	res, err := client.LoadProfile("desk")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if res.Profile != "desk" || res.Tier != "path-ids" || res.SnapshotID != "snap-1" {
		t.Fatalf("unexpected load result: %+v", res)
	}

	monitors, err := client.ProfileDetails("desk")
	if err != nil || len(monitors) != 1 || monitors[0].Width != 3840 {
		t.Fatalf("ProfileDetails = %+v, %v", monitors, err)
	}
	current, err := client.CurrentMonitors()
	if err != nil || len(current) != 1 || current[0].Name != "Display 1" {
		t.Fatalf("CurrentMonitors = %+v, %v", current, err)
	}

	if err := client.DeleteProfile("tv"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if err := client.PowerOff(); err != nil {
		t.Fatalf("PowerOff: %v", err)
	}

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || status.LastProfile != "desk" || status.ProfileCount != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestErrorsKeepTheirClass(t *testing.T) {
	svc := newFakeService()
	svc.undoErr = switcher.ErrNothingToUndo
	client := startServer(t, svc, nil)

	_, err := client.LoadProfile("missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across the socket, got %v", err)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != CodeNotFound {
		t.Fatalf("expected RemoteError with NOT_FOUND code, got %v", err)
	}

	if _, err := client.Undo(); !errors.Is(err, switcher.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo across the socket, got %v", err)
	}

	if err := client.SaveProfile(""); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
}

func TestReloadNotifiesDaemon(t *testing.T) {
	reload := make(chan struct{}, 1)
	client := startServer(t, newFakeService(), reload)

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case <-reload:
	default:
		t.Fatalf("expected reload notification")
	}
	// A pending notification must not block the server.
	if err := client.Reload(); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	if err := client.Reload(); err != nil {
		t.Fatalf("third Reload: %v", err)
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	client := NewClientAt(filepath.Join(t.TempDir(), "absent.sock"))
	if err := client.Ping(); !errors.Is(err, ErrDaemonUnavailable) {
		t.Fatalf("expected ErrDaemonUnavailable, got %v", err)
	}
}
