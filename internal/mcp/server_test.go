package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

type fakeService struct {
	mu         sync.Mutex
	profiles   map[string][]topology.MonitorDetails
	current    []topology.MonitorDetails
	undo       []string
	poweredOff int
}

func newFakeService() *fakeService {
	return &fakeService{
		profiles: map[string][]topology.MonitorDetails{
			"desk": {{Name: "DELL U2720Q", Width: 3840, Height: 2160, RefreshRate: 60, IsPrimary: true}},
		},
		current: []topology.MonitorDetails{{Name: "Built-in", Width: 1920, Height: 1080, RefreshRate: 60, IsPrimary: true}},
	}
}

func (f *fakeService) Save(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[name] = f.current
	return nil
}

func (f *fakeService) Load(_ context.Context, name string) (switcher.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.profiles[name]
	if !ok {
		return switcher.LoadResult{}, fmt.Errorf("load profile %q: %w", name, store.ErrNotFound)
	}
	f.current = m
	f.undo = append(f.undo, name)
	return switcher.LoadResult{Profile: name, Tier: "adapter-id", Matched: true, SnapshotID: "snap-1"}, nil
}

func (f *fakeService) Undo(context.Context) (switcher.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.undo) == 0 {
		return switcher.LoadResult{}, switcher.ErrNothingToUndo
	}
	last := f.undo[len(f.undo)-1]
	f.undo = f.undo[:len(f.undo)-1]
	return switcher.LoadResult{Profile: last, Matched: true, SnapshotID: "snap-1"}, nil
}

func (f *fakeService) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[name]; !ok {
		return fmt.Errorf("delete profile %q: %w", name, store.ErrNotFound)
	}
	delete(f.profiles, name)
	return nil
}

func (f *fakeService) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for n := range f.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeService) Exists(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.profiles[name]
	return ok, nil
}

func (f *fakeService) Details(name string) ([]topology.MonitorDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile details %q: %w", name, store.ErrNotFound)
	}
	return m, nil
}

func (f *fakeService) Current(context.Context) ([]topology.MonitorDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeService) PowerOff(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poweredOff++
	return nil
}

// connect runs s on an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.RunTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		cancel()
		select {
		case <-serverErr:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop within timeout")
		}
	})
	return ctx, session
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func callTool(t *testing.T, ctx context.Context, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func decodeStructured(t *testing.T, res *mcpsdk.CallToolResult, out any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode structured content %s: %v", raw, err)
	}
}

func resultText(res *mcpsdk.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestListTools(t *testing.T) {
	ctx, session := connect(t, NewServer(newFakeService(), quietLogger()))

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{
		"current_monitors", "delete_profile", "list_profiles", "load_profile",
		"profile_details", "save_profile", "turn_off_displays", "undo_load",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", names, want)
	}
}

func TestProfileLifecycle(t *testing.T) {
	svc := newFakeService()
	ctx, session := connect(t, NewServer(svc, quietLogger()))

	var saved SaveProfileOutput
	decodeStructured(t, callTool(t, ctx, session, "save_profile", map[string]any{"name": " laptop "}), &saved)
	if saved.Name != "laptop" || saved.Overwritten {
		t.Fatalf("save output = %+v", saved)
	}
	decodeStructured(t, callTool(t, ctx, session, "save_profile", map[string]any{"name": "laptop"}), &saved)
	if !saved.Overwritten {
		t.Fatalf("second save should report overwrite")
	}

	var list ListProfilesOutput
	decodeStructured(t, callTool(t, ctx, session, "list_profiles", nil), &list)
	if list.Count != 2 || strings.Join(list.Profiles, ",") != "desk,laptop" {
		t.Fatalf("list output = %+v", list)
	}

	var loaded LoadOutput
	decodeStructured(t, callTool(t, ctx, session, "load_profile", map[string]any{"name": "desk"}), &loaded)
	if loaded.Profile != "desk" || loaded.Tier != "adapter-id" || !loaded.Matched || loaded.SnapshotID != "snap-1" {
		t.Fatalf("load output = %+v", loaded)
	}

	var current MonitorsOutput
	decodeStructured(t, callTool(t, ctx, session, "current_monitors", nil), &current)
	if len(current.Monitors) != 1 || current.Monitors[0].Name != "DELL U2720Q" {
		t.Fatalf("current output = %+v", current)
	}

	var undone LoadOutput
	decodeStructured(t, callTool(t, ctx, session, "undo_load", nil), &undone)
	if undone.Profile != "desk" {
		t.Fatalf("undo output = %+v", undone)
	}

	var details MonitorsOutput
	decodeStructured(t, callTool(t, ctx, session, "profile_details", map[string]any{"name": "desk"}), &details)
	if details.Profile != "desk" || len(details.Monitors) != 1 || details.Monitors[0].Width != 3840 {
		t.Fatalf("details output = %+v", details)
	}

	var deleted DeleteProfileOutput
	decodeStructured(t, callTool(t, ctx, session, "delete_profile", map[string]any{"name": "laptop"}), &deleted)
	if !deleted.Deleted {
		t.Fatalf("delete output = %+v", deleted)
	}
	if ok, _ := svc.Exists("laptop"); ok {
		t.Fatalf("profile still stored after delete")
	}

	var off PowerOffOutput
	decodeStructured(t, callTool(t, ctx, session, "turn_off_displays", nil), &off)
	svc.mu.Lock()
	calls := svc.poweredOff
	svc.mu.Unlock()
	if !off.Signalled || calls != 1 {
		t.Fatalf("power off output = %+v, calls = %d", off, calls)
	}
}

func TestToolErrors(t *testing.T) {
	ctx, session := connect(t, NewServer(newFakeService(), quietLogger()))

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"blank name", "load_profile", map[string]any{"name": "   "}, "name is required"},
		{"unknown profile", "load_profile", map[string]any{"name": "nope"}, "list_profiles"},
		{"unknown details", "profile_details", map[string]any{"name": "nope"}, "profile not found"},
		{"delete unknown", "delete_profile", map[string]any{"name": "nope"}, "profile not found"},
		{"nothing to undo", "undo_load", nil, "nothing to undo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, ctx, session, tt.tool, tt.args)
			if !res.IsError {
				t.Fatalf("expected tool error")
			}
			if text := resultText(res); !strings.Contains(text, tt.want) {
				t.Fatalf("error text %q does not contain %q", text, tt.want)
			}
		})
	}
}

func TestEmptyListIsArray(t *testing.T) {
	svc := newFakeService()
	svc.profiles = map[string][]topology.MonitorDetails{}
	ctx, session := connect(t, NewServer(svc, quietLogger()))

	res := callTool(t, ctx, session, "list_profiles", nil)
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"profiles":[]`) {
		t.Fatalf("expected empty array, got %s", raw)
	}
}
