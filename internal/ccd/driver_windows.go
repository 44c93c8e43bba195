//go:build windows

package ccd

import (
	"fmt"
	"unsafe"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/topology"
)

// Driver implements display.Driver with QueryDisplayConfig and
// SetDisplayConfig.
type Driver struct{}

var _ display.Driver = Driver{}

func init() {
	if unsafe.Sizeof(pathInfo{}) != pathInfoSize || unsafe.Sizeof(modeInfo{}) != modeInfoSize {
		panic("ccd: wire struct layout mismatch")
	}
}

func NewDriver() Driver { return Driver{} }

func (Driver) QueryTopology(activeOnly bool) (topology.Topology, error) {
	flags := queryAllPaths
	if activeOnly {
		flags = queryOnlyActivePaths
	}
	paths, modes, err := queryDisplayConfig(flags)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("QueryDisplayConfig: %w", err)
	}
	return toTopology(paths, modes)
}

func (Driver) CommitTopology(t topology.Topology, flags display.CommitFlags) error {
	paths, modes, err := fromTopology(t)
	if err != nil {
		return err
	}
	if status := setDisplayConfig(paths, modes, uint32(flags)); status != 0 {
		return fmt.Errorf("%w: %v", &display.StatusError{Op: "SetDisplayConfig", Status: int64(status)}, status)
	}
	return nil
}

func (Driver) QueryIdentity(ref topology.AdapterRef, targetID uint32) (topology.MonitorIdentity, error) {
	req := targetDeviceName{Header: deviceInfoHeader{
		Type:      deviceInfoGetTargetName,
		Size:      uint32(unsafe.Sizeof(targetDeviceName{})),
		AdapterID: luidOf(ref),
		ID:        targetID,
	}}
	if err := getDeviceInfo(&req.Header); err != nil {
		return topology.MonitorIdentity{}, fmt.Errorf("target name of %s/%d: %w", ref, targetID, err)
	}
	return identityOf(req), nil
}

func (Driver) QueryDPI(ref topology.AdapterRef, sourceID uint32) (display.RelativeDPI, error) {
	req := sourceDPIScale{Header: deviceInfoHeader{
		Type:      deviceInfoGetDPIScale,
		Size:      uint32(unsafe.Sizeof(sourceDPIScale{})),
		AdapterID: luidOf(ref),
		ID:        sourceID,
	}}
	if err := getDeviceInfo(&req.Header); err != nil {
		return display.RelativeDPI{}, fmt.Errorf("dpi scale of %s/%d: %w", ref, sourceID, err)
	}
	return display.RelativeDPI{Min: req.MinRel, Current: req.CurRel, Max: req.MaxRel}, nil
}

func (Driver) SignalPowerOff() error {
	if err := postMonitorOff(); err != nil {
		return fmt.Errorf("PostMessageW: %w", err)
	}
	return nil
}
