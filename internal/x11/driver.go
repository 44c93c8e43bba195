package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/dpms"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/topology"
)

// edidLongs is the number of 32-bit units read from the EDID property: the
// 128-byte base block plus one extension.
const edidLongs = 64

// Driver implements display.Driver on top of XRandR.
type Driver struct {
	conn *Connection
}

var _ display.Driver = (*Driver)(nil)

// NewDriver returns a driver bound to conn.
func NewDriver(conn *Connection) *Driver {
	return &Driver{conn: conn}
}

// adapterRef names the first RandR provider of the screen, or the root
// window when the server exposes no providers.
func (d *Driver) adapterRef() topology.AdapterRef {
	ref := topology.AdapterRef{LowPart: uint32(d.conn.Root), HighPart: uint32(d.conn.Screen)}
	reply, err := randr.GetProviders(d.conn.XUtil.Conn(), d.conn.Root).Reply()
	if err == nil && len(reply.Providers) > 0 {
		ref.LowPart = uint32(reply.Providers[0])
	}
	return ref
}

func (d *Driver) readState() (*screenState, error) {
	x := d.conn.XUtil.Conn()
	res, err := randr.GetScreenResourcesCurrent(x, d.conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	rng, err := randr.GetScreenSizeRange(x, d.conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen size range: %w", err)
	}

	s := &screenState{
		ref:       d.adapterRef(),
		modes:     make(map[randr.Mode]randr.ModeInfo, len(res.Modes)),
		minWidth:  rng.MinWidth,
		minHeight: rng.MinHeight,
		maxWidth:  rng.MaxWidth,
		maxHeight: rng.MaxHeight,
	}
	for _, mi := range res.Modes {
		s.modes[randr.Mode(mi.Id)] = mi
	}

	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(x, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc %d: %w", crtc, err)
		}
		s.crtcs = append(s.crtcs, crtcState{
			id:       crtc,
			x:        info.X,
			y:        info.Y,
			width:    info.Width,
			height:   info.Height,
			mode:     info.Mode,
			rotation: info.Rotation,
			outputs:  info.Outputs,
		})
	}

	for _, out := range res.Outputs {
		info, err := randr.GetOutputInfo(x, out, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output %d: %w", out, err)
		}
		s.outputs = append(s.outputs, outputState{
			id:        out,
			name:      string(info.Name),
			connected: info.Connection == randr.ConnectionConnected,
			crtc:      info.Crtc,
			crtcs:     info.Crtcs,
			modes:     info.Modes,
		})
	}
	return s, nil
}

// QueryTopology reads the current RandR configuration.
func (d *Driver) QueryTopology(activeOnly bool) (topology.Topology, error) {
	s, err := d.readState()
	if err != nil {
		return topology.Topology{}, err
	}
	return s.topology(activeOnly), nil
}

// CommitTopology applies t. flags only matter for FlagAllowChanges; RandR
// changes are always applied immediately and the server keeps no database.
func (d *Driver) CommitTopology(t topology.Topology, flags display.CommitFlags) error {
	s, err := d.readState()
	if err != nil {
		return err
	}
	plan, err := planCommit(s, t, flags.Has(display.FlagAllowChanges))
	if err != nil {
		return err
	}
	return d.apply(plan)
}

func (d *Driver) apply(plan commitPlan) error {
	x := d.conn.XUtil.Conn()
	res, err := randr.GetScreenResourcesCurrent(x, d.conn.Root).Reply()
	if err != nil {
		return fmt.Errorf("failed to get screen resources: %w", err)
	}

	setCrtc := func(crtc randr.Crtc, xPos, yPos int16, mode randr.Mode, rotation uint16, outputs []randr.Output) error {
		reply, err := randr.SetCrtcConfig(x, crtc, res.Timestamp, res.ConfigTimestamp,
			xPos, yPos, mode, rotation, outputs).Reply()
		if err != nil {
			return fmt.Errorf("crtc %d: %w", crtc, err)
		}
		if reply.Status != randr.SetConfigSuccess {
			return fmt.Errorf("crtc %d: %w", crtc, &display.StatusError{Op: "SetCrtcConfig", Status: int64(reply.Status)})
		}
		return nil
	}

	for _, crtc := range plan.disable {
		if err := setCrtc(crtc, 0, 0, 0, randr.RotationRotate0, nil); err != nil {
			return fmt.Errorf("failed to disable %w", err)
		}
	}

	mmW, mmH := millimeters(plan.width), millimeters(plan.height)
	if err := randr.SetScreenSizeChecked(x, d.conn.Root, plan.width, plan.height, mmW, mmH).Check(); err != nil {
		return fmt.Errorf("failed to resize screen to %dx%d: %w", plan.width, plan.height, err)
	}

	for _, c := range plan.configs {
		if err := setCrtc(c.crtc, int16(c.x), int16(c.y), c.mode, c.rotation, c.outputs); err != nil {
			return fmt.Errorf("failed to configure %w", err)
		}
	}

	if plan.primary != 0 {
		if err := randr.SetOutputPrimaryChecked(x, d.conn.Root, plan.primary).Check(); err != nil {
			return fmt.Errorf("failed to set primary output: %w", err)
		}
	}
	return nil
}

// millimeters converts pixels to a physical size at 96 DPI.
func millimeters(px uint16) uint32 {
	return uint32(float64(px)*25.4/baseDPI + 0.5)
}

// QueryIdentity reads the EDID of output targetID.
func (d *Driver) QueryIdentity(ref topology.AdapterRef, targetID uint32) (topology.MonitorIdentity, error) {
	x := d.conn.XUtil.Conn()
	out := randr.Output(targetID)

	info, err := randr.GetOutputInfo(x, out, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return topology.MonitorIdentity{}, fmt.Errorf("output %d on %s: %w", targetID, ref, err)
	}

	atom, err := xprop.Atm(d.conn.XUtil, "EDID")
	if err != nil {
		return topology.MonitorIdentity{}, err
	}
	prop, err := randr.GetOutputProperty(x, out, atom, xproto.GetPropertyTypeAny, 0, edidLongs, false, false).Reply()
	if err != nil {
		return topology.MonitorIdentity{}, fmt.Errorf("read EDID of %s: %w", info.Name, err)
	}
	if prop.Format != 8 || len(prop.Data) == 0 {
		return topology.MonitorIdentity{}, fmt.Errorf("output %s has no EDID", info.Name)
	}

	e, err := ParseEDID(prop.Data)
	if err != nil {
		return topology.MonitorIdentity{}, fmt.Errorf("output %s: %w", info.Name, err)
	}
	return topology.MonitorIdentity{
		ManufacturerID: e.ManufacturerID,
		ProductCode:    e.ProductCode,
		FriendlyName:   e.DisplayName(),
		DevicePath:     string(info.Name),
		Valid:          true,
	}, nil
}

// QueryDPI reports the screen-wide Xft.dpi as a scale relative to 100%.
// X has no per-source scale, so every source reports the same value.
func (d *Driver) QueryDPI(ref topology.AdapterRef, sourceID uint32) (display.RelativeDPI, error) {
	dpi := float64(baseDPI)
	reply, err := xprop.GetProperty(d.conn.XUtil, d.conn.Root, "RESOURCE_MANAGER")
	if err == nil && reply != nil {
		if v, ok := xftDPI(string(reply.Value)); ok {
			dpi = v
		}
	}
	return display.EncodeDPI(dpiPercent(dpi), 100), nil
}

var errNoDPMS = errors.New("DPMS extension not available")

// SignalPowerOff asks every monitor on the server to enter DPMS off.
func (d *Driver) SignalPowerOff() error {
	if !d.conn.hasDPMS {
		return errNoDPMS
	}
	x := d.conn.XUtil.Conn()
	if err := dpms.EnableChecked(x).Check(); err != nil {
		return fmt.Errorf("enable DPMS: %w", err)
	}
	if err := dpms.ForceLevelChecked(x, dpms.DPMSModeOff).Check(); err != nil {
		return fmt.Errorf("force DPMS off: %w", err)
	}
	return nil
}
