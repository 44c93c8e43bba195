package x11

import (
	"fmt"
	"strings"
)

// EDID is the subset of an EDID block used to identify a monitor.
type EDID struct {
	ManufacturerID uint16
	ProductCode    uint16
	MonitorName    string
}

// Manufacturer decodes the three-letter PNP id packed into ManufacturerID.
func (e EDID) Manufacturer() string {
	var b strings.Builder
	for _, shift := range []uint{10, 5, 0} {
		c := (e.ManufacturerID >> shift) & 0x1f
		if c >= 1 && c <= 26 {
			b.WriteByte(byte('A' + c - 1))
		}
	}
	return b.String()
}

// DisplayName is the monitor name descriptor, or "<PNP> <product>" when the
// monitor does not publish one.
func (e EDID) DisplayName() string {
	if e.MonitorName != "" {
		return e.MonitorName
	}
	if mfg := e.Manufacturer(); mfg != "" {
		return fmt.Sprintf("%s %04X", mfg, e.ProductCode)
	}
	return ""
}

var edidHeader = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// ParseEDID reads the base block. Extension blocks are ignored.
func ParseEDID(data []byte) (EDID, error) {
	if len(data) < 128 {
		return EDID{}, fmt.Errorf("edid too short: %d bytes", len(data))
	}
	for i, b := range edidHeader {
		if data[i] != b {
			return EDID{}, fmt.Errorf("edid header mismatch")
		}
	}

	e := EDID{
		ManufacturerID: uint16(data[8])<<8 | uint16(data[9]),
		ProductCode:    uint16(data[10]) | uint16(data[11])<<8,
	}
	// Four 18-byte descriptors start at byte 54; tag 0xFC is the monitor name.
	for i := 0; i < 4; i++ {
		d := data[54+i*18 : 54+(i+1)*18]
		if d[0] == 0 && d[1] == 0 && d[2] == 0 && d[3] == 0xfc {
			e.MonitorName = edidString(d[5:18])
			break
		}
	}
	return e, nil
}

func edidString(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0x0a || c == 0x00 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(b[:end]))
}
