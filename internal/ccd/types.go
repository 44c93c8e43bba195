// Package ccd drives the Windows Connecting and Configuring Displays API.
// The wire structs and their conversion to the topology model are portable so
// the union handling can be tested on any platform; the syscalls live in the
// windows-only files.
package ccd

// Sizes of the wire structs as laid out by user32.
const (
	pathInfoSize  = 72
	modeInfoSize  = 64
	modeUnionSize = 48
)

type luid struct {
	LowPart  uint32
	HighPart uint32
}

type rational struct {
	Numerator   uint32
	Denominator uint32
}

type region struct {
	Cx uint32
	Cy uint32
}

type pointL struct {
	X int32
	Y int32
}

type pathSourceInfo struct {
	AdapterID   luid
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

type pathTargetInfo struct {
	AdapterID        luid
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshRate      rational
	ScanLineOrdering uint32
	TargetAvailable  uint32
	StatusFlags      uint32
}

// pathInfo is DISPLAYCONFIG_PATH_INFO.
type pathInfo struct {
	SourceInfo pathSourceInfo
	TargetInfo pathTargetInfo
	Flags      uint32
}

type videoSignalInfo struct {
	PixelRate        uint64
	HSyncFreq        rational
	VSyncFreq        rational
	ActiveSize       region
	TotalSize        region
	VideoStandard    uint32
	ScanLineOrdering uint32
}

type sourceModeInfo struct {
	Width       uint32
	Height      uint32
	PixelFormat uint32
	Position    pointL
}

// modeInfo is DISPLAYCONFIG_MODE_INFO. ModeData holds either a
// videoSignalInfo or a sourceModeInfo, selected by InfoType.
type modeInfo struct {
	InfoType  uint32
	ID        uint32
	AdapterID luid
	ModeData  [modeUnionSize]byte
}

type deviceInfoHeader struct {
	Type      int32
	Size      uint32
	AdapterID luid
	ID        uint32
}

// targetDeviceName is DISPLAYCONFIG_TARGET_DEVICE_NAME.
type targetDeviceName struct {
	Header                    deviceInfoHeader
	Flags                     uint32
	OutputTechnology          uint32
	EdidManufactureID         uint16
	EdidProductCodeID         uint16
	ConnectorInstance         uint32
	MonitorFriendlyDeviceName [64]uint16
	MonitorDevicePath         [128]uint16
}

// sourceDPIScale is the undocumented DISPLAYCONFIG_SOURCE_DPI_SCALE_GET.
type sourceDPIScale struct {
	Header deviceInfoHeader
	MinRel int32
	CurRel int32
	MaxRel int32
}

const (
	queryAllPaths        uint32 = 0x00000001
	queryOnlyActivePaths uint32 = 0x00000002

	modeInfoTypeSource uint32 = 1
	modeInfoTypeTarget uint32 = 2

	deviceInfoGetTargetName int32 = 2
	deviceInfoGetDPIScale   int32 = -3

	targetNameFlagEdidIDsValid uint32 = 0x00000002
)
