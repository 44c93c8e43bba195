package profile

// The persisted document. Field names follow the DISPLAYCONFIG structure
// names other tools already read and write, so they must not change.

type document struct {
	Version        int              `json:"Version"`
	PathInfoArray  []pathInfo       `json:"PathInfoArray"`
	ModeInfoArray  []modeInfo       `json:"ModeInfoArray"`
	AdditionalInfo []additionalInfo `json:"AdditionalInfo"`
	DpiScaleInfo   []dpiScaleInfo   `json:"DpiScaleInfo,omitempty"`
}

type adapterID struct {
	LowPart  uint32 `json:"LowPart"`
	HighPart uint32 `json:"HighPart"`
}

type rational struct {
	Numerator   uint32 `json:"Numerator"`
	Denominator uint32 `json:"Denominator"`
}

type region struct {
	Cx uint32 `json:"Cx"`
	Cy uint32 `json:"Cy"`
}

type point struct {
	X int32 `json:"X"`
	Y int32 `json:"Y"`
}

type pathSourceInfo struct {
	AdapterID   adapterID `json:"AdapterId"`
	ID          uint32    `json:"Id"`
	ModeInfoIdx uint32    `json:"ModeInfoIdx"`
	StatusFlags uint32    `json:"StatusFlags"`
}

type pathTargetInfo struct {
	AdapterID        adapterID `json:"AdapterId"`
	ID               uint32    `json:"Id"`
	ModeInfoIdx      uint32    `json:"ModeInfoIdx"`
	OutputTechnology uint32    `json:"OutputTechnology"`
	Rotation         uint32    `json:"Rotation"`
	Scaling          uint32    `json:"Scaling"`
	RefreshRate      rational  `json:"RefreshRate"`
	ScanLineOrdering uint32    `json:"ScanLineOrdering"`
	TargetAvailable  bool      `json:"TargetAvailable"`
	StatusFlags      uint32    `json:"StatusFlags"`
}

type pathInfo struct {
	SourceInfo pathSourceInfo `json:"SourceInfo"`
	TargetInfo pathTargetInfo `json:"TargetInfo"`
	Flags      uint32         `json:"Flags"`
}

type videoSignalInfo struct {
	PixelRate        int64    `json:"PixelRate"`
	HSyncFreq        rational `json:"HSyncFreq"`
	VSyncFreq        rational `json:"VSyncFreq"`
	ActiveSize       region   `json:"ActiveSize"`
	TotalSize        region   `json:"TotalSize"`
	VideoStandard    uint32   `json:"VideoStandard"`
	ScanLineOrdering uint32   `json:"ScanLineOrdering"`
}

type targetModeInfo struct {
	TargetVideoSignalInfo videoSignalInfo `json:"TargetVideoSignalInfo"`
}

type sourceModeInfo struct {
	Width       uint32 `json:"Width"`
	Height      uint32 `json:"Height"`
	PixelFormat uint32 `json:"PixelFormat"`
	Position    point  `json:"Position"`
}

type modeInfo struct {
	InfoType   uint32          `json:"InfoType"`
	ID         uint32          `json:"Id"`
	AdapterID  adapterID       `json:"AdapterId"`
	TargetMode *targetModeInfo `json:"TargetMode,omitempty"`
	SourceMode *sourceModeInfo `json:"SourceMode,omitempty"`
}

type additionalInfo struct {
	ManufactureID         uint16  `json:"ManufactureId"`
	ProductCodeID         uint16  `json:"ProductCodeId"`
	Valid                 bool    `json:"Valid"`
	MonitorDevicePath     *string `json:"MonitorDevicePath"`
	MonitorFriendlyDevice *string `json:"MonitorFriendlyDevice"`
}

type dpiScaleInfo struct {
	SourceID uint32 `json:"SourceId"`
	DpiScale uint32 `json:"DpiScale"`
}
