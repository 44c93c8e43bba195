//go:build windows

package ccd

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                          = windows.NewLazySystemDLL("user32.dll")
	procGetDisplayConfigBufferSizes = user32.NewProc("GetDisplayConfigBufferSizes")
	procQueryDisplayConfig          = user32.NewProc("QueryDisplayConfig")
	procSetDisplayConfig            = user32.NewProc("SetDisplayConfig")
	procDisplayConfigGetDeviceInfo  = user32.NewProc("DisplayConfigGetDeviceInfo")
	procPostMessageW                = user32.NewProc("PostMessageW")
)

const (
	hwndBroadcast  = 0xffff
	wmSysCommand   = 0x0112
	scMonitorPower = 0xf170
	monitorOff     = 2
)

func bufferSizes(flags uint32) (uint32, uint32, error) {
	var numPaths, numModes uint32
	ret, _, _ := procGetDisplayConfigBufferSizes.Call(
		uintptr(flags),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(&numModes)),
	)
	if ret != 0 {
		return 0, 0, windows.Errno(ret)
	}
	return numPaths, numModes, nil
}

func queryDisplayConfig(flags uint32) ([]pathInfo, []modeInfo, error) {
	for {
		numPaths, numModes, err := bufferSizes(flags)
		if err != nil {
			return nil, nil, err
		}
		paths := make([]pathInfo, numPaths)
		modes := make([]modeInfo, numModes)
		ret, _, _ := procQueryDisplayConfig.Call(
			uintptr(flags),
			uintptr(unsafe.Pointer(&numPaths)),
			uintptr(unsafe.Pointer(unsafe.SliceData(paths))),
			uintptr(unsafe.Pointer(&numModes)),
			uintptr(unsafe.Pointer(unsafe.SliceData(modes))),
			0,
		)
		// The configuration can change between the two calls.
		if windows.Errno(ret) == windows.ERROR_INSUFFICIENT_BUFFER {
			continue
		}
		if ret != 0 {
			return nil, nil, windows.Errno(ret)
		}
		return paths[:numPaths], modes[:numModes], nil
	}
}

func setDisplayConfig(paths []pathInfo, modes []modeInfo, flags uint32) windows.Errno {
	ret, _, _ := procSetDisplayConfig.Call(
		uintptr(len(paths)),
		uintptr(unsafe.Pointer(unsafe.SliceData(paths))),
		uintptr(len(modes)),
		uintptr(unsafe.Pointer(unsafe.SliceData(modes))),
		uintptr(flags),
	)
	return windows.Errno(ret)
}

func getDeviceInfo(header *deviceInfoHeader) error {
	ret, _, _ := procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(header)))
	if ret != 0 {
		return windows.Errno(ret)
	}
	return nil
}

func postMonitorOff() error {
	ret, _, err := procPostMessageW.Call(hwndBroadcast, wmSysCommand, scMonitorPower, monitorOff)
	if ret == 0 {
		return err
	}
	return nil
}
