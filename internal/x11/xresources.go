package x11

import (
	"bufio"
	"strconv"
	"strings"
)

const baseDPI = 96

// xftDPI extracts Xft.dpi from a RESOURCE_MANAGER string.
func xftDPI(resources string) (float64, bool) {
	sc := bufio.NewScanner(strings.NewReader(resources))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}

// dpiPercent converts an X DPI to a scale percent relative to 96 DPI.
func dpiPercent(dpi float64) uint32 {
	return uint32(dpi*100/baseDPI + 0.5)
}
