package display

import "github.com/1broseidon/monswitch/internal/topology"

// DpiPercents is the fixed table of scale factors the OS steps through.
var DpiPercents = []uint32{100, 125, 150, 175, 200, 225, 250, 300, 350, 400, 450, 500}

// RelativeDPI is the OS encoding of a source's scale: steps relative to the
// recommended entry of DpiPercents. Min is <= 0 and its negation is the
// index of the recommended entry.
type RelativeDPI struct {
	Min     int32
	Current int32
	Max     int32
}

// DpiScaling is a decoded RelativeDPI, in percent.
type DpiScaling struct {
	Minimum     uint32
	Maximum     uint32
	Current     uint32
	Recommended uint32
}

// DecodeDPI converts a relative encoding to absolute percents. It returns
// false when Current falls outside [Min, Max] or any derived index is not in
// the table.
func DecodeDPI(rel RelativeDPI) (DpiScaling, bool) {
	if rel.Current < rel.Min || rel.Current > rel.Max {
		return DpiScaling{}, false
	}
	recommended := -int64(rel.Min)
	current := recommended + int64(rel.Current)
	maximum := recommended + int64(rel.Max)
	for _, idx := range []int64{recommended, current, maximum} {
		if idx < 0 || idx >= int64(len(DpiPercents)) {
			return DpiScaling{}, false
		}
	}
	return DpiScaling{
		Minimum:     DpiPercents[0],
		Maximum:     DpiPercents[maximum],
		Current:     DpiPercents[current],
		Recommended: DpiPercents[recommended],
	}, true
}

// EncodeDPI is the inverse used by drivers that only know an absolute
// percent: the nearest table entry becomes Current, relative to a
// recommended entry of recommendedPercent.
func EncodeDPI(percent, recommendedPercent uint32) RelativeDPI {
	rec := nearestDpiIndex(recommendedPercent)
	cur := nearestDpiIndex(percent)
	return RelativeDPI{
		Min:     int32(-rec),
		Current: int32(cur - rec),
		Max:     int32(len(DpiPercents) - 1 - rec),
	}
}

func nearestDpiIndex(percent uint32) int {
	best := 0
	bestDiff := int64(-1)
	for i, p := range DpiPercents {
		diff := int64(p) - int64(percent)
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// DpiOf queries the driver for sourceID's scale and decodes it. Failures and
// inconsistent encodings both yield false.
func (a *Adapter) DpiOf(ref topology.AdapterRef, sourceID uint32) (topology.DpiScaleEntry, bool) {
	rel, err := a.driver.QueryDPI(ref, sourceID)
	if err != nil {
		a.logger.Debug("dpi query failed", "adapter", ref.String(), "source", sourceID, "error", err)
		return topology.DpiScaleEntry{}, false
	}
	scaling, ok := DecodeDPI(rel)
	if !ok {
		a.logger.Debug("dpi encoding out of range", "adapter", ref.String(), "source", sourceID,
			"min", rel.Min, "current", rel.Current, "max", rel.Max)
		return topology.DpiScaleEntry{}, false
	}
	return topology.DpiScaleEntry{SourceID: sourceID, Percent: scaling.Current}, true
}
