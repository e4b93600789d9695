package auditor

import "sort"

// Tag names one claimed use of an 8MB memory quantum, e.g. "Ch1 Write",
// "AC2 Read", "Aud3 Write", "MR1". Plain data; the tag vocabulary itself
// is documented at each call site that produces one.
type Tag string

// Region is a run of adjacent 8MB quanta sharing an identical tag set.
// Start and Length are in 8MB-quantum units.
type Region struct {
	Start  int
	Length int
	Tags   []Tag
}

// Free reports whether this region has no owners at all.
func (r Region) Free() bool { return len(r.Tags) == 0 }

// Conflict reports whether this region has two or more owners.
func (r Region) Conflict() bool { return len(r.Tags) >= 2 }

// TranslateToLogicalFrames re-expresses a region's bounds in units of
// logical (possibly multi-quantum) frames, given the intrinsic size
// (quanta per logical frame) of the channel whose space it falls within.
// A 16-quantum region with intrinsicQuanta=16 translates to a
// 1-logical-frame region.
func TranslateToLogicalFrames(r Region, intrinsicQuanta int) (start, length int) {
	if intrinsicQuanta <= 0 {
		intrinsicQuanta = 1
	}
	return r.Start / intrinsicQuanta, r.Length / intrinsicQuanta
}

func sortedTags(set map[Tag]struct{}) []Tag {
	out := make([]Tag, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameTagSet(a, b []Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// coalesce merges adjacent per-quantum tag sets into Regions.
func coalesce(frames []map[Tag]struct{}) []Region {
	var regions []Region
	for i, f := range frames {
		tags := sortedTags(f)
		if len(regions) > 0 {
			last := &regions[len(regions)-1]
			if last.Start+last.Length == i && sameTagSet(last.Tags, tags) {
				last.Length++
				continue
			}
		}
		regions = append(regions, Region{Start: i, Length: 1, Tags: tags})
	}
	return regions
}
