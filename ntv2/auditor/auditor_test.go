package auditor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Checks sum(region_lengths) == num_8MB_frames, and that coalesced
// regions have pairwise-distinct tag sets.
func TestAuditCoverageAndDistinctTagSets(t *testing.T) {
	in := Input{
		NumQuanta: 12,
		AudioSystems: []AudioSystemState{
			{Index: 0, Running: true, Capturing: true, Frame: 11},
		},
		Channels: []ChannelState{
			{Ordinal: 0, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 6, IntrinsicQuanta: 1},
		},
	}
	regions := Audit(in)

	total := 0
	for _, r := range regions {
		total += r.Length
	}
	require.Equal(t, in.NumQuanta, total)

	seen := make(map[string]bool)
	for _, r := range regions {
		key := ""
		for _, tag := range r.Tags {
			key += string(tag) + ","
		}
		require.False(t, seen[key], "duplicate tag set %q across non-adjacent regions coalesced separately", key)
		seen[key] = true
	}
}

// A used region of length 16 (8MB units) with intrinsic size 16
// translates to length 1 in destination-frame units.
func TestTranslateToLogicalFramesQuadQuad(t *testing.T) {
	r := Region{Start: 0, Length: 16, Tags: []Tag{"AC1 Read"}}
	start, length := TranslateToLogicalFrames(r, 16)
	require.Equal(t, 0, start)
	require.Equal(t, 1, length)
}

// Scenario 5: auditor detects conflict between an overlapping capture
// and playout range.
func TestAuditDetectsConflict(t *testing.T) {
	in := Input{
		NumQuanta: 12,
		Channels: []ChannelState{
			{Ordinal: 0, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 6, IntrinsicQuanta: 1},
			{Ordinal: 1, Enabled: true, Capturing: false, Running: true, StartFrame: 5, EndFrame: 11, IntrinsicQuanta: 1},
		},
	}
	regions := Audit(in)

	var conflict *Region
	for i := range regions {
		if regions[i].Conflict() {
			conflict = &regions[i]
			break
		}
	}
	require.NotNil(t, conflict, "expected exactly one conflict region")
	require.Equal(t, 5, conflict.Start)
	require.Equal(t, 2, conflict.Length)
	require.ElementsMatch(t, []Tag{"AC1 Read", "AC2 Write"}, conflict.Tags)
}

func TestAuditFreeRegionsHaveNoTags(t *testing.T) {
	in := Input{
		NumQuanta: 4,
		Channels: []ChannelState{
			{Ordinal: 0, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 0, IntrinsicQuanta: 1},
		},
	}
	regions := Audit(in)
	require.Len(t, regions, 2)
	require.True(t, regions[0].Conflict() == false && !regions[0].Free())
	require.True(t, regions[1].Free())
	require.Equal(t, 1, regions[0].Length)
	require.Equal(t, 3, regions[1].Length)
}

func TestAuditSquaresGroupSkipsSiblings(t *testing.T) {
	in := Input{
		NumQuanta: 16,
		Channels: []ChannelState{
			{Ordinal: 0, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 0, IntrinsicQuanta: 4, GroupOrdinals: []int{0, 1, 2, 3}},
			{Ordinal: 1, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 0, IntrinsicQuanta: 4, GroupOrdinals: []int{0, 1, 2, 3}},
			{Ordinal: 2, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 0, IntrinsicQuanta: 4, GroupOrdinals: []int{0, 1, 2, 3}},
			{Ordinal: 3, Enabled: true, Capturing: true, Running: true, StartFrame: 0, EndFrame: 0, IntrinsicQuanta: 4, GroupOrdinals: []int{0, 1, 2, 3}},
		},
	}
	regions := Audit(in)
	require.Len(t, regions, 2)
	require.Equal(t, []Tag{"AC1 Read"}, regions[0].Tags)
	require.Equal(t, 4, regions[0].Length)
	require.True(t, regions[1].Free())
	require.Equal(t, 12, regions[1].Length)
}

func TestAuditMultiRasterTag(t *testing.T) {
	in := Input{
		NumQuanta: 2,
		Channels: []ChannelState{
			{Ordinal: 2, Enabled: true, MultiRaster: true, Running: false, CurrentFrame: 0, IntrinsicQuanta: 1},
		},
	}
	regions := Audit(in)
	require.Equal(t, []Tag{"MR3"}, regions[0].Tags)
}
