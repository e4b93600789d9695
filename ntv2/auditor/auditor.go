// Package auditor implements the SDRAM Auditor: it reconciles what the
// host thinks it owns against what channels and audio systems are
// actually configured to use, partitioning on-card memory into free/
// used/conflicting regions so a caller can surface conflicts before they
// cause frame corruption. The five-step reconciliation algorithm is
// implemented directly, step by step, rather than against any existing
// reference implementation.
package auditor

import "fmt"

// AudioSystemState is one audio engine's current placement and run
// state, already resolved to an 8MB-quantum frame index by the caller
// (ntv2/format's GetAudioMemoryOffset math) — the auditor only tags, it
// doesn't recompute addressing.
type AudioSystemState struct {
	Index     int
	Running   bool
	Capturing bool // true: tag Read; false: tag Write (for stopped, irrelevant)
	Frame     int  // 8MB-quantum index of this audio system's buffer
}

// ChannelState is one video channel's current configuration as the
// auditor needs to see it.
type ChannelState struct {
	Ordinal int

	Enabled     bool
	Capturing   bool // true: capture (Read tag); false: display (Write tag)
	MultiRaster bool // true: use the "MRn" tag instead of "Chn"/"ACn"

	Running    bool // AutoCirculate running on this channel
	StartFrame uint32
	EndFrame   uint32

	CurrentFrame uint32 // valid when !Running but Enabled

	// IntrinsicQuanta is how many 8MB quanta one logical frame of this
	// channel's current geometry consumes: 1 normally, 4 for quad/squares,
	// 16 for quad-quad. Frame numbers above are in logical-frame units;
	// the auditor expands them to 8MB-quantum units using this.
	IntrinsicQuanta int

	// GroupOrdinals lists every channel ordinal (including this one) that
	// shares this channel's frame range — a squares group of 4 or a TSI
	// pair of 2. Processing skips any ordinal already covered by an
	// earlier channel's group.
	GroupOrdinals []int
}

// Input is everything one audit pass needs.
type Input struct {
	// NumQuanta is active_memory_size / 8MB.
	NumQuanta int

	AudioSystems []AudioSystemState
	Channels     []ChannelState
}

// Audit runs the five-step algorithm and returns the coalesced region
// list, sorted by Start.
func Audit(in Input) []Region {
	frames := make([]map[Tag]struct{}, in.NumQuanta)
	for i := range frames {
		frames[i] = make(map[Tag]struct{})
	}

	tagQuantum := func(q int, tag Tag) {
		if q >= 0 && q < len(frames) {
			frames[q][tag] = struct{}{}
		}
	}
	tagRange := func(start, length int, tag Tag) {
		for q := start; q < start+length; q++ {
			tagQuantum(q, tag)
		}
	}

	// Step 2: audio systems.
	for _, a := range in.AudioSystems {
		if !a.Running {
			continue
		}
		rw := "Write"
		if a.Capturing {
			rw = "Read"
		}
		tagQuantum(a.Frame, Tag(fmt.Sprintf("Aud%d %s", a.Index+1, rw)))
	}

	// Steps 3-4: video channels, skipping siblings already covered by an
	// earlier channel's group.
	processed := make(map[int]bool)
	for _, ch := range in.Channels {
		if processed[ch.Ordinal] {
			continue
		}
		for _, sib := range ch.GroupOrdinals {
			processed[sib] = true
		}
		if !ch.Enabled {
			continue
		}
		intrinsic := ch.IntrinsicQuanta
		if intrinsic <= 0 {
			intrinsic = 1
		}
		rw := "Write"
		if ch.Capturing {
			rw = "Read"
		}

		if ch.MultiRaster {
			label := Tag(fmt.Sprintf("MR%d", ch.Ordinal+1))
			if ch.Running {
				start := int(ch.StartFrame) * intrinsic
				length := (int(ch.EndFrame-ch.StartFrame) + 1) * intrinsic
				tagRange(start, length, label)
			} else {
				tagRange(int(ch.CurrentFrame)*intrinsic, intrinsic, label)
			}
			continue
		}

		if ch.Running {
			label := Tag(fmt.Sprintf("AC%d %s", ch.Ordinal+1, rw))
			start := int(ch.StartFrame) * intrinsic
			length := (int(ch.EndFrame-ch.StartFrame) + 1) * intrinsic
			tagRange(start, length, label)
		} else {
			label := Tag(fmt.Sprintf("Ch%d %s", ch.Ordinal+1, rw))
			tagRange(int(ch.CurrentFrame)*intrinsic, intrinsic, label)
		}
	}

	// Step 5: coalesce.
	return coalesce(frames)
}
