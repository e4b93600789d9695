package autocirculate

import "github.com/ntv2go/ntv2/format"

// nonPCMTracker implements non-PCM detection: "on every
// transfer, compare the device's current non-PCM channel-pair bitmask
// against the previous snapshot; emit a diagnostic for each pair that
// transitioned." One bit per audio channel pair, grounded on
// ntv2audio.cpp's per-pair PCM/non-PCM control bits.
type nonPCMTracker struct {
	prev    uint32
	primed  bool
	pairMax uint
}

func newNonPCMTracker(pairMax uint) *nonPCMTracker {
	return &nonPCMTracker{pairMax: pairMax}
}

// update compares current against the last snapshot and returns the
// channel-pair indices whose PCM/non-PCM state flipped. The first call
// after construction never reports a transition: there is no prior
// snapshot to compare against.
func (t *nonPCMTracker) update(current uint32) []int {
	if !t.primed {
		t.prev = current
		t.primed = true
		return nil
	}
	diff := t.prev ^ current
	t.prev = current
	var pairs []int
	for pair := uint(0); pair <= t.pairMax; pair++ {
		if diff&(1<<pair) != 0 {
			pairs = append(pairs, int(pair))
		}
	}
	return pairs
}

// audioCadence tracks how many audio samples belong to the frame at a
// running frame counter, per ntv2audio.cpp's pending-sample-count
// cadence table for non-integer frame rates (e.g. 29.97).
type audioCadence struct {
	table   []uint32
	counter uint32
}

func newAudioCadence(sampleRate uint32, fps format.FrameRate) *audioCadence {
	return &audioCadence{table: format.AudioCadence(sampleRate, fps)}
}

// samplesForNextFrame returns the sample count for the current frame
// counter value and advances it, mirroring how the original indexes
// its cadence table by a running, ever-incrementing frame count
// (the same 2^32 wraparound question applies here
// unchanged: this counter is a uint32 and is never reset mid-run).
func (c *audioCadence) samplesForNextFrame() uint32 {
	n := format.AudioSamplesForFrame(c.table, c.counter)
	c.counter++
	return n
}

// audioBytesFor converts a sample count to a byte count for the given
// channel count and bit depth, the quantity Transfer clamps the
// audio DMA to ("size clamped to actual bytes
// captured this frame, reported by hardware").
func audioBytesFor(samples uint32, channels, bytesPerSample int) int {
	return int(samples) * channels * bytesPerSample
}
