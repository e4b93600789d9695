package format

// FrameRate is a broadcast frame rate expressed as an exact rational
// (Num/Den frames per second), the same representation ntv2audio.cpp
// uses internally to avoid floating-point drift in its sample-cadence
// accumulator.
type FrameRate struct {
	Num int
	Den int
}

var (
	FrameRate23_98 = FrameRate{24000, 1001}
	FrameRate24    = FrameRate{24, 1}
	FrameRate25    = FrameRate{25, 1}
	FrameRate29_97 = FrameRate{30000, 1001}
	FrameRate30    = FrameRate{30, 1}
	FrameRate50    = FrameRate{50, 1}
	FrameRate59_94 = FrameRate{60000, 1001}
	FrameRate60    = FrameRate{60, 1}
)

// AudioCadence returns the repeating sequence of audio sample counts
// per video frame for sampleRate at fps, the way ntv2audio.cpp's
// pending-sample-count accumulator produces a short repeating pattern
// for non-integer frame rates (e.g. the familiar 1601/1602 alternation
// for 48 kHz audio at 29.97 fps). For integer frame rates the cadence
// is a single constant value.
//
// Open question: nothing documents behavior
// once the frame counter exceeds 2^32. AudioSamplesForFrame below
// reduces a uint32 frame index modulo the table length (at most fps.Num
// entries). A uint32 counter wraps to 0 after 2^32 frames and the index
// then restarts at entry 0; unless the table length divides 2^32 (the
// 29.97 table has 5 entries, and 2^32 mod 5 == 1) the cadence phase is
// not continued across that wrap.
func AudioCadence(sampleRate uint32, fps FrameRate) []uint32 {
	total := uint64(sampleRate) * uint64(fps.Den)
	base := total / uint64(fps.Num)
	rem := total % uint64(fps.Num)

	if rem == 0 {
		return []uint32{uint32(base)}
	}

	g := gcd(rem, uint64(fps.Num))
	n := rem / g
	d := uint64(fps.Num) / g

	table := make([]uint32, d)
	var prevCum uint64
	for i := uint64(0); i < d; i++ {
		cum := ((i + 1) * n) / d
		table[i] = uint32(base) + uint32(cum-prevCum)
		prevCum = cum
	}
	return table
}

// AudioSamplesForFrame indexes a cadence table by frame number, the
// running counter AutoCirculate advances on every Transfer.
func AudioSamplesForFrame(cadence []uint32, frameNumber uint32) uint32 {
	return cadence[int(frameNumber)%len(cadence)]
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
