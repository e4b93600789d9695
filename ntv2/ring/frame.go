package ring

// TimecodeIndex identifies one of a device's timecode sources (RP188
// LTC/VITC on a given input, analog LTC, …). Plain data: decoding the
// bits into HH:MM:SS:FF is out of this module's scope, only capturing
// them into a Frame Slot is.
type TimecodeIndex int

// Timecode is one captured timecode value, opaque to this module.
type Timecode struct {
	Bits uint64
}

// FrameSlot is a fixed-size tuple: pre-sized host buffers for one
// frame's video/audio/ancillary payloads, the timecodes
// captured alongside it, and how many bytes of each variable-length
// buffer were actually valid this frame.
type FrameSlot struct {
	VideoBuf []byte
	AudioBuf []byte
	AncF1Buf []byte
	AncF2Buf []byte

	Timecodes map[TimecodeIndex]Timecode

	ActualAudioBytes int
	ActualAncBytesF1 int
	ActualAncBytesF2 int
}

// NewFrameSlot allocates a FrameSlot with video/audio/anc buffers sized
// to the caller's worst-case byte counts (ntv2/format's FrameSize for
// video; ntv2/autocirculate resolves the anc F1/F2 sizes from the
// device's extractor-size registers before constructing a ring).
func NewFrameSlot(videoSize, audioSize, ancF1Size, ancF2Size int) *FrameSlot {
	return &FrameSlot{
		VideoBuf:  make([]byte, videoSize),
		AudioBuf:  make([]byte, audioSize),
		AncF1Buf:  make([]byte, ancF1Size),
		AncF2Buf:  make([]byte, ancF2Size),
		Timecodes: make(map[TimecodeIndex]Timecode),
	}
}

// Reset clears actual-byte counts and timecodes before a slot is reused
// for a new production cycle, without reallocating its buffers.
func (f *FrameSlot) Reset() {
	f.ActualAudioBytes = 0
	f.ActualAncBytesF1 = 0
	f.ActualAncBytesF2 = 0
	for k := range f.Timecodes {
		delete(f.Timecodes, k)
	}
}
