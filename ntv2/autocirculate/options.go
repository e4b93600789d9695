package autocirculate

import (
	"github.com/ntv2go/ntv2/format"
	"github.com/ntv2go/ntv2/ring"
)

// Direction is which way a channel's AutoCirculate engine moves bytes:
// off the card (capture) or onto it (playout).
type Direction int

const (
	DirectionCapture Direction = iota
	DirectionDisplay
)

func (d Direction) String() string {
	if d == DirectionDisplay {
		return "Display"
	}
	return "Capture"
}

// State is a channel's AutoCirculate lifecycle state.
type State int

const (
	StateStopped State = iota
	StateInitialized
	StateStarting
	StateRunning
	StatePaused
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateInitialized:
		return "Initialized"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Options carries Init's parameters: the frame range request, the
// options_mask bits, and the buffer sizes the Frame Ring's slots are
// built from.
type Options struct {
	Channel     int
	Direction   Direction
	AudioSystem int

	StartFrame uint32
	FrameCount uint32

	WithAudio     bool
	WithRP188     bool
	WithAnc       bool
	WithLTC       bool
	WithFBFChange bool
	WithFRChange  bool

	// RingCapacity is the Frame Ring's slot count. Defaults to 7, the
	// AJA SDK's historical default AutoCirculate depth.
	RingCapacity int

	VideoBufSize int
	AudioBufSize int
	AncF1Size    int
	AncF2Size    int

	// TimecodeIndices lists which NTV2TCIndex-equivalent sources
	// captureTimecodes reads for every captured frame.
	TimecodeIndices []ring.TimecodeIndex
	// TimecodeRead supplies the paired-register read for each index in
	// TimecodeIndices; nil disables timecode capture entirely.
	TimecodeRead TimecodeReader

	// NonPCMPairMax is the highest audio channel-pair index the non-PCM
	// tracker compares. Zero selects the default of 3 (4 pairs /
	// 8 channels), the common AJA audio-system width.
	NonPCMPairMax uint
	// SampleRate and FrameRate drive the audio sample-count cadence
	// table; zero SampleRate
	// disables cadence-based audio byte sizing (Transfer then clamps
	// to the full AudioBufSize every frame).
	SampleRate       uint32
	FrameRate        format.FrameRate
	AudioChannels    int
	AudioBytesPerSample int

	// SDIStats enables the per-input CRC/VPID/TRS tally read for
	// SDI-sourced channels.
	SDIStats bool
}

func (o Options) ringCapacity() int {
	if o.RingCapacity > 0 {
		return o.RingCapacity
	}
	return 7
}
