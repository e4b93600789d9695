package ntv2

import "github.com/ntv2go/ntv2/format"

// ChannelMode is the direction a Channel's framestore widget runs in.
type ChannelMode int

const (
	ChannelModeCapture ChannelMode = iota
	ChannelModeDisplay
)

func (m ChannelMode) String() string {
	if m == ChannelModeDisplay {
		return "display"
	}
	return "capture"
}

// Channel is one framestore widget's configuration: its ordinal (0-based,
// matching the Num() used by crosspoint and register lookups), the
// direction it's running, the raster/pixel/VANC triple it's programmed
// for, the frame range it owns in card memory, and an optional bound
// audio system. Building one of these doesn't touch hardware; Connect it
// through ntv2/router and start it through ntv2/autocirculate to do that.
type Channel struct {
	Ordinal int
	Mode    ChannelMode

	Standard    format.Standard
	PixelFormat format.PixelFormat
	VANCMode    format.VANCMode

	StartFrame uint32
	EndFrame   uint32

	AudioSystem    int
	HasAudioSystem bool
}

// NewChannel builds a Channel for ordinal in mode, covering
// [startFrame, endFrame] inclusive.
func NewChannel(ordinal int, mode ChannelMode, standard format.Standard, pixelFormat format.PixelFormat, vancMode format.VANCMode, startFrame, endFrame uint32) Channel {
	return Channel{
		Ordinal:     ordinal,
		Mode:        mode,
		Standard:    standard,
		PixelFormat: pixelFormat,
		VANCMode:    vancMode,
		StartFrame:  startFrame,
		EndFrame:    endFrame,
	}
}

// WithAudioSystem returns a copy of c bound to the given audio system.
func (c Channel) WithAudioSystem(audioSystem int) Channel {
	c.AudioSystem = audioSystem
	c.HasAudioSystem = true
	return c
}

// FrameCount is the number of frames in the channel's range.
func (c Channel) FrameCount() uint32 {
	if c.EndFrame < c.StartFrame {
		return 0
	}
	return c.EndFrame - c.StartFrame + 1
}

// Descriptor computes the byte layout for this channel's raster/pixel/
// VANC triple.
func (c Channel) Descriptor() (format.Descriptor, error) {
	return format.FormatDescriptor(c.Standard, c.PixelFormat, c.VANCMode)
}
