// Package xpt defines the crosspoint ID space: the consumer ("input")
// and producer ("output") ports of every widget in a device's internal
// routing fabric. These are plain data, the routing-domain equivalent of
// the address constants a memory-mapped CPU target defines for its I/O
// space.
package xpt

// InputXpt identifies a crosspoint that consumes a signal (a widget's
// "this is where my source comes from" port).
type InputXpt uint16

// OutputXpt identifies a crosspoint that produces a signal. OutputXpt(0)
// is the reserved XptBlack value: "no source", valid everywhere.
type OutputXpt uint16

// XptBlack is the universal "disconnected" output crosspoint. Connecting
// any input to it is always legal and is equivalent to Disconnect.
const XptBlack OutputXpt = 0

// Framebuffer inputs (1 per channel, up to 8 channels).
const (
	InputFrameBuffer1 InputXpt = iota + 1
	InputFrameBuffer2
	InputFrameBuffer3
	InputFrameBuffer4
	InputFrameBuffer5
	InputFrameBuffer6
	InputFrameBuffer7
	InputFrameBuffer8
)

// SDI output widget inputs (what feeds each physical SDI connector).
const (
	InputSDIOut1 InputXpt = iota + 100
	InputSDIOut2
	InputSDIOut3
	InputSDIOut4
	InputSDIOut5
	InputSDIOut6
	InputSDIOut7
	InputSDIOut8
)

// HDMI output widget input.
const InputHDMIOut1 InputXpt = 120

// 425Mux (TSI demux/mux) widget inputs, link A and B per mux instance.
// Each 425Mux pairs two adjacent SDI inputs into one TSI frame, or splits
// one TSI frame back out to two adjacent SDI outputs.
const (
	Input425Mux1AB InputXpt = iota + 140
	Input425Mux2AB
	Input425Mux3AB
	Input425Mux4AB
)

// CSC (colour space converter) widget input.
const (
	InputCSC1VidInput InputXpt = iota + 160
	InputCSC2VidInput
	InputCSC3VidInput
	InputCSC4VidInput
)

// Mixer/Keyer widget inputs (background and foreground).
const (
	InputMixer1BG InputXpt = iota + 180
	InputMixer1FG
)

// SDI input widget outputs (what each physical SDI connector produces).
const (
	OutputSDIIn1 OutputXpt = iota + 1
	OutputSDIIn2
	OutputSDIIn3
	OutputSDIIn4
	OutputSDIIn5
	OutputSDIIn6
	OutputSDIIn7
	OutputSDIIn8
)

// HDMI input widget output.
const OutputHDMIIn1 OutputXpt = 20

// Framebuffer outputs, by pixel format family (YUV is the common case;
// most devices also expose an RGB tap for the same framebuffer).
const (
	OutputFrameBuffer1YUV OutputXpt = iota + 100
	OutputFrameBuffer2YUV
	OutputFrameBuffer3YUV
	OutputFrameBuffer4YUV
	OutputFrameBuffer5YUV
	OutputFrameBuffer6YUV
	OutputFrameBuffer7YUV
	OutputFrameBuffer8YUV
)
const (
	OutputFrameBuffer1RGB OutputXpt = iota + 140
	OutputFrameBuffer2RGB
	OutputFrameBuffer3RGB
	OutputFrameBuffer4RGB
)

// 425Mux outputs: each instance produces two links (A/B) that feed a
// framebuffer pair, or are fed back out as two SDI outputs.
const (
	Output425Mux1AYUV OutputXpt = iota + 160
	Output425Mux1BYUV
	Output425Mux2AYUV
	Output425Mux2BYUV
	Output425Mux3AYUV
	Output425Mux3BYUV
	Output425Mux4AYUV
	Output425Mux4BYUV
)

// CSC outputs.
const (
	OutputCSC1VidYUV OutputXpt = iota + 200
	OutputCSC2VidYUV
	OutputCSC3VidYUV
	OutputCSC4VidYUV
)

// Mixer output.
const OutputMixer1VidYUV OutputXpt = 220

// String gives InputXpt a human-readable name for logging, falling back
// to a numeric form for values outside the named table (virtual/reserved
// crosspoints on devices this table hasn't been extended for yet).
func (i InputXpt) String() string {
	if name, ok := inputNames[i]; ok {
		return name
	}
	return unknownName(uint16(i), "InputXpt")
}

// String gives OutputXpt a human-readable name for logging.
func (o OutputXpt) String() string {
	if o == XptBlack {
		return "XptBlack"
	}
	if name, ok := outputNames[o]; ok {
		return name
	}
	return unknownName(uint16(o), "OutputXpt")
}

func unknownName(v uint16, kind string) string {
	return kind + "(" + itoa(v) + ")"
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

var inputNames = map[InputXpt]string{
	InputFrameBuffer1: "FrameBuffer1Input", InputFrameBuffer2: "FrameBuffer2Input",
	InputFrameBuffer3: "FrameBuffer3Input", InputFrameBuffer4: "FrameBuffer4Input",
	InputFrameBuffer5: "FrameBuffer5Input", InputFrameBuffer6: "FrameBuffer6Input",
	InputFrameBuffer7: "FrameBuffer7Input", InputFrameBuffer8: "FrameBuffer8Input",
	InputSDIOut1: "SDIOut1Input", InputSDIOut2: "SDIOut2Input",
	InputSDIOut3: "SDIOut3Input", InputSDIOut4: "SDIOut4Input",
	InputSDIOut5: "SDIOut5Input", InputSDIOut6: "SDIOut6Input",
	InputSDIOut7: "SDIOut7Input", InputSDIOut8: "SDIOut8Input",
	InputHDMIOut1:   "HDMIOut1Input",
	Input425Mux1AB:  "425Mux1ABInput",
	Input425Mux2AB:  "425Mux2ABInput",
	Input425Mux3AB:  "425Mux3ABInput",
	Input425Mux4AB:  "425Mux4ABInput",
	InputCSC1VidInput: "CSC1VidInput", InputCSC2VidInput: "CSC2VidInput",
	InputCSC3VidInput: "CSC3VidInput", InputCSC4VidInput: "CSC4VidInput",
	InputMixer1BG: "Mixer1BGInput", InputMixer1FG: "Mixer1FGInput",
}

var outputNames = map[OutputXpt]string{
	OutputSDIIn1: "SDIIn1", OutputSDIIn2: "SDIIn2",
	OutputSDIIn3: "SDIIn3", OutputSDIIn4: "SDIIn4",
	OutputSDIIn5: "SDIIn5", OutputSDIIn6: "SDIIn6",
	OutputSDIIn7: "SDIIn7", OutputSDIIn8: "SDIIn8",
	OutputHDMIIn1: "HDMIIn1",
	OutputFrameBuffer1YUV: "FrameBuffer1YUV", OutputFrameBuffer2YUV: "FrameBuffer2YUV",
	OutputFrameBuffer3YUV: "FrameBuffer3YUV", OutputFrameBuffer4YUV: "FrameBuffer4YUV",
	OutputFrameBuffer5YUV: "FrameBuffer5YUV", OutputFrameBuffer6YUV: "FrameBuffer6YUV",
	OutputFrameBuffer7YUV: "FrameBuffer7YUV", OutputFrameBuffer8YUV: "FrameBuffer8YUV",
	OutputFrameBuffer1RGB: "FrameBuffer1RGB", OutputFrameBuffer2RGB: "FrameBuffer2RGB",
	OutputFrameBuffer3RGB: "FrameBuffer3RGB", OutputFrameBuffer4RGB: "FrameBuffer4RGB",
	Output425Mux1AYUV: "425Mux1AYUV", Output425Mux1BYUV: "425Mux1BYUV",
	Output425Mux2AYUV: "425Mux2AYUV", Output425Mux2BYUV: "425Mux2BYUV",
	Output425Mux3AYUV: "425Mux3AYUV", Output425Mux3BYUV: "425Mux3BYUV",
	Output425Mux4AYUV: "425Mux4AYUV", Output425Mux4BYUV: "425Mux4BYUV",
	OutputCSC1VidYUV: "CSC1VidYUV", OutputCSC2VidYUV: "CSC2VidYUV",
	OutputCSC3VidYUV: "CSC3VidYUV", OutputCSC4VidYUV: "CSC4VidYUV",
	OutputMixer1VidYUV: "Mixer1VidYUV",
}

// AllInputs returns every InputXpt this table names, in a stable order
// (ascending ID). Used by GetConnectedInputs's linear scan and by tests.
func AllInputs() []InputXpt {
	out := make([]InputXpt, 0, len(inputNames))
	for i := range inputNames {
		out = append(out, i)
	}
	sortInputs(out)
	return out
}

func sortInputs(xs []InputXpt) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// AllOutputs returns every named OutputXpt (excluding XptBlack, which is
// always implicitly legal and never needs a ROM bit of its own), in
// stable ascending order. Used to assign route-ROM bitmap bit positions.
func AllOutputs() []OutputXpt {
	out := make([]OutputXpt, 0, len(outputNames))
	for o := range outputNames {
		out = append(out, o)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
