package regs

import (
	"fmt"

	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/xpt"
)

// Non-crosspoint, non-ROM registers used by diagnostics and by the
// AutoCirculate package. Real firmware defines thousands more;
// this catalog carries a representative subset plus enough siblings
// to exercise every class/lookup path.
const (
	RegGlobalControl   Num = 0
	RegChannelControl1 Num = 1
	RegChannelControl2 Num = 2
	RegFrameSize1      Num = 10
	RegInputFrame1     Num = 11
	RegOutputFrame1    Num = 12

	// RegAudioControl1, RegAncExtF1Size1, RegAncExtF2Size1 and
	// RegSDIErrorStatus1 are the channel-0 register of a per-channel
	// family; use AudioControlRegister/AncExtFieldSizeRegister/
	// SDIErrorStatusRegister to reach another channel's register rather
	// than offsetting these by channel index. Each family gets its own
	// perChannelStride-wide block so no channel index ever walks into
	// the next channel's, or the next family's, registers.
	RegAudioControl1   Num = 200
	RegAncExtF1Size1   Num = 300
	RegAncExtF2Size1   Num = 400
	RegSDIErrorStatus1 Num = 500

	RegHDMIHDRPrimary1    Num = 600
	RegHDMIHDRLuminance1  Num = 601
	RegHDMIHDRLightLevel1 Num = 602
)

// maxPerChannelRegisters bounds the per-channel families above, sized to
// the largest channel count any built-in device model reports
// (devicemodel.IDUHD4K's 8).
const maxPerChannelRegisters = 8

// perChannelStride is how many register numbers each channel's slot
// reserves in a per-channel family. It equals maxPerChannelRegisters, so
// a family's 8 channels span 64 register numbers and stay inside the
// 100-number gap between the families above; they never collide.
const perChannelStride Num = 8

// AudioControlRegister returns channel ch's (0-based) audio-control
// register.
func AudioControlRegister(ch int) Num {
	return RegAudioControl1 + Num(ch)*perChannelStride
}

// AncExtFieldSizeRegister returns channel ch's (0-based) ancillary
// extractor size register for the given field, 1 or 2.
func AncExtFieldSizeRegister(ch, field int) Num {
	base := RegAncExtF1Size1
	if field == 2 {
		base = RegAncExtF2Size1
	}
	return base + Num(ch)*perChannelStride
}

// SDIErrorStatusRegister returns channel ch's (0-based) SDI receive
// error status register.
func SDIErrorStatusRegister(ch int) Num {
	return RegSDIErrorStatus1 + Num(ch)*perChannelStride
}

func decodeCrosspointRegister(value uint32, _ devicemodel.ID) string {
	return fmt.Sprintf(
		"[%#02x %#02x %#02x %#02x]",
		uint8(value), uint8(value>>8), uint8(value>>16), uint8(value>>24))
}

func decodeBoolBitfield(value uint32, _ devicemodel.ID) string {
	if value != 0 {
		return "enabled"
	}
	return "disabled"
}

func decodeRaw(value uint32, _ devicemodel.ID) string {
	return fmt.Sprintf("%#08x", value)
}

func registerBuiltins() {
	// Crosspoint selector groups 1..35.
	for i := 0; i < 35; i++ {
		n := FirstCrosspointRegister + Num(i)
		register(Info{
			Num:     n,
			Name:    fmt.Sprintf("kRegXptSelectGroup%d", i+1),
			Access:  ReadWrite,
			Classes: []Class{ClassRouting},
			Decode:  decodeCrosspointRegister,
		})
	}

	// Route ROM: 4 consecutive registers per input crosspoint.
	for i := range xpt.AllInputs() {
		for j := 0; j < 4; j++ {
			n := FirstRouteROMRegister + Num(i*4+j)
			register(Info{
				Num:     n,
				Name:    fmt.Sprintf("kRegFirstValidXptROMRegister+%d", i*4+j),
				Access:  ReadOnly,
				Classes: []Class{ClassVirtual},
				Decode:  decodeRaw,
			})
		}
	}

	register(Info{Num: RegGlobalControl, Name: "kRegGlobalControl", Access: ReadWrite, Decode: decodeRaw})
	register(Info{Num: RegChannelControl1, Name: "kRegCh1Control", Access: ReadWrite, Classes: []Class{ChannelClass(0)}, Decode: decodeRaw})
	register(Info{Num: RegChannelControl2, Name: "kRegCh2Control", Access: ReadWrite, Classes: []Class{ChannelClass(1)}, Decode: decodeRaw})
	register(Info{Num: RegFrameSize1, Name: "kRegCh1FrameSize", Access: ReadWrite, Classes: []Class{ChannelClass(0)}, Decode: decodeRaw})
	register(Info{Num: RegInputFrame1, Name: "kRegCh1InputFrame", Access: ReadOnly, Classes: []Class{ChannelClass(0)}, Decode: decodeRaw})
	register(Info{Num: RegOutputFrame1, Name: "kRegCh1OutputFrame", Access: ReadOnly, Classes: []Class{ChannelClass(0)}, Decode: decodeRaw})

	for ch := 0; ch < maxPerChannelRegisters; ch++ {
		register(Info{
			Num:     AudioControlRegister(ch),
			Name:    fmt.Sprintf("kRegAud%dControl", ch+1),
			Access:  ReadWrite,
			Classes: []Class{ClassAudio},
			Decode:  decodeBoolBitfield,
		})
		register(Info{
			Num:     AncExtFieldSizeRegister(ch, 1),
			Name:    fmt.Sprintf("kRegCh%dAncExtField1Size", ch+1),
			Access:  ReadOnly,
			Classes: []Class{ClassAnc, ChannelClass(ch)},
			Decode:  decodeRaw,
		})
		register(Info{
			Num:     AncExtFieldSizeRegister(ch, 2),
			Name:    fmt.Sprintf("kRegCh%dAncExtField2Size", ch+1),
			Access:  ReadOnly,
			Classes: []Class{ClassAnc, ChannelClass(ch)},
			Decode:  decodeRaw,
		})
		register(Info{
			Num:     SDIErrorStatusRegister(ch),
			Name:    fmt.Sprintf("kRegRXSDI%dStatus", ch+1),
			Access:  ReadOnly,
			Classes: []Class{ClassSDIError, ChannelClass(ch)},
			Decode:  decodeRaw,
		})
	}

	register(Info{Num: RegHDMIHDRPrimary1, Name: "kRegHDMIHDRGreenPrimary", Access: ReadWrite, Classes: []Class{ClassHDMI}, Decode: decodeRaw})
	register(Info{Num: RegHDMIHDRLuminance1, Name: "kRegHDMIHDRMasteringLuminance", Access: ReadWrite, Classes: []Class{ClassHDMI}, Decode: decodeRaw})
	register(Info{Num: RegHDMIHDRLightLevel1, Name: "kRegHDMIHDRLightLevel", Access: ReadWrite, Classes: []Class{ClassHDMI}, Decode: decodeRaw})
}
