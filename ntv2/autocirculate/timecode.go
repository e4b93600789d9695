package autocirculate

import "github.com/ntv2go/ntv2/ring"

// TimecodeReader reads one timecode source's paired registers,
// returning the raw bits and whether that source currently holds a
// valid value. ntv2/gateway owns the actual register access; this
// package only threads results into a Frame Slot.
type TimecodeReader func(index ring.TimecodeIndex) (bits uint64, valid bool)

// captureTimecodes reads each requested NTV2TCIndex-equivalent's
// paired registers and inserts into
// the slot's timecode map keyed by index. Sources reporting invalid
// are left absent rather than inserted with a zero value, so a caller
// checking for a key's presence can't mistake "never read" for
// "read as zero".
func captureTimecodes(slot *ring.FrameSlot, indices []ring.TimecodeIndex, read TimecodeReader) {
	for _, idx := range indices {
		if bits, ok := read(idx); ok {
			slot.Timecodes[idx] = ring.Timecode{Bits: bits}
		}
	}
}
