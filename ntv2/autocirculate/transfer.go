package autocirculate

import (
	"github.com/ntv2go/ntv2"
	"github.com/ntv2go/ntv2/ring"
)

// TransferBuffers are the caller-owned host buffers Transfer copies
// into (capture) or out of (playout). Buffers may be larger than the
// Frame Slot's; only as many bytes as the slot actually holds are
// touched.
type TransferBuffers struct {
	VideoBuf []byte
	AudioBuf []byte
	AncF1Buf []byte
	AncF2Buf []byte
}

// TransferResult reports how many bytes of each kind were moved, and
// for a capture transfer, the timecodes read alongside the frame.
type TransferResult struct {
	VideoBytes int
	AudioBytes int
	AncF1Bytes int
	AncF2Bytes int
	Timecodes  map[ring.TimecodeIndex]ring.Timecode
}

// Transfer is non-blocking: it returns
// ErrNoFrame immediately if nothing is ready rather than waiting (the
// owning Producer/Consumer goroutine is what blocks, on VBI, not
// here). For a capture channel this drains the oldest ready Frame
// Slot; for a playout channel this publishes buf as the next frame to
// be handed to hardware.
func (e *Engine) Transfer(buf TransferBuffers) (TransferResult, error) {
	const op = "Engine.Transfer"
	e.mu.Lock()
	direction := e.direction
	r := e.ring
	running := e.state == StateRunning || e.state == StatePaused || e.state == StateStarting
	e.mu.Unlock()

	if r == nil || !running {
		return TransferResult{}, ntv2.WrapOp(op, ntv2.ErrInvalidState)
	}

	if direction == DirectionDisplay {
		return e.transferOut(buf)
	}
	return e.transferIn(buf)
}

func (e *Engine) transferIn(buf TransferBuffers) (TransferResult, error) {
	const op = "Engine.Transfer"
	slot, ok := e.ring.TryStartConsumeNextBuffer()
	if !ok {
		return TransferResult{}, ntv2.WrapOp(op, ntv2.ErrNoFrame)
	}
	defer e.ring.EndConsumeNextBuffer()

	if len(buf.VideoBuf) < len(slot.VideoBuf) {
		return TransferResult{}, ntv2.WrapOp(op, ntv2.ErrBufferTooSmall)
	}
	copy(buf.VideoBuf, slot.VideoBuf)
	copy(buf.AudioBuf, slot.AudioBuf[:slot.ActualAudioBytes])
	copy(buf.AncF1Buf, slot.AncF1Buf[:slot.ActualAncBytesF1])
	copy(buf.AncF2Buf, slot.AncF2Buf[:slot.ActualAncBytesF2])

	timecodes := make(map[ring.TimecodeIndex]ring.Timecode, len(slot.Timecodes))
	for k, v := range slot.Timecodes {
		timecodes[k] = v
	}

	return TransferResult{
		VideoBytes: len(slot.VideoBuf),
		AudioBytes: slot.ActualAudioBytes,
		AncF1Bytes: slot.ActualAncBytesF1,
		AncF2Bytes: slot.ActualAncBytesF2,
		Timecodes:  timecodes,
	}, nil
}

func (e *Engine) transferOut(buf TransferBuffers) (TransferResult, error) {
	const op = "Engine.Transfer"
	slot, ok := e.ring.TryStartProduceNextBuffer()
	if !ok {
		return TransferResult{}, ntv2.WrapOp(op, ntv2.ErrNoFrame)
	}
	defer e.ring.EndProduceNextBuffer()

	n := copy(slot.VideoBuf, buf.VideoBuf)
	slot.ActualAudioBytes = copy(slot.AudioBuf, buf.AudioBuf)
	slot.ActualAncBytesF1 = copy(slot.AncF1Buf, buf.AncF1Buf)
	slot.ActualAncBytesF2 = copy(slot.AncF2Buf, buf.AncF2Buf)

	return TransferResult{
		VideoBytes: n,
		AudioBytes: slot.ActualAudioBytes,
		AncF1Bytes: slot.ActualAncBytesF1,
		AncF2Bytes: slot.ActualAncBytesF2,
	}, nil
}
