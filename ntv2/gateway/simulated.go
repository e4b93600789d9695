package gateway

import (
	"context"
	"sync"

	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/internal/bit"
	"github.com/ntv2go/ntv2/regs"
)

// Simulated is an in-memory Gateway: a register file plus a byte-slice
// standing in for on-card SDRAM, and a per-channel VBI pulse counter
// that PulseVBI (driven by tests) advances. It is not a test double bolted on afterward — every other
// package in this module is built and tested against it, the role an
// in-memory bus fake plays for anything that would otherwise need real
// hardware to exercise.
type Simulated struct {
	mu sync.Mutex

	model devicemodel.Model

	registers     map[regs.Num]uint32
	pendingWrites map[regs.Num]uint32
	writeMode     map[int]RegisterWriteMode

	sdram []byte

	channels map[int]*chanState

	aborted  bool
	abortCh  chan struct{}
}

type direction int

const (
	dirInput direction = iota
	dirOutput
)

type chanState struct {
	dir         direction
	state       AutoCirculateState
	startFrame  uint32
	endFrame    uint32
	frameCount  uint32
	activeFrame uint32
	audioSystem int
	options     uint32

	framesProcessed uint32
	framesDropped   uint32
	pendingFrame    bool

	vbiCount uint64
	wake     chan struct{}
}

func newChanState(dir direction) *chanState {
	return &chanState{dir: dir, state: ACStateStopped, wake: make(chan struct{})}
}

// frameByteSize is the fixed per-frame SDRAM allocation Simulated uses.
// Real devices size this from the Format Model; the gateway simulator
// only needs something big enough to exercise DMA copies end to end.
const frameByteSize = 8 << 20 // 8 MB Memory Map quantum

// NewSimulated builds a Simulated gateway with enough SDRAM for
// numFrames frames of frameByteSize each.
func NewSimulated(model devicemodel.Model, numFrames int) *Simulated {
	return &Simulated{
		model:         model,
		registers:     make(map[regs.Num]uint32),
		pendingWrites: make(map[regs.Num]uint32),
		writeMode:     make(map[int]RegisterWriteMode),
		sdram:         make([]byte, numFrames*frameByteSize),
		channels:      make(map[int]*chanState),
		abortCh:       make(chan struct{}),
	}
}

func (s *Simulated) chanStateLocked(channel int, dir direction) *chanState {
	cs, ok := s.channels[channel]
	if !ok {
		cs = newChanState(dir)
		s.channels[channel] = cs
	}
	return cs
}

// ReadRegister reads one register, masks, and right-shifts.
func (s *Simulated) ReadRegister(num regs.Num, mask uint32, shift uint) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRegisterLocked(num); err != nil {
		return 0, wrapOp("Gateway.ReadRegister", err)
	}
	return bit.Extract(s.registers[num], mask, shift), nil
}

// WriteRegister does a read-modify-write that the next read sees at
// once. The mode recorded by SetWriteMode is not consulted: at-VBI and
// at-field writes are not queued or delayed until a PulseVBI.
func (s *Simulated) WriteRegister(num regs.Num, value, mask uint32, shift uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRegisterLocked(num); err != nil {
		return wrapOp("Gateway.WriteRegister", err)
	}
	newValue := bit.ReadModifyWrite(s.registers[num], mask, shift, value)
	s.registers[num] = newValue
	return nil
}

func (s *Simulated) checkRegisterLocked(num regs.Num) error {
	if !s.model.Known() {
		return errBadRegister
	}
	if s.model.MaxRegisterNumber != 0 && uint32(num) > s.model.MaxRegisterNumber {
		return errBadRegister
	}
	return nil
}

// ReadRegisters performs a batched, atomic read of every access.
func (s *Simulated) ReadRegisters(accesses []RegisterAccess) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, len(accesses))
	for i, a := range accesses {
		if err := s.checkRegisterLocked(a.Num); err != nil {
			return nil, wrapOp("Gateway.ReadRegisters", err)
		}
		out[i] = bit.Extract(s.registers[a.Num], a.Mask, a.Shift)
	}
	return out, nil
}

// WriteRegisters performs a batched, atomic write: every access is
// applied before any subsequent ReadRegister sees any of them.
func (s *Simulated) WriteRegisters(accesses []RegisterAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accesses {
		if err := s.checkRegisterLocked(a.Num); err != nil {
			return wrapOp("Gateway.WriteRegisters", err)
		}
	}
	for _, a := range accesses {
		s.registers[a.Num] = bit.ReadModifyWrite(s.registers[a.Num], a.Mask, a.Shift, a.Value)
	}
	return nil
}

func (s *Simulated) SetWriteMode(channel int, mode RegisterWriteMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeMode[channel] = mode
}

func (s *Simulated) WaitForInputVerticalInterrupt(ctx context.Context, channel int, n int) error {
	return s.waitForVBI(ctx, channel, dirInput, n)
}

func (s *Simulated) WaitForOutputVerticalInterrupt(ctx context.Context, channel int, n int) error {
	return s.waitForVBI(ctx, channel, dirOutput, n)
}

// waitForVBI returns once n more pulses have arrived on channel.
// Simulated keeps one VBI count per channel: a pulse of either
// direction counts toward both input and output waits on that channel.
func (s *Simulated) waitForVBI(ctx context.Context, channel int, dir direction, n int) error {
	op := "Gateway.WaitForInputVerticalInterrupt"
	if dir == dirOutput {
		op = "Gateway.WaitForOutputVerticalInterrupt"
	}
	s.mu.Lock()
	target := s.chanStateLocked(channel, dir).vbiCount + uint64(n)
	s.mu.Unlock()
	for {
		s.mu.Lock()
		if s.aborted {
			s.mu.Unlock()
			return wrapOp(op, errAborted)
		}
		cs := s.chanStateLocked(channel, dir)
		if cs.vbiCount >= target {
			s.mu.Unlock()
			return nil
		}
		wake := cs.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-s.abortCh:
			return wrapOp(op, errAborted)
		case <-ctx.Done():
			return wrapOp(op, ctx.Err())
		}
	}
}

// PulseVBI simulates one vertical-blank interrupt on channel/dir: it
// wakes blocked waiters and — if AutoCirculate is running on this channel in this
// direction — advances the hardware's notion of "a new frame is ready".
// A frame that was ready but never picked up by Transfer before the
// next pulse is counted as dropped: real AutoCirculate hardware DMAs
// autonomously every VBI regardless of whether the host kept up.
func (s *Simulated) PulseVBI(channel int, input bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := dirInput
	if !input {
		dir = dirOutput
	}
	cs := s.chanStateLocked(channel, dir)
	cs.vbiCount++

	if cs.dir == dir {
		switch cs.state {
		case ACStateStarting:
			cs.state = ACStateRunning
		case ACStateRunning:
			if cs.pendingFrame {
				cs.framesDropped++
			}
			cs.pendingFrame = true
		case ACStateStopping:
			cs.state = ACStateStopped
		}
	}

	close(cs.wake)
	cs.wake = make(chan struct{})

	for num, v := range s.pendingWrites {
		s.registers[num] = v
	}
	s.pendingWrites = make(map[regs.Num]uint32)
}

func (s *Simulated) SubmitDMA(ctx context.Context, req DMARequest) error {
	select {
	case <-ctx.Done():
		return wrapOp("Gateway.SubmitDMA", ctx.Err())
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return wrapOp("Gateway.SubmitDMA", errAborted)
	}

	if len(req.Segments) == 0 {
		return s.copyContiguousLocked(req)
	}
	for _, seg := range req.Segments {
		if err := s.copySegmentLocked(req, seg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulated) copyContiguousLocked(req DMARequest) error {
	offset := int(req.FrameNumber)*frameByteSize + int(req.CardOffsetByte)
	if offset < 0 || offset+int(req.LengthBytes) > len(s.sdram) || int(req.LengthBytes) > len(req.HostBuffer) {
		return wrapOp("Gateway.SubmitDMA", errBufferTooSmall)
	}
	host := req.HostBuffer[:req.LengthBytes]
	if req.Direction == DMAWrite {
		copy(s.sdram[offset:offset+int(req.LengthBytes)], host)
	} else {
		copy(host, s.sdram[offset:offset+int(req.LengthBytes)])
	}
	return nil
}

func (s *Simulated) copySegmentLocked(req DMARequest, seg DMASegment) error {
	offset := int(req.FrameNumber)*frameByteSize + int(seg.CardOffset)
	if offset < 0 || offset+int(seg.Length) > len(s.sdram) || seg.HostOffset+int(seg.Length) > len(req.HostBuffer) {
		return wrapOp("Gateway.SubmitDMA", errBufferTooSmall)
	}
	host := req.HostBuffer[seg.HostOffset : seg.HostOffset+int(seg.Length)]
	if req.Direction == DMAWrite {
		copy(s.sdram[offset:offset+int(seg.Length)], host)
	} else {
		copy(host, s.sdram[offset:offset+int(seg.Length)])
	}
	return nil
}

func (s *Simulated) AutoCirculateInitForInput(opts AutoCirculateInitOptions) error {
	return s.autoCirculateInit(opts, dirInput)
}

func (s *Simulated) AutoCirculateInitForOutput(opts AutoCirculateInitOptions) error {
	return s.autoCirculateInit(opts, dirOutput)
}

func (s *Simulated) autoCirculateInit(opts AutoCirculateInitOptions, dir direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch, other := range s.channels {
		if ch == opts.Channel || other.state == ACStateStopped {
			continue
		}
		if rangesOverlap(opts.StartFrame, opts.StartFrame+opts.FrameCount-1, other.startFrame, other.endFrame) {
			return wrapOp("Gateway.AutoCirculateInitForInput", errBusy)
		}
	}

	cs := newChanState(dir)
	cs.state = ACStateInitializing
	cs.startFrame = opts.StartFrame
	cs.endFrame = opts.StartFrame + opts.FrameCount - 1
	cs.frameCount = opts.FrameCount
	cs.activeFrame = opts.StartFrame
	cs.audioSystem = opts.AudioSystem
	cs.options = packOptions(opts)
	s.channels[opts.Channel] = cs
	return nil
}

func rangesOverlap(aStart, aEnd, bStart, bEnd uint32) bool {
	return aStart <= bEnd && bStart <= aEnd
}

func packOptions(opts AutoCirculateInitOptions) uint32 {
	var m uint32
	if opts.WithAudio {
		m = bit.Set(0, m)
	}
	if opts.WithRP188 {
		m = bit.Set(1, m)
	}
	if opts.WithAnc {
		m = bit.Set(2, m)
	}
	if opts.WithLTC {
		m = bit.Set(3, m)
	}
	if opts.WithFBFChange {
		m = bit.Set(4, m)
	}
	if opts.WithFRChange {
		m = bit.Set(5, m)
	}
	return m
}

func (s *Simulated) AutoCirculateStart(channel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channels[channel]
	if !ok || cs.state != ACStateInitializing {
		return wrapOp("Gateway.AutoCirculateStart", errInvalidState)
	}
	cs.state = ACStateStarting
	return nil
}

func (s *Simulated) AutoCirculateStop(channel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channels[channel]
	if !ok {
		return wrapOp("Gateway.AutoCirculateStop", errInvalidState)
	}
	cs.state = ACStateStopping
	return nil
}

func (s *Simulated) AutoCirculateGetStatus(channel int) (AutoCirculateStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channels[channel]
	if !ok {
		return AutoCirculateStatus{}, wrapOp("Gateway.AutoCirculateGetStatus", errInvalidState)
	}
	return AutoCirculateStatus{
		State:           cs.state,
		StartFrame:      cs.startFrame,
		EndFrame:        cs.endFrame,
		ActiveFrame:     cs.activeFrame,
		FramesProcessed: cs.framesProcessed,
		FramesDropped:   cs.framesDropped,
		AudioSystem:     cs.audioSystem,
		Options:         cs.options,
	}, nil
}

func (s *Simulated) AutoCirculateTransfer(channel int, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channels[channel]
	if !ok || cs.state != ACStateRunning {
		return 0, wrapOp("Gateway.AutoCirculateTransfer", errInvalidState)
	}
	if !cs.pendingFrame {
		return 0, wrapOp("Gateway.AutoCirculateTransfer", errNoFrame)
	}

	offset := int(cs.activeFrame) * frameByteSize
	n := len(buf)
	if n > frameByteSize {
		n = frameByteSize
	}
	if cs.dir == dirInput {
		copy(buf[:n], s.sdram[offset:offset+n])
	} else {
		copy(s.sdram[offset:offset+n], buf[:n])
	}

	cs.activeFrame = cs.startFrame + (cs.activeFrame-cs.startFrame+1)%cs.frameCount
	cs.framesProcessed++
	cs.pendingFrame = false
	return n, nil
}

func (s *Simulated) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return
	}
	s.aborted = true
	close(s.abortCh)
	for _, cs := range s.channels {
		close(cs.wake)
		cs.wake = make(chan struct{})
	}
}

