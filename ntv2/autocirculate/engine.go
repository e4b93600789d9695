// Package autocirculate is the per-channel AutoCirculate Engine: the
// state machine driving DMA submission, frame pacing
// against input/output vertical interrupts, timecode/ancillary
// capture, audio sample-count tracking, and non-PCM pair detection.
// It sits on top of ntv2/gateway.Gateway (which already mirrors the
// hardware-level frame-ready/overwrite bookkeeping a real card's
// firmware does) and ntv2/ring.Ring (the host-side Frame Ring that
// gates whether the engine even attempts to hand a ready frame to the
// gateway), the same layering a rate-limited producer has over the
// substrate it drives.
package autocirculate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ntv2go/ntv2"
	"github.com/ntv2go/ntv2/diag"
	"github.com/ntv2go/ntv2/gateway"
	"github.com/ntv2go/ntv2/regs"
	"github.com/ntv2go/ntv2/ring"
)

// Engine is one channel's AutoCirculate state machine. The zero value
// is not usable; construct with New.
type Engine struct {
	mu sync.Mutex

	gw        gateway.Gateway
	channel   int
	direction Direction
	state     State

	startFrame, endFrame uint32
	audioSystem          int

	ring *ring.Ring

	withAnc         bool
	timecodeIndices []ring.TimecodeIndex
	timecodeRead    TimecodeReader

	nonPCM       *nonPCMTracker
	cadence      *audioCadence
	audioChans   int
	audioBytesPS int

	sdiStats bool

	// framesProcessed/framesDropped are this engine's own tally, driven
	// by the Frame Ring's capacity rather than mirrored from the
	// gateway: a frame is processed the VBI it's successfully handed
	// between hardware and a ring slot, and dropped the VBI the ring
	// has no room (capture) or nothing queued (playout) to service it.
	// This is what this package's ring-occupancy-driven frame accounting
	// is stated in terms of.
	framesProcessed uint64
	framesDropped   uint64

	diagLimiter *rate.Limiter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an Engine bound to channel on gw. Call Init before Start.
func New(gw gateway.Gateway, channel int) *Engine {
	return &Engine{
		gw:          gw,
		channel:     channel,
		state:       StateStopped,
		diagLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Init reserves the frame range starting at opts.StartFrame exactly as
// given (no search for a free run is made when none is requested),
// resets the processed/dropped counters, and builds the Frame Ring.
func (e *Engine) Init(opts Options) error {
	const op = "Engine.Init"
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStopped {
		return ntv2.WrapOp(op, ntv2.ErrInvalidState)
	}
	if opts.FrameCount < 2 {
		return ntv2.WrapOp(op, ntv2.ErrInvalidState)
	}

	gwOpts := gateway.AutoCirculateInitOptions{
		Channel:       opts.Channel,
		StartFrame:    opts.StartFrame,
		FrameCount:    opts.FrameCount,
		AudioSystem:   opts.AudioSystem,
		WithAudio:     opts.WithAudio,
		WithRP188:     opts.WithRP188,
		WithAnc:       opts.WithAnc,
		WithLTC:       opts.WithLTC,
		WithFBFChange: opts.WithFBFChange,
		WithFRChange:  opts.WithFRChange,
	}

	var err error
	if opts.Direction == DirectionDisplay {
		err = e.gw.AutoCirculateInitForOutput(gwOpts)
	} else {
		err = e.gw.AutoCirculateInitForInput(gwOpts)
	}
	if err != nil {
		return ntv2.WrapOp(op, err)
	}

	capacity := opts.ringCapacity()
	videoSize, audioSize, f1Size, f2Size := opts.VideoBufSize, opts.AudioBufSize, opts.AncF1Size, opts.AncF2Size
	e.ring = ring.New(capacity, func() *ring.FrameSlot {
		return ring.NewFrameSlot(videoSize, audioSize, f1Size, f2Size)
	})

	e.direction = opts.Direction
	e.channel = opts.Channel
	e.audioSystem = opts.AudioSystem
	e.startFrame = opts.StartFrame
	e.endFrame = opts.StartFrame + opts.FrameCount - 1
	e.withAnc = opts.WithAnc
	e.timecodeIndices = opts.TimecodeIndices
	e.timecodeRead = opts.TimecodeRead
	e.sdiStats = opts.SDIStats
	e.audioChans = opts.AudioChannels
	e.audioBytesPS = opts.AudioBytesPerSample

	e.framesProcessed = 0
	e.framesDropped = 0

	pairMax := opts.NonPCMPairMax
	if pairMax == 0 {
		pairMax = 3
	}
	e.nonPCM = newNonPCMTracker(pairMax)

	if opts.SampleRate > 0 {
		e.cadence = newAudioCadence(opts.SampleRate, opts.FrameRate)
	} else {
		e.cadence = nil
	}

	e.state = StateInitialized
	return nil
}

// Start moves state to Starting
// immediately, then to Running on the channel's first VBI, at which
// point the internal hardware-paced goroutine begins handing ready
// frames to (capture) or draining queued frames from (playout) the
// Frame Ring every VBI.
func (e *Engine) Start() error {
	const op = "Engine.Start"
	e.mu.Lock()
	if e.state != StateInitialized {
		e.mu.Unlock()
		return ntv2.WrapOp(op, ntv2.ErrInvalidState)
	}
	if err := e.gw.AutoCirculateStart(e.channel); err != nil {
		e.mu.Unlock()
		return ntv2.WrapOp(op, err)
	}
	e.state = StateStarting
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runLoop(ctx)
	return nil
}

// Pause suspends frame pacing without releasing the frame range: the
// internal goroutine keeps waiting on VBI (so Resume doesn't need to
// restart it) but skips servicing them entirely while paused, so no
// VBI serviced while paused counts as either processed or dropped —
// distinct from a running engine whose ring is simply full.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return ntv2.WrapOp("Engine.Pause", ntv2.ErrInvalidState)
	}
	e.state = StatePaused
	return nil
}

// Resume reverses Pause.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return ntv2.WrapOp("Engine.Resume", ntv2.ErrInvalidState)
	}
	e.state = StateRunning
	return nil
}

// Stop ceases hardware advancement,
// joins the internal goroutine, and releases the frame range.
func (e *Engine) Stop() error {
	const op = "Engine.Stop"
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = StateStopping
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	if err := e.gw.AutoCirculateStop(e.channel); err != nil {
		return ntv2.WrapOp(op, err)
	}
	if e.ring != nil {
		e.ring.Abort()
	}

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
	return nil
}

// GetStatus returns the current host-visible AutoCirculate status.
func (e *Engine) GetStatus() (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		State:           e.state,
		StartFrame:      e.startFrame,
		EndFrame:        e.endFrame,
		AudioSystem:     e.audioSystem,
		FramesProcessed: e.framesProcessed,
		FramesDropped:   e.framesDropped,
	}
	if e.ring != nil {
		st.BufferLevel = e.ring.BufferLevel()
		st.RingCapacity = e.ring.Capacity()
	}
	return st, nil
}

// runLoop is the internal hardware-paced goroutine: one iteration per
// VBI for this channel's direction, for the lifetime between Start and
// Stop. It never blocks on the Frame Ring — see onVBI.
func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()
	transitioned := false
	for {
		var err error
		if e.direction == DirectionDisplay {
			err = e.gw.WaitForOutputVerticalInterrupt(ctx, e.channel, 1)
		} else {
			err = e.gw.WaitForInputVerticalInterrupt(ctx, e.channel, 1)
		}
		if err != nil {
			return
		}

		e.mu.Lock()
		if !transitioned {
			e.state = StateRunning
			transitioned = true
		}
		running := e.state == StateRunning
		e.mu.Unlock()
		if !running {
			continue
		}
		e.onVBI(ctx)
	}
}

// onVBI is one VBI's worth of work: try to move one Frame Slot between
// hardware and the ring, never blocking. A full ring (capture) or
// empty ring (playout) means this VBI's hardware frame is counted as
// dropped right here, by ring capacity alone, stated purely in terms
// of ring occupancy rather than the gateway's own pendingFrame
// bookkeeping (which tracks a different thing: whether the *simulated
// hardware* overwrote an undelivered frame, independent of whether the
// ring had room for it).
func (e *Engine) onVBI(ctx context.Context) {
	if e.direction == DirectionDisplay {
		e.onOutputVBI(ctx)
		return
	}
	e.onInputVBI(ctx)
}

func (e *Engine) onInputVBI(ctx context.Context) {
	slot, ok := e.ring.TryStartProduceNextBuffer()
	if !ok {
		// Host hasn't drained fast enough to free a slot; this VBI's
		// frame is lost, same as hardware overwriting an undrained
		// frame buffer.
		e.mu.Lock()
		e.framesDropped++
		e.mu.Unlock()
		return
	}
	n, err := e.gw.AutoCirculateTransfer(e.channel, slot.VideoBuf)
	if err != nil {
		// Nothing was actually DMAed yet (e.g. the arming VBI that
		// flips Starting to Running never sets pendingFrame). Not a
		// drop: no hardware frame existed to lose. Leave the
		// reservation outstanding so the next VBI retries the same
		// slot index.
		return
	}
	slot.Reset()
	e.fillCaptureFrame(slot, n)
	e.ring.EndProduceNextBuffer()
	e.mu.Lock()
	e.framesProcessed++
	e.mu.Unlock()
}

func (e *Engine) onOutputVBI(ctx context.Context) {
	slot, ok := e.ring.TryStartConsumeNextBuffer()
	if !ok {
		// Host hasn't queued a frame in time; this VBI plays nothing
		// new, an output underrun.
		e.mu.Lock()
		e.framesDropped++
		e.mu.Unlock()
		return
	}
	if _, err := e.gw.AutoCirculateTransfer(e.channel, slot.VideoBuf); err != nil {
		// Hardware isn't armed to accept a frame this VBI; retry the
		// same queued slot next VBI instead of dropping it.
		return
	}
	e.ring.EndConsumeNextBuffer()
	e.mu.Lock()
	e.framesProcessed++
	e.mu.Unlock()
}

// fillCaptureFrame runs the per-frame diagnostics for a captured
// frame: audio byte-count clamping, timecode
// capture, non-PCM transition detection, SDI input statistics. It does
// not touch slot.VideoBuf; the video DMA already happened in
// onInputVBI.
func (e *Engine) fillCaptureFrame(slot *ring.FrameSlot, videoBytes int) {
	if e.cadence != nil {
		samples := e.cadence.samplesForNextFrame()
		slot.ActualAudioBytes = audioBytesFor(samples, e.audioChans, e.audioBytesPS)
		if slot.ActualAudioBytes > len(slot.AudioBuf) {
			slot.ActualAudioBytes = len(slot.AudioBuf)
		}
	} else {
		slot.ActualAudioBytes = len(slot.AudioBuf)
	}

	if e.withAnc {
		e.captureAnc(slot)
	}
	if e.timecodeRead != nil {
		captureTimecodes(slot, e.timecodeIndices, e.timecodeRead)
	}

	e.checkNonPCM()
	if e.sdiStats {
		e.checkSDIStats()
	}
}

// ancExtractedSize reads a channel's ancillary extractor size register.
// Field 1 and field 2 use distinct registers
// (kRegCh*AncExtField1Size / kRegCh*AncExtField2Size); the original
// SDK's SetAncInsReadField2Params reads field 1's offset register for
// both fields (a known upstream bug). This engine does not
// replicate that: it reads each field's own register, and says so
// here rather than silently fixing an unstated-as-intentional
// upstream mixup.
func (e *Engine) ancExtractedSize(field int) (int, error) {
	v, err := e.gw.ReadRegister(regs.AncExtFieldSizeRegister(e.channel, field), 0xFFFFFFFF, 0)
	return int(v), err
}

func (e *Engine) captureAnc(slot *ring.FrameSlot) {
	f1, err := e.ancExtractedSize(1)
	if err == nil {
		if f1 > len(slot.AncF1Buf) {
			f1 = len(slot.AncF1Buf)
		}
		slot.ActualAncBytesF1 = f1
		clearStale(slot.AncF1Buf[f1:])
	}
	f2, err := e.ancExtractedSize(2)
	if err == nil {
		if f2 > len(slot.AncF2Buf) {
			f2 = len(slot.AncF2Buf)
		}
		slot.ActualAncBytesF2 = f2
		clearStale(slot.AncF2Buf[f2:])
	}
}

func clearStale(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func (e *Engine) checkNonPCM() {
	v, err := e.gw.ReadRegister(regs.AudioControlRegister(e.channel), 0xFFFFFFFF, 0)
	if err != nil {
		return
	}
	pairs := e.nonPCM.update(v)
	if len(pairs) == 0 || !e.diagLimiter.Allow() {
		return
	}
	diag.For(diag.Audio).Info("non-PCM pair transition", "channel", e.channel, "pairs", pairs)
}

func (e *Engine) checkSDIStats() {
	v, err := e.gw.ReadRegister(regs.SDIErrorStatusRegister(e.channel), 0xFFFFFFFF, 0)
	if err != nil || v == 0 || !e.diagLimiter.Allow() {
		return
	}
	diag.For(diag.Capture).Warn("SDI input error tally", "channel", e.channel, "status", v)
}
