package autocirculate

import (
	"errors"
	"testing"
	"time"

	"github.com/ntv2go/ntv2"
	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/format"
	"github.com/ntv2go/ntv2/gateway"
	"github.com/ntv2go/ntv2/regs"
	"github.com/ntv2go/ntv2/ring"
)

func testModel() devicemodel.Model {
	return devicemodel.For(devicemodel.IDStackedHD)
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *gateway.Simulated) {
	t.Helper()
	gw := gateway.NewSimulated(testModel(), 16)
	e := New(gw, opts.Channel)
	if err := e.Init(opts); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { e.Stop() })
	return e, gw
}

func baseOpts() Options {
	return Options{
		Channel:      0,
		Direction:    DirectionCapture,
		StartFrame:   0,
		FrameCount:   4,
		VideoBufSize: 16,
		AudioBufSize: 64,
	}
}

// TestEngineDrainingConsumerHasNoDrops mirrors the "7-frame ring, no
// drops" end-to-end scenario at a test-sized VBI
// count: an unblocked consumer that drains every frame before the
// next VBI sees zero drops and frames_processed equal to the number
// of serviced (post-arming) VBIs.
func TestEngineDrainingConsumerHasNoDrops(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(0, true) // Starting -> Running, arming pulse; no frame yet
	time.Sleep(2 * time.Millisecond)

	const n = 10
	video := make([]byte, 16)
	audio := make([]byte, 64)
	for i := 0; i < n; i++ {
		gw.PulseVBI(0, true)
		time.Sleep(2 * time.Millisecond)
		if _, err := e.Transfer(TransferBuffers{VideoBuf: video, AudioBuf: audio}); err != nil {
			t.Fatalf("Transfer %d: %v", i, err)
		}
	}

	st, err := e.GetStatus()
	if err != nil {
		t.Fatal(err)
	}
	if st.FramesProcessed != n {
		t.Errorf("FramesProcessed = %d; want %d", st.FramesProcessed, n)
	}
	if st.FramesDropped != 0 {
		t.Errorf("FramesDropped = %d; want 0", st.FramesDropped)
	}
}

// TestEngineNonDrainingConsumerDropsAfterRingFills covers a consumer
// that never drains: frames_processed plateaus at
// the ring's capacity (this implementation's ring holds up to
// capacity slots before failing a reservation, one more than the
// "ring_capacity - 1" a sentinel-slotted array ring would allow — see
// DESIGN.md) and every VBI beyond that counted as dropped, with
// processed+dropped equal to the number of post-arming VBIs.
func TestEngineNonDrainingConsumerDropsAfterRingFills(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(0, true) // arming pulse
	time.Sleep(2 * time.Millisecond)

	const n = 7
	for i := 0; i < n; i++ {
		gw.PulseVBI(0, true)
		time.Sleep(2 * time.Millisecond)
	}

	st, err := e.GetStatus()
	if err != nil {
		t.Fatal(err)
	}
	wantProcessed := uint64(opts.RingCapacity)
	wantDropped := uint64(n) - wantProcessed
	if st.FramesProcessed != wantProcessed {
		t.Errorf("FramesProcessed = %d; want %d", st.FramesProcessed, wantProcessed)
	}
	if st.FramesDropped != wantDropped {
		t.Errorf("FramesDropped = %d; want %d", st.FramesDropped, wantDropped)
	}
	if st.FramesProcessed+st.FramesDropped != uint64(n) {
		t.Errorf("processed+dropped = %d; want %d", st.FramesProcessed+st.FramesDropped, n)
	}
}

func TestEngineTransferNonBlockingWhenNoFrame(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	e, _ := newTestEngine(t, opts)

	buf := TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)}
	if _, err := e.Transfer(buf); !errors.Is(err, ntv2.ErrNoFrame) {
		t.Fatalf("Transfer on empty ring err = %v; want ErrNoFrame", err)
	}
}

func TestEngineStateTransitions(t *testing.T) {
	opts := baseOpts()
	gw := gateway.NewSimulated(testModel(), 16)
	e := New(gw, opts.Channel)

	if err := e.Pause(); !errors.Is(err, ntv2.ErrInvalidState) {
		t.Fatalf("Pause before Init = %v; want ErrInvalidState", err)
	}
	if err := e.Init(opts); err != nil {
		t.Fatal(err)
	}
	if err := e.Init(opts); !errors.Is(err, ntv2.ErrInvalidState) {
		t.Fatalf("double Init = %v; want ErrInvalidState", err)
	}
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)

	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := e.Pause(); !errors.Is(err, ntv2.ErrInvalidState) {
		t.Fatalf("double Pause = %v; want ErrInvalidState", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
}

func TestEngineInitRejectsShortFrameRange(t *testing.T) {
	gw := gateway.NewSimulated(testModel(), 16)
	e := New(gw, 0)
	opts := baseOpts()
	opts.FrameCount = 1
	if err := e.Init(opts); !errors.Is(err, ntv2.ErrInvalidState) {
		t.Fatalf("Init with FrameCount=1 err = %v; want ErrInvalidState", err)
	}
}

func TestEngineCapturesTimecodes(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	opts.TimecodeIndices = []ring.TimecodeIndex{1, 2}
	opts.TimecodeRead = func(idx ring.TimecodeIndex) (uint64, bool) {
		if idx == 2 {
			return 0, false
		}
		return 0x01020304, true
	}
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)

	res, err := e.Transfer(TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := res.Timecodes[1]
	if !ok || tc.Bits != 0x01020304 {
		t.Errorf("Timecodes[1] = %+v, ok=%v; want 0x01020304, true", tc, ok)
	}
	if _, ok := res.Timecodes[2]; ok {
		t.Errorf("Timecodes[2] present; source reported invalid")
	}
}

func TestEngineAudioCadenceClampsToActualBytes(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	opts.AudioBufSize = 8192
	opts.SampleRate = 48000
	opts.FrameRate = format.FrameRate29_97
	opts.AudioChannels = 16
	opts.AudioBytesPerSample = 4
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)

	res, err := e.Transfer(TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 8192)})
	if err != nil {
		t.Fatal(err)
	}
	if res.AudioBytes < 8000 || res.AudioBytes > 8200 {
		t.Errorf("AudioBytes = %d; want in [8000, 8200]", res.AudioBytes)
	}
}

func TestEngineAncFieldSizesClampedIndependently(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	opts.WithAnc = true
	opts.AncF1Size = 32
	opts.AncF2Size = 32
	e, gw := newTestEngine(t, opts)

	if err := gw.WriteRegister(regs.RegAncExtF1Size1, 8, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}
	if err := gw.WriteRegister(regs.RegAncExtF2Size1, 0, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}

	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)

	res, err := e.Transfer(TransferBuffers{
		VideoBuf: make([]byte, 16),
		AudioBuf: make([]byte, 64),
		AncF1Buf: make([]byte, 32),
		AncF2Buf: make([]byte, 32),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AncF1Bytes != 8 {
		t.Errorf("AncF1Bytes = %d; want 8", res.AncF1Bytes)
	}
	if res.AncF2Bytes != 0 {
		t.Errorf("AncF2Bytes = %d; want 0", res.AncF2Bytes)
	}
}

func TestClearStale(t *testing.T) {
	b := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	clearStale(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %#x; want 0", i, v)
		}
	}
}

func TestEngineNonPCMTransitionDetection(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(0, true) // arming pulse, no capture
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(0, true) // first captured frame primes the snapshot at 0
	time.Sleep(2 * time.Millisecond)

	if err := gw.WriteRegister(regs.RegAudioControl1, 0x1, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}
	gw.PulseVBI(0, true) // second captured frame observes pair 0 flip
	time.Sleep(2 * time.Millisecond)

	buf := TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)}
	if _, err := e.Transfer(buf); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Transfer(buf); err != nil {
		t.Fatal(err)
	}
	// No assertion beyond "doesn't panic and both transfers succeed":
	// the transition diagnostic goes to ntv2/diag, not the transfer
	// result.
}

func TestEngineSDIStatsDiagnosticDoesNotBreakTransfer(t *testing.T) {
	opts := baseOpts()
	opts.RingCapacity = 3
	opts.SDIStats = true
	e, gw := newTestEngine(t, opts)

	if err := gw.WriteRegister(regs.RegSDIErrorStatus1, 0x3, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}

	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(0, true)
	time.Sleep(2 * time.Millisecond)

	if _, err := e.Transfer(TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)}); err != nil {
		t.Fatal(err)
	}
}

// TestEngineAncFieldSizesNonZeroChannel guards against channel 1's
// field-size registers aliasing channel 0's: writing a decoy value to
// channel 0's F2 register must not leak into channel 1's Transfer.
func TestEngineAncFieldSizesNonZeroChannel(t *testing.T) {
	opts := baseOpts()
	opts.Channel = 1
	opts.RingCapacity = 3
	opts.WithAnc = true
	opts.AncF1Size = 32
	opts.AncF2Size = 32
	e, gw := newTestEngine(t, opts)

	if err := gw.WriteRegister(regs.RegAncExtF2Size1, 99, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}
	if err := gw.WriteRegister(regs.AncExtFieldSizeRegister(1, 1), 8, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}
	if err := gw.WriteRegister(regs.AncExtFieldSizeRegister(1, 2), 0, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}

	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)

	res, err := e.Transfer(TransferBuffers{
		VideoBuf: make([]byte, 16),
		AudioBuf: make([]byte, 64),
		AncF1Buf: make([]byte, 32),
		AncF2Buf: make([]byte, 32),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AncF1Bytes != 8 {
		t.Errorf("AncF1Bytes = %d; want 8", res.AncF1Bytes)
	}
	if res.AncF2Bytes != 0 {
		t.Errorf("AncF2Bytes = %d; want 0 (channel 0's decoy write must not leak in)", res.AncF2Bytes)
	}
}

// TestEngineNonPCMTransitionDetectionNonZeroChannel mirrors
// TestEngineNonPCMTransitionDetection on channel 1, where the audio
// control register used to alias channel 0's RegAudioControl2.
func TestEngineNonPCMTransitionDetectionNonZeroChannel(t *testing.T) {
	opts := baseOpts()
	opts.Channel = 1
	opts.RingCapacity = 3
	e, gw := newTestEngine(t, opts)

	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)

	if err := gw.WriteRegister(regs.AudioControlRegister(1), 0x1, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}
	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)

	buf := TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)}
	if _, err := e.Transfer(buf); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Transfer(buf); err != nil {
		t.Fatal(err)
	}
}

// TestEngineSDIStatsNonZeroChannel mirrors
// TestEngineSDIStatsDiagnosticDoesNotBreakTransfer on channel 1, where
// the status register used to alias channel 0's arithmetic offset.
func TestEngineSDIStatsNonZeroChannel(t *testing.T) {
	opts := baseOpts()
	opts.Channel = 1
	opts.RingCapacity = 3
	opts.SDIStats = true
	e, gw := newTestEngine(t, opts)

	if err := gw.WriteRegister(regs.SDIErrorStatusRegister(1), 0x3, 0xFFFFFFFF, 0); err != nil {
		t.Fatal(err)
	}

	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)
	gw.PulseVBI(1, true)
	time.Sleep(2 * time.Millisecond)

	if _, err := e.Transfer(TransferBuffers{VideoBuf: make([]byte, 16), AudioBuf: make([]byte, 64)}); err != nil {
		t.Fatal(err)
	}
}
