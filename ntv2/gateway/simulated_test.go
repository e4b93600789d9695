package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ntv2go/ntv2"
	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/regs"
)

func testModel() devicemodel.Model {
	return devicemodel.For(devicemodel.IDStackedHD)
}

func TestReadWriteRegisterMaskShift(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	if err := g.WriteRegister(regs.RegGlobalControl, 0xF, 0xFF, 4); err != nil {
		t.Fatal(err)
	}
	v, err := g.ReadRegister(regs.RegGlobalControl, 0xFF, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xF {
		t.Errorf("ReadRegister = %#x; want 0xF", v)
	}
}

func TestWriteRegisterBadRegisterNumber(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	huge := regs.Num(testModel().MaxRegisterNumber + 1000)
	if err := g.WriteRegister(huge, 1, 0xFFFFFFFF, 0); !errors.Is(err, ntv2.ErrBadRegister) {
		t.Fatalf("err = %v; want ErrBadRegister", err)
	}
}

func TestUnrecognizedModelRejectsAllRegisters(t *testing.T) {
	g := NewSimulated(devicemodel.For(devicemodel.ID(0xDEADBEEF)), 16)
	if err := g.WriteRegister(regs.RegGlobalControl, 1, 0xFFFFFFFF, 0); !errors.Is(err, ntv2.ErrBadRegister) {
		t.Fatalf("err = %v; want ErrBadRegister (unrecognized model has no MaxRegisterNumber ceiling to enforce)", err)
	}
}

func TestBatchedReadWriteRegisters(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	err := g.WriteRegisters([]RegisterAccess{
		{Num: regs.RegGlobalControl, Value: 1, Mask: 0xFFFFFFFF},
		{Num: regs.RegChannelControl1, Value: 2, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		t.Fatal(err)
	}
	vals, err := g.ReadRegisters([]RegisterAccess{
		{Num: regs.RegGlobalControl, Mask: 0xFFFFFFFF},
		{Num: regs.RegChannelControl1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != 1 || vals[1] != 2 {
		t.Errorf("batched read = %v; want [1 2]", vals)
	}
}

func TestWaitForInputVerticalInterruptUnblocksOnPulse(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	done := make(chan error, 1)
	go func() {
		done <- g.WaitForInputVerticalInterrupt(context.Background(), 0, 3)
	}()

	for i := 0; i < 3; i++ {
		time.Sleep(time.Millisecond)
		g.PulseVBI(0, true)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForInputVerticalInterrupt returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForInputVerticalInterrupt never returned")
	}
}

func TestWaitForInputVerticalInterruptAbort(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	done := make(chan error, 1)
	go func() {
		done <- g.WaitForInputVerticalInterrupt(context.Background(), 0, 100)
	}()
	time.Sleep(time.Millisecond)
	g.Abort()

	select {
	case err := <-done:
		if !errors.Is(err, ntv2.ErrAborted) {
			t.Fatalf("err = %v; want ErrAborted", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForInputVerticalInterrupt never returned after Abort")
	}
}

func TestWaitForInputVerticalInterruptContextCancel(t *testing.T) {
	g := NewSimulated(testModel(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.WaitForInputVerticalInterrupt(ctx, 0, 100)
	}()
	time.Sleep(time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v; want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForInputVerticalInterrupt never returned after cancel")
	}
}

func TestSubmitDMAContiguousRoundTrip(t *testing.T) {
	g := NewSimulated(testModel(), 4)
	write := make([]byte, 128)
	for i := range write {
		write[i] = byte(i)
	}
	err := g.SubmitDMA(context.Background(), DMARequest{
		Direction:   DMAWrite,
		FrameNumber: 2,
		HostBuffer:  write,
		LengthBytes: uint32(len(write)),
	})
	if err != nil {
		t.Fatal(err)
	}

	read := make([]byte, 128)
	err = g.SubmitDMA(context.Background(), DMARequest{
		Direction:   DMARead,
		FrameNumber: 2,
		HostBuffer:  read,
		LengthBytes: uint32(len(read)),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range write {
		if read[i] != write[i] {
			t.Fatalf("DMA round trip mismatch at byte %d: got %d want %d", i, read[i], write[i])
		}
	}
}

func TestSubmitDMASegmented(t *testing.T) {
	g := NewSimulated(testModel(), 4)
	host := make([]byte, 300)
	for i := range host {
		host[i] = byte(i % 251)
	}
	segs := BuildStridedSegments(0, 100, 64, 64, 3)
	err := g.SubmitDMA(context.Background(), DMARequest{
		Direction:   DMAWrite,
		FrameNumber: 0,
		HostBuffer:  host,
		Segments:    segs,
	})
	if err != nil {
		t.Fatal(err)
	}

	readBack := make([]byte, 300)
	readSegs := BuildStridedSegments(0, 100, 64, 64, 3)
	err = g.SubmitDMA(context.Background(), DMARequest{
		Direction:   DMARead,
		FrameNumber: 0,
		HostBuffer:  readBack,
		Segments:    readSegs,
	})
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < 3; row++ {
		for b := 0; b < 64; b++ {
			i := row*100 + b
			if readBack[i] != host[i] {
				t.Fatalf("segmented DMA mismatch row %d byte %d", row, b)
			}
		}
	}
}

func TestAutoCirculateLifecycle(t *testing.T) {
	g := NewSimulated(testModel(), 8)
	err := g.AutoCirculateInitForInput(AutoCirculateInitOptions{
		Channel: 0, StartFrame: 0, FrameCount: 4, WithAudio: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.AutoCirculateStart(0); err != nil {
		t.Fatal(err)
	}

	g.PulseVBI(0, true) // Starting -> Running; arming pulse, no frame pending yet
	g.PulseVBI(0, true) // first Running pulse: frame 1 ready

	buf := make([]byte, 16)
	n, err := g.AutoCirculateTransfer(0, buf)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if n != 16 {
		t.Errorf("Transfer n = %d; want 16", n)
	}

	status, err := g.AutoCirculateGetStatus(0)
	if err != nil {
		t.Fatal(err)
	}
	if status.FramesProcessed != 1 {
		t.Errorf("FramesProcessed = %d; want 1", status.FramesProcessed)
	}
	if status.State != ACStateRunning {
		t.Errorf("State = %v; want Running", status.State)
	}
}

func TestAutoCirculateTransferNoFrameBetweenPulses(t *testing.T) {
	g := NewSimulated(testModel(), 8)
	g.AutoCirculateInitForInput(AutoCirculateInitOptions{Channel: 0, StartFrame: 0, FrameCount: 4})
	g.AutoCirculateStart(0)
	g.PulseVBI(0, true) // Starting -> Running, arming pulse
	g.PulseVBI(0, true) // frame 1 ready

	buf := make([]byte, 16)
	if _, err := g.AutoCirculateTransfer(0, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AutoCirculateTransfer(0, buf); !errors.Is(err, ntv2.ErrNoFrame) {
		t.Fatalf("second Transfer err = %v; want ErrNoFrame", err)
	}
}

func TestAutoCirculateDropsUnpickedFrame(t *testing.T) {
	g := NewSimulated(testModel(), 8)
	g.AutoCirculateInitForInput(AutoCirculateInitOptions{Channel: 0, StartFrame: 0, FrameCount: 4})
	g.AutoCirculateStart(0)

	g.PulseVBI(0, true) // Starting -> Running, arming pulse
	g.PulseVBI(0, true) // frame 1 ready
	g.PulseVBI(0, true) // frame 1 never picked up -> dropped, frame 2 ready

	status, _ := g.AutoCirculateGetStatus(0)
	if status.FramesDropped != 1 {
		t.Errorf("FramesDropped = %d; want 1", status.FramesDropped)
	}
}

func TestAutoCirculateInitRejectsOverlappingRunningRange(t *testing.T) {
	g := NewSimulated(testModel(), 8)
	if err := g.AutoCirculateInitForInput(AutoCirculateInitOptions{Channel: 0, StartFrame: 0, FrameCount: 4}); err != nil {
		t.Fatal(err)
	}
	if err := g.AutoCirculateStart(0); err != nil {
		t.Fatal(err)
	}
	g.PulseVBI(0, true)

	err := g.AutoCirculateInitForInput(AutoCirculateInitOptions{Channel: 1, StartFrame: 2, FrameCount: 4})
	if !errors.Is(err, ntv2.ErrBusy) {
		t.Fatalf("overlapping Init err = %v; want ErrBusy", err)
	}
}
