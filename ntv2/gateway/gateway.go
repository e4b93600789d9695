// Package gateway is the Driver Gateway: the only component permitted
// to touch device memory or wait on device events. It
// defines the Gateway interface plus two implementations: a real Linux
// ioctl-backed one, and Simulated, the in-memory substrate every other
// package's tests (and cmd/ntv2ctl's dry-run mode) are built against.
package gateway

import (
	"context"

	"github.com/ntv2go/ntv2/regs"
)

// RegisterWriteMode selects when a WriteRegister's effect becomes
// visible to subsequent reads: immediately, at the next vertical
// interrupt, or at the next field boundary. This must be
// caller-selectable per channel for crosspoint round-trips to hold on
// every device.
type RegisterWriteMode int

const (
	WriteImmediate RegisterWriteMode = iota
	WriteAtVBI
	WriteAtField
)

// RegisterAccess describes one entry of a batched read or write.
type RegisterAccess struct {
	Num   regs.Num
	Value uint32
	Mask  uint32
	Shift uint
}

// DMADirection is the transfer direction of a SubmitDMA call.
type DMADirection int

const (
	DMARead DMADirection = iota
	DMAWrite
)

// DMASegment describes one strided sub-image copy within a SubmitDMA
// call (ntv2dma.cpp's segmented/strided transfer form). HostOffset and
// Length index into the DMARequest's HostBuffer.
type DMASegment struct {
	HostOffset int
	CardOffset uint32
	Length     uint32
}

// DMARequest is a synchronous blocking transfer. SubmitDMA does not
// resolve Engine == -1 to a free engine: the ioctl implementation passes
// Engine to the device as given and Simulated ignores it;
// EngineFirstAvailable picks a free engine for callers that track which
// engines are busy. HostBuffer is the Go-native host memory to
// transfer to/from; the linux ioctl implementation takes its address
// via unsafe.Pointer only at the wire-struct boundary (the kernel
// struct's HostAddress:u64 field) — callers never handle raw addresses
// themselves.
type DMARequest struct {
	Engine         int
	Direction      DMADirection
	FrameNumber    uint32
	HostBuffer     []byte
	CardOffsetByte uint32
	LengthBytes    uint32
	HostPitchBytes uint32
	CardPitchBytes uint32
	Segments       []DMASegment
	Sync           bool
}

// AutoCirculateState mirrors the kernel AutoCirculate status struct's
// state field.
type AutoCirculateState int

const (
	ACStateStopped AutoCirculateState = iota
	ACStateInitializing
	ACStateStarting
	ACStateRunning
	ACStatePaused
	ACStateStopping
)

func (s AutoCirculateState) String() string {
	switch s {
	case ACStateStopped:
		return "Stopped"
	case ACStateInitializing:
		return "Initializing"
	case ACStateStarting:
		return "Starting"
	case ACStateRunning:
		return "Running"
	case ACStatePaused:
		return "Paused"
	case ACStateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// AutoCirculateStatus is the bit-exact kernel status struct, widened
// to Go-native integer types at the boundary.
type AutoCirculateStatus struct {
	State                  AutoCirculateState
	StartFrame             uint32
	EndFrame               uint32
	ActiveFrame            uint32
	RDTSCPerFrameLo        uint32
	RDTSCPerFrameHi        uint32
	FramesProcessed        uint32
	FramesDropped          uint32
	BufferLevel            uint32
	AudioClockCurrentTime  uint32
	AudioSystem            int
	Options                uint32
}

// AutoCirculateInitOptions carries the options_mask bits plus the
// frame-range request.
type AutoCirculateInitOptions struct {
	Channel       int
	StartFrame    uint32
	FrameCount    uint32
	AudioSystem   int
	WithAudio     bool
	WithRP188     bool
	WithAnc       bool
	WithLTC       bool
	WithFBFChange bool
	WithFRChange  bool
}

// Gateway is the boundary every higher-level package (regs excepted)
// ultimately calls through. All methods are safe for concurrent use by
// multiple goroutines on the same Gateway: the Driver Gateway is
// thread-safe.
type Gateway interface {
	ReadRegister(num regs.Num, mask uint32, shift uint) (uint32, error)
	WriteRegister(num regs.Num, value, mask uint32, shift uint) error
	ReadRegisters(accesses []RegisterAccess) ([]uint32, error)
	WriteRegisters(accesses []RegisterAccess) error

	SetWriteMode(channel int, mode RegisterWriteMode)

	// WaitForInputVerticalInterrupt and WaitForOutputVerticalInterrupt
	// block until the n-th VBI of that kind and channel, or ctx is
	// canceled / the Gateway's abort flag is set, whichever first.
	WaitForInputVerticalInterrupt(ctx context.Context, channel int, n int) error
	WaitForOutputVerticalInterrupt(ctx context.Context, channel int, n int) error

	SubmitDMA(ctx context.Context, req DMARequest) error

	AutoCirculateInitForInput(opts AutoCirculateInitOptions) error
	AutoCirculateInitForOutput(opts AutoCirculateInitOptions) error
	AutoCirculateStart(channel int) error
	AutoCirculateStop(channel int) error
	AutoCirculateGetStatus(channel int) (AutoCirculateStatus, error)
	AutoCirculateTransfer(channel int, buf []byte) (int, error)

	// Abort sets the shared abort flag: every blocking call above
	// returns ErrAborted on its next check. Quit-time cleanup calls
	// this once before joining Producer/Consumer goroutines.
	Abort()
}
