// Package ntv2 defines the device and channel handles that the rest of
// the module's packages operate on, plus the typed error kinds the
// Driver Gateway and AutoCirculate engine return.
package ntv2

import "errors"

// Sentinel errors for every kind this module defines. Errors from the
// gateway, router, ring and autocirculate packages wrap one of these
// where one applies, so callers branch with
// errors.Is(err, ntv2.ErrIllegalRoute) regardless of which of those
// packages produced it. Some errors wrap none: ntv2/format's validation
// errors, a wait or DMA cancelled through its context (ctx.Err()),
// route-ROM fixture parse errors, and ioctl errnos that match no kind.
var (
	// ErrDeviceUnavailable means the device handle no longer refers to a
	// live, openable device (unplugged, driver unloaded).
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrBadRegister means a register number is out of range or reserved.
	ErrBadRegister = errors.New("bad register")
	// ErrUnsupportedOnDevice means the operation is well-formed but this
	// device model doesn't implement it.
	ErrUnsupportedOnDevice = errors.New("unsupported on device")
	// ErrIllegalRoute means a requested crosspoint connection isn't in
	// the device's route ROM.
	ErrIllegalRoute = errors.New("illegal route")
	// ErrNoFrame means AutoCirculate has nothing ready to transfer right
	// now. Non-fatal: callers retry later.
	ErrNoFrame = errors.New("no frame available")
	// ErrFrameDropped means the ring wrapped before a produced frame was
	// consumed. Non-fatal: the engine counts such drops in its
	// FramesDropped status counter and keeps running; it does not return
	// this error itself.
	ErrFrameDropped = errors.New("frame dropped")
	// ErrAborted means a blocking call returned because the shared abort
	// flag was set, not because it completed normally.
	ErrAborted = errors.New("aborted")
	// ErrBufferTooSmall means a caller-supplied buffer can't hold what
	// the operation needs to write.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrInvalidState means the operation doesn't apply to
	// AutoCirculate's current state (e.g. Start before Init).
	ErrInvalidState = errors.New("invalid state")
	// ErrBusy means the resource (frame range, audio system) is already
	// claimed by another running channel.
	ErrBusy = errors.New("busy")
)

// OpError names the operation and device a sentinel error occurred on,
// the way *os.PathError does for the standard library. Err is one of
// the Err* sentinels above (or wraps one), or a context's ctx.Err() for
// a cancelled wait or DMA; Unwrap exposes it so
// errors.Is keeps working through this wrapper.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *OpError) Unwrap() error { return e.Err }

// wrapOp is the constructor every package in this module calls to
// attach an operation name to one of the sentinel errors above.
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// WrapOp is the exported form, used by sibling packages (gateway,
// router, ring, autocirculate) to build operation
// errors without duplicating the OpError type.
func WrapOp(op string, err error) error { return wrapOp(op, err) }
