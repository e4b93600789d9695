package gateway

import "github.com/ntv2go/ntv2"

var (
	errDeviceUnavailable   = ntv2.ErrDeviceUnavailable
	errBadRegister         = ntv2.ErrBadRegister
	errUnsupportedOnDevice = ntv2.ErrUnsupportedOnDevice
	errAborted             = ntv2.ErrAborted
	errBusy                = ntv2.ErrBusy
	errInvalidState        = ntv2.ErrInvalidState
	errNoFrame             = ntv2.ErrNoFrame
	errBufferTooSmall      = ntv2.ErrBufferTooSmall
)

func wrapOp(op string, err error) error { return ntv2.WrapOp(op, err) }
