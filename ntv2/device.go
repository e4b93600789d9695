package ntv2

import "github.com/ntv2go/ntv2/devicemodel"

// Device is an opaque handle to one card, carrying the bits every other
// package needs to reason about it: its model (for capability queries)
// and task mode.
type Device struct {
	ID       devicemodel.ID
	Model    devicemodel.Model
	TaskMode TaskMode
}

// TaskMode mirrors the firmware-level "who owns this device" switch:
// OEM task mode means a host application is expected to fully configure
// routing and AutoCirculate itself; standard task mode means the driver
// applies a default configuration at open.
type TaskMode int

const (
	TaskModeStandard TaskMode = iota
	TaskModeOEM
)

// NewDevice builds a Device handle for a known model ID.
func NewDevice(id devicemodel.ID) Device {
	return Device{ID: id, Model: devicemodel.For(id), TaskMode: TaskModeOEM}
}
