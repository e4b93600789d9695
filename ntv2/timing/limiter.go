// Package timing provides VBI-rate pacing for callers that simulate or
// throttle against a device's vertical interrupt cadence. A real Gateway
// never needs this (it blocks in the kernel on the actual interrupt). The
// Simulated gateway does not use it either; a caller that drives
// PulseVBI itself, or a host-side test harness, can use it to stand in
// for hardware that isn't present.
package timing

import "time"

// Limiter blocks until the next vertical interrupt is due.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next field/frame.
	WaitForNextFrame()

	// Reset resets the timing state, useful after a pause/resume.
	Reset()
}

// NewNoOpLimiter returns a Limiter that never blocks, for use against a
// real Gateway where WaitForInputVerticalInterrupt already paces the loop.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// FrameDuration returns the wall-clock period of one field/frame at fps.
func FrameDuration(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

// Common broadcast rates, expressed as the exact NTSC/PAL ratios rather
// than their rounded decimal names (23.98 is really 24000/1001).
const (
	FPS23_98 = 24000.0 / 1001.0
	FPS24    = 24.0
	FPS25    = 25.0
	FPS29_97 = 30000.0 / 1001.0
	FPS30    = 30.0
	FPS50    = 50.0
	FPS59_94 = 60000.0 / 1001.0
	FPS60    = 60.0
)
