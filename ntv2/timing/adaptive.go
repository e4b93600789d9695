package timing

import (
	"time"

	"github.com/charmbracelet/log"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	fps             float64
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

// NewAdaptiveLimiter builds a limiter paced to fps, one of the FPSxx
// constants or any other broadcast rate.
func NewAdaptiveLimiter(fps float64) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		fps:             fps,
		targetFrameTime: FrameDuration(fps),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
				// busy-wait for times under 2ms, higher accuracy.
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		actualTime := time.Now()
		expectedTime := a.nextFrameTime
		drift := actualTime.Sub(expectedTime)

		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			log.Debug("VBI timing drift correction", "drift_ms", drift.Milliseconds(), "target_fps", a.fps)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
