package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent field/frame timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for a
// Simulated gateway that just needs to look like it's pacing to VBI.
type TickerLimiter struct {
	fps    float64
	ticker *time.Ticker
	ch     <-chan time.Time
}

func NewTickerLimiter(fps float64) *TickerLimiter {
	ticker := time.NewTicker(FrameDuration(fps))
	return &TickerLimiter{
		fps:    fps,
		ticker: ticker,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration(t.fps))
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
