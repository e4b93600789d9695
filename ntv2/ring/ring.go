// Package ring is the Frame Ring: a fixed-capacity, single-producer/
// single-consumer queue of *FrameSlot between a channel's capture DMA
// and its host consumer (symmetrically for playout). Capacity is fixed
// at construction; a shared abort flag unblocks any pending wait, the
// same "close-and-recreate a wake channel" pattern
// ntv2/gateway.Simulated uses for cancellable VBI waits, here guarding
// full/empty instead of VBI count.
package ring

import (
	"sync"

	"github.com/ntv2go/ntv2"
)

// Ring is a bounded SPSC queue of *FrameSlot. The zero value is not
// usable; construct with New.
type Ring struct {
	mu sync.Mutex

	slots    []*FrameSlot
	capacity int

	produced int // count of slots ever published
	consumed int // count of slots ever fully consumed
	reserved bool

	aborted bool
	wake    chan struct{}
}

// New builds a Ring of the given capacity, pre-allocating one FrameSlot
// per slot index via newSlot (ntv2/autocirculate supplies a constructor
// closing over that channel's video/audio/anc buffer sizes).
func New(capacity int, newSlot func() *FrameSlot) *Ring {
	slots := make([]*FrameSlot, capacity)
	for i := range slots {
		slots[i] = newSlot()
	}
	return &Ring{slots: slots, capacity: capacity, wake: make(chan struct{})}
}

// Capacity is the ring's fixed slot count.
func (r *Ring) Capacity() int { return r.capacity }

// Abort sets the shared abort flag: every blocked or future Start* call
// returns ErrAborted.
func (r *Ring) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		return
	}
	r.aborted = true
	r.wakeLocked()
}

func (r *Ring) wakeLocked() {
	close(r.wake)
	r.wake = make(chan struct{})
}

// StartProduceNextBuffer blocks while the ring is full, then returns the
// next write slot. Fails with ErrAborted if the abort flag is set on
// entry or while waiting.
func (r *Ring) StartProduceNextBuffer() (*FrameSlot, error) {
	const op = "Ring.StartProduceNextBuffer"
	for {
		r.mu.Lock()
		if r.aborted {
			r.mu.Unlock()
			return nil, ntv2.WrapOp(op, ntv2.ErrAborted)
		}
		if r.produced-r.consumed < r.capacity {
			r.reserved = true
			slot := r.slots[r.produced%r.capacity]
			r.mu.Unlock()
			return slot, nil
		}
		wake := r.wake
		r.mu.Unlock()
		<-wake
	}
}

// TryStartProduceNextBuffer is StartProduceNextBuffer's non-blocking
// form: it never waits. ok is false if the ring is full or aborted.
// ntv2/autocirculate's hardware-paced side uses this instead of the
// blocking form — hardware doesn't wait on a slow host either, it
// overwrites, so the engine treats "ring full" as a drop rather than a
// stall.
func (r *Ring) TryStartProduceNextBuffer() (*FrameSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted || r.produced-r.consumed >= r.capacity {
		return nil, false
	}
	r.reserved = true
	return r.slots[r.produced%r.capacity], true
}

// TryStartConsumeNextBuffer is StartConsumeNextBuffer's non-blocking
// form: ok is false if the ring is empty or aborted.
func (r *Ring) TryStartConsumeNextBuffer() (*FrameSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted || r.consumed >= r.produced {
		return nil, false
	}
	return r.slots[r.consumed%r.capacity], true
}

// EndProduceNextBuffer publishes the slot most recently returned by
// StartProduceNextBuffer, advancing the write index and waking any
// blocked consumer.
func (r *Ring) EndProduceNextBuffer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.produced++
	r.reserved = false
	r.wakeLocked()
}

// StartConsumeNextBuffer blocks while the ring is empty, then returns
// the oldest published, not-yet-consumed slot.
func (r *Ring) StartConsumeNextBuffer() (*FrameSlot, error) {
	const op = "Ring.StartConsumeNextBuffer"
	for {
		r.mu.Lock()
		if r.aborted {
			r.mu.Unlock()
			return nil, ntv2.WrapOp(op, ntv2.ErrAborted)
		}
		if r.consumed < r.produced {
			slot := r.slots[r.consumed%r.capacity]
			r.mu.Unlock()
			return slot, nil
		}
		wake := r.wake
		r.mu.Unlock()
		<-wake
	}
}

// EndConsumeNextBuffer releases the slot most recently returned by
// StartConsumeNextBuffer, advancing the read index and waking any
// blocked producer.
func (r *Ring) EndConsumeNextBuffer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed++
	r.wakeLocked()
}

// BufferLevel is (produced - consumed), the number of slots currently
// published and awaiting consumption.
func (r *Ring) BufferLevel() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.produced - r.consumed
}
