package ring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ntv2go/ntv2"
	"github.com/stretchr/testify/require"
)

func newTestRing(capacity int) *Ring {
	return New(capacity, func() *FrameSlot { return NewFrameSlot(4, 4, 4, 4) })
}

// Every slot produced is consumed exactly once, in FIFO order, for
// one producer and one consumer running concurrently.
func TestRingProducerConsumerFIFO(t *testing.T) {
	r := newTestRing(4)
	const n = 500

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			slot, err := r.StartProduceNextBuffer()
			require.NoError(t, err)
			slot.VideoBuf[0] = byte(i)
			slot.ActualAudioBytes = i
			r.EndProduceNextBuffer()
		}
	}()

	var got []int
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			slot, err := r.StartConsumeNextBuffer()
			require.NoError(t, err)
			got = append(got, slot.ActualAudioBytes)
			r.EndConsumeNextBuffer()
		}
	}()

	wg.Wait()
	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v, "slot %d consumed out of FIFO order", i)
	}
}

func TestRingStartProduceBlocksWhenFull(t *testing.T) {
	r := newTestRing(2)
	for i := 0; i < 2; i++ {
		slot, err := r.StartProduceNextBuffer()
		require.NoError(t, err)
		_ = slot
		r.EndProduceNextBuffer()
	}

	done := make(chan struct{})
	go func() {
		_, _ = r.StartProduceNextBuffer()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("StartProduceNextBuffer returned while ring was full")
	case <-time.After(30 * time.Millisecond):
	}

	_, err := r.StartConsumeNextBuffer()
	require.NoError(t, err)
	r.EndConsumeNextBuffer()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartProduceNextBuffer never unblocked after a consume freed a slot")
	}
}

func TestRingStartConsumeBlocksWhenEmpty(t *testing.T) {
	r := newTestRing(2)
	done := make(chan struct{})
	go func() {
		_, _ = r.StartConsumeNextBuffer()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("StartConsumeNextBuffer returned on an empty ring")
	case <-time.After(30 * time.Millisecond):
	}

	_, err := r.StartProduceNextBuffer()
	require.NoError(t, err)
	r.EndProduceNextBuffer()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartConsumeNextBuffer never unblocked after a produce published a slot")
	}
}

func TestRingAbortUnblocksBlockedProducer(t *testing.T) {
	r := newTestRing(1)
	_, err := r.StartProduceNextBuffer()
	require.NoError(t, err)
	r.EndProduceNextBuffer() // ring now full; a second producer must block

	producerErr := make(chan error, 1)
	go func() {
		_, err := r.StartProduceNextBuffer()
		producerErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	r.Abort()

	select {
	case err := <-producerErr:
		require.True(t, errors.Is(err, ntv2.ErrAborted))
	case <-time.After(time.Second):
		t.Fatal("producer never unblocked after Abort")
	}

	_, err = r.StartProduceNextBuffer()
	require.True(t, errors.Is(err, ntv2.ErrAborted), "Start* must also fail immediately after Abort, not just wake pending waits")
}

func TestRingAbortUnblocksBlockedConsumer(t *testing.T) {
	r := newTestRing(1) // empty; a consumer must block

	consumerErr := make(chan error, 1)
	go func() {
		_, err := r.StartConsumeNextBuffer()
		consumerErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	r.Abort()

	select {
	case err := <-consumerErr:
		require.True(t, errors.Is(err, ntv2.ErrAborted))
	case <-time.After(time.Second):
		t.Fatal("consumer never unblocked after Abort")
	}
}

func TestRingTryStartProduceNextBufferFailsWhenFull(t *testing.T) {
	r := newTestRing(2)
	for i := 0; i < 2; i++ {
		slot, ok := r.TryStartProduceNextBuffer()
		require.True(t, ok)
		require.NotNil(t, slot)
		r.EndProduceNextBuffer()
	}
	_, ok := r.TryStartProduceNextBuffer()
	require.False(t, ok, "TryStartProduceNextBuffer must not block on a full ring")

	_, err := r.StartConsumeNextBuffer()
	require.NoError(t, err)
	r.EndConsumeNextBuffer()

	_, ok = r.TryStartProduceNextBuffer()
	require.True(t, ok, "a freed slot must be immediately available")
}

func TestRingTryStartConsumeNextBufferFailsWhenEmpty(t *testing.T) {
	r := newTestRing(2)
	_, ok := r.TryStartConsumeNextBuffer()
	require.False(t, ok, "TryStartConsumeNextBuffer must not block on an empty ring")

	_, err := r.StartProduceNextBuffer()
	require.NoError(t, err)
	r.EndProduceNextBuffer()

	slot, ok := r.TryStartConsumeNextBuffer()
	require.True(t, ok)
	require.NotNil(t, slot)
}

func TestRingTryStartProduceNextBufferFailsAfterAbort(t *testing.T) {
	r := newTestRing(2)
	r.Abort()
	_, ok := r.TryStartProduceNextBuffer()
	require.False(t, ok)
	_, ok = r.TryStartConsumeNextBuffer()
	require.False(t, ok)
}

func TestRingBufferLevel(t *testing.T) {
	r := newTestRing(4)
	require.Equal(t, 0, r.BufferLevel())
	_, _ = r.StartProduceNextBuffer()
	r.EndProduceNextBuffer()
	require.Equal(t, 1, r.BufferLevel())
	_, _ = r.StartConsumeNextBuffer()
	r.EndConsumeNextBuffer()
	require.Equal(t, 0, r.BufferLevel())
}
