package autocirculate

// Status is the host-visible AutoCirculate status struct. FramesProcessed
// and FramesDropped are the engine's own tally against the Frame Ring's
// capacity, not the Driver Gateway's separate hardware-level overwrite
// counters.
// BufferLevel/RingCapacity describe the same Frame Ring's current
// occupancy.
type Status struct {
	State State

	StartFrame uint32
	EndFrame   uint32

	FramesProcessed uint64
	FramesDropped   uint64

	BufferLevel  int
	RingCapacity int

	AudioSystem int
}
