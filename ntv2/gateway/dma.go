package gateway

// numDMAEngines is how many independent DMA engines a device exposes.
// Real NTV2 devices have 2-4; this module doesn't need to track exact
// per-model counts since EngineFirstAvailable just needs an upper
// bound for its scan, which returns the lowest-numbered free engine.
const numDMAEngines = 4

// EngineFirstAvailable implements ntv2dma.cpp's "pick whichever DMA
// engine isn't currently busy" policy: inUse reports whether an engine
// index is mid-transfer. Returns -1 if none are free.
func EngineFirstAvailable(inUse func(engine int) bool) int {
	for e := 0; e < numDMAEngines; e++ {
		if !inUse(e) {
			return e
		}
	}
	return -1
}

// BuildStridedSegments splits a rectangular sub-image transfer into one
// DMASegment per row, the strided/segmented form SubmitDMA accepts when
// a frame's host-side row pitch differs from its on-card row pitch
// (ntv2dma.cpp's segmented transfer). cardRowOffset is the byte offset
// of the image's first row within its frame.
func BuildStridedSegments(cardRowOffset uint32, hostPitchBytes, cardPitchBytes uint32, rowBytes uint32, numRows int) []DMASegment {
	segments := make([]DMASegment, numRows)
	for row := 0; row < numRows; row++ {
		segments[row] = DMASegment{
			HostOffset: row * int(hostPitchBytes),
			CardOffset: cardRowOffset + uint32(row)*cardPitchBytes,
			Length:     rowBytes,
		}
	}
	return segments
}
