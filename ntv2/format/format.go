// Package format computes video byte-layout: raster geometry, row
// bytes, frame bytes and field offsets for a (standard, pixel format,
// VANC mode) triple, plus the buffer-sizing and audio-offset helpers
// built on top of it. Nothing here touches a device; every function is
// a pure calculation, the same role a fixed lookup table plays for any
// format-dependent byte math.
package format

import "fmt"

// Standard is a raster timing family.
type Standard int

const (
	Standard525i Standard = iota
	Standard625i
	Standard720p
	Standard1080i
	Standard1080p
	Standard2Kx1080p
	Standard2Kx1080i
	Standard3840p
	Standard4096p
)

func (s Standard) String() string {
	switch s {
	case Standard525i:
		return "525i"
	case Standard625i:
		return "625i"
	case Standard720p:
		return "720p"
	case Standard1080i:
		return "1080i"
	case Standard1080p:
		return "1080p"
	case Standard2Kx1080p:
		return "2Kx1080p"
	case Standard2Kx1080i:
		return "2Kx1080i"
	case Standard3840p:
		return "3840p"
	case Standard4096p:
		return "4096p"
	default:
		return "Standard(?)"
	}
}

type geometry struct {
	rasterW, rasterH int
	progressive      bool
	is4K             bool
}

var geometries = map[Standard]geometry{
	Standard525i:     {rasterW: 720, rasterH: 486, progressive: false},
	Standard625i:     {rasterW: 720, rasterH: 576, progressive: false},
	Standard720p:     {rasterW: 1280, rasterH: 720, progressive: true},
	Standard1080i:    {rasterW: 1920, rasterH: 1080, progressive: false},
	Standard1080p:    {rasterW: 1920, rasterH: 1080, progressive: true},
	Standard2Kx1080p: {rasterW: 2048, rasterH: 1080, progressive: true},
	Standard2Kx1080i: {rasterW: 2048, rasterH: 1080, progressive: false},
	Standard3840p:    {rasterW: 3840, rasterH: 2160, progressive: true, is4K: true},
	Standard4096p:    {rasterW: 4096, rasterH: 2160, progressive: true, is4K: true},
}

// PixelFormat is an on-card pixel encoding. Byte-per-pixel/plane rules
// vary by format (see rowBytesFor).
type PixelFormat int

const (
	PixelFormat8BitYCbCr PixelFormat = iota
	PixelFormat10BitYCbCr
	PixelFormatPlanar420TwoPlane
	PixelFormatPlanar422TwoPlane
	PixelFormatPlanar422ThreePlane
	PixelFormat8BitRGBA
	PixelFormat8BitARGB
	PixelFormat8BitBGRA
	PixelFormatDPX10BitRGB
	PixelFormat48BitRGB
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormat8BitYCbCr:
		return "8-bit YCbCr"
	case PixelFormat10BitYCbCr:
		return "10-bit YCbCr"
	case PixelFormatPlanar420TwoPlane:
		return "Planar 4:2:0 (2 plane)"
	case PixelFormatPlanar422TwoPlane:
		return "Planar 4:2:2 (2 plane)"
	case PixelFormatPlanar422ThreePlane:
		return "Planar 4:2:2 (3 plane)"
	case PixelFormat8BitRGBA:
		return "8-bit RGBA"
	case PixelFormat8BitARGB:
		return "8-bit ARGB"
	case PixelFormat8BitBGRA:
		return "8-bit BGRA"
	case PixelFormatDPX10BitRGB:
		return "DPX 10-bit RGB"
	case PixelFormat48BitRGB:
		return "48-bit RGB"
	default:
		return "PixelFormat(?)"
	}
}

// VANCMode selects whether vertical ancillary lines are carried inside
// the video raster (On) or handled as separate anc buffers (Off).
type VANCMode int

const (
	VANCOff VANCMode = iota
	VANCOn
)

// vancExtraLines is how many additional lines VANCOn adds to the
// frame's total line count (once per frame, not per field). Real devices
// vary this by standard; here it is 0, so VANCOn and VANCOff yield the
// same layout, since the anc payload itself is sized from on-card
// registers, not recomputed here.
const vancExtraLines = 0

// Descriptor is everything DMA and buffer sizing need to know about one
// (standard, pixel format, VANC mode) combination.
type Descriptor struct {
	Standard    Standard
	PixelFormat PixelFormat
	VANCMode    VANCMode

	RasterWidth  int
	RasterHeight int

	ActiveLinesF1 int
	ActiveLinesF2 int

	RowBytes  int
	FrameSize int

	Field1LineOffset int
	Field2LineOffset int

	FirstActiveLineF1 int
	FirstActiveLineF2 int
}

// FormatDescriptor computes the byte-layout for standard/pixelFormat/
// vancMode. Returns an error if pixelFormat isn't legal for standard
// (e.g. planar 4:2:0 requires even width/height).
func FormatDescriptor(standard Standard, pixelFormat PixelFormat, vancMode VANCMode) (Descriptor, error) {
	geo, ok := geometries[standard]
	if !ok {
		return Descriptor{}, fmt.Errorf("format: unknown standard %v", standard)
	}

	if pixelFormat == PixelFormatPlanar420TwoPlane && (geo.rasterW%2 != 0 || geo.rasterH%2 != 0) {
		return Descriptor{}, fmt.Errorf("format: %v requires even width/height, got %dx%d", pixelFormat, geo.rasterW, geo.rasterH)
	}

	rowBytes, err := rowBytesFor(geo.rasterW, pixelFormat)
	if err != nil {
		return Descriptor{}, err
	}

	totalLines := geo.rasterH
	if vancMode == VANCOn {
		totalLines += vancExtraLines
	}

	var activeF1, activeF2 int
	var field2Offset int
	if geo.progressive {
		activeF1 = totalLines
		activeF2 = 0
	} else {
		// Interlaced: each field carries half the raster lines. Field 1's
		// lines are stored first and field 2's follow them, so field 2
		// starts activeF1 rows into the frame.
		activeF1 = totalLines / 2
		activeF2 = totalLines - activeF1
		field2Offset = activeF1 * rowBytes
	}

	frameSize := rowBytes * totalLines
	frameSize = planarSizeAdjust(frameSize, rowBytes, geo.rasterW, geo.rasterH, pixelFormat)

	return Descriptor{
		Standard:          standard,
		PixelFormat:       pixelFormat,
		VANCMode:          vancMode,
		RasterWidth:       geo.rasterW,
		RasterHeight:      geo.rasterH,
		ActiveLinesF1:     activeF1,
		ActiveLinesF2:     activeF2,
		RowBytes:          rowBytes,
		FrameSize:         frameSize,
		Field1LineOffset:  0,
		Field2LineOffset:  field2Offset,
		FirstActiveLineF1: 0,
		FirstActiveLineF2: activeF1,
	}, nil
}

// rowBytesFor applies the per-pixel-format byte rules to one raster
// row of width px pixels.
func rowBytesFor(px int, pf PixelFormat) (int, error) {
	switch pf {
	case PixelFormat8BitYCbCr:
		return px * 2, nil
	case PixelFormat10BitYCbCr:
		// 16 bytes per 6 pixels; partial groups still consume a full
		// 16-byte group.
		groups := (px + 5) / 6
		return groups * 16, nil
	case PixelFormatPlanar420TwoPlane, PixelFormatPlanar422TwoPlane, PixelFormatPlanar422ThreePlane:
		// Luma plane row bytes; chroma plane contribution is folded
		// into FrameSize by planarSizeAdjust.
		return px, nil
	case PixelFormat8BitRGBA, PixelFormat8BitARGB, PixelFormat8BitBGRA, PixelFormatDPX10BitRGB:
		return px * 4, nil
	case PixelFormat48BitRGB:
		return px * 6, nil
	default:
		return 0, fmt.Errorf("format: unknown pixel format %v", pf)
	}
}

// planarSizeAdjust adds the chroma plane(s)' contribution for planar
// formats, whose FrameSize isn't simply rowBytes*totalLines the way
// packed formats are.
func planarSizeAdjust(lumaFrameSize, lumaRowBytes, width, height int, pf PixelFormat) int {
	switch pf {
	case PixelFormatPlanar420TwoPlane:
		// One interleaved Cb/Cr plane at half resolution both ways.
		chromaRowBytes := lumaRowBytes
		chromaSize := chromaRowBytes * (height / 2)
		return lumaFrameSize + chromaSize
	case PixelFormatPlanar422TwoPlane:
		// One interleaved Cb/Cr plane at half horizontal resolution.
		chromaSize := lumaRowBytes * height
		return lumaFrameSize + chromaSize
	case PixelFormatPlanar422ThreePlane:
		// Separate Cb and Cr planes, each at half horizontal resolution.
		chromaRowBytes := lumaRowBytes / 2
		chromaSize := chromaRowBytes * height * 2
		return lumaFrameSize + chromaSize
	default:
		return lumaFrameSize
	}
}

// GetVideoActiveSize is the minimum buffer size needed for one frame of
// standard/pixelFormat/vancMode.
func GetVideoActiveSize(standard Standard, pixelFormat PixelFormat, vancMode VANCMode) (int, error) {
	d, err := FormatDescriptor(standard, pixelFormat, vancMode)
	if err != nil {
		return 0, err
	}
	return d.FrameSize, nil
}

// GetVideoWriteSize rounds GetVideoActiveSize up to the next 4096-byte
// boundary, the allocation granularity DMA writes respect.
func GetVideoWriteSize(standard Standard, pixelFormat PixelFormat, vancMode VANCMode) (int, error) {
	size, err := GetVideoActiveSize(standard, pixelFormat, vancMode)
	if err != nil {
		return 0, err
	}
	return roundUp4096(size), nil
}

func roundUp4096(size int) int {
	const quantum = 4096
	return (size + quantum - 1) &^ (quantum - 1)
}

// GetAudioMemoryOffset computes the card address of an audio system's
// buffer. On stacked-audio devices, audio systems are packed downward
// from the top of video memory in reverse index order; on legacy
// devices, all audio systems share one region starting at the base of
// the last video frame.
func GetAudioMemoryOffset(byteOffset uint64, audioSystem int, stacked bool, activeVideoSize uint64, lastVideoFrameBase uint64) uint64 {
	const audioRegionSize = 8 << 20 // 8 MB Memory Map quantum
	if stacked {
		return activeVideoSize - uint64(audioSystem+1)*audioRegionSize + byteOffset
	}
	return lastVideoFrameBase + byteOffset
}
