// Package devicemodel holds the per-device-ID capability tables every
// higher layer consults instead of branching on device ID directly. This
// is a table populated once per device at open time, read by pure
// functions afterward.
package devicemodel

// ID identifies a device model (the hardware SKU, not a particular open
// handle). Real firmware reports this from a board-ID register; it is
// treated as opaque data here.
type ID uint32

// Capability enumerates a yes/no or counted hardware feature that higher
// layers query instead of switching on ID.
type Capability int

const (
	// CapRouteROM: device exposes a route ROM for crosspoint validation.
	CapRouteROM Capability = iota
	// CapStackedAudio: audio systems live in dedicated top-of-memory
	// 8MB quanta rather than stealing the last video frame.
	CapStackedAudio
	// Cap4K: device can carry 4K/UHD rasters at all.
	Cap4K
	// CapTSI: device supports Two-Sample-Interleave 4K transport.
	CapTSI
	// CapSquares: device supports Squares (quadrant) 4K transport.
	CapSquares
	// CapLevelB: device supports 3G-SDI Level B carriage.
	CapLevelB
	// CapHDMIOut: device has at least one HDMI output widget.
	CapHDMIOut
)

// Countable enumerates a capability whose interesting value is a count,
// not a boolean.
type Countable int

const (
	// CountVideoChannels: number of framestore/channel widgets.
	CountVideoChannels Countable = iota
	// CountAudioSystems: number of independent audio engines.
	CountAudioSystems
	// CountSDIInputs: number of physical SDI input connectors.
	CountSDIInputs
	// CountSDIOutputs: number of physical SDI output connectors.
	CountSDIOutputs
	// Count425Mux: number of 425Mux (TSI) widget instances.
	Count425Mux
)

// Model is the populated capability table for one device. Construct via
// one of the named device-model constructors below, or For(id) to look
// one up from the built-in table.
type Model struct {
	ID ID

	MaxRegisterNumber uint32

	// known is true only for models returned from the builtin table.
	// MaxRegisterNumber 0 already means "no ceiling configured" for a
	// recognized model, so it can't double as "unrecognized, reject
	// everything" too; callers that need the conservative-unknown-model
	// behavior check Known(), not MaxRegisterNumber.
	known bool

	caps   map[Capability]bool
	counts map[Countable]uint32
}

// Known reports whether this Model came from the builtin table. False
// for the zero-valued Model For returns for an unrecognized device ID.
func (m Model) Known() bool {
	return m.known
}

// IsSupported reports whether this device model has the given capability.
// An unrecognized Capability is treated as unsupported, not an error:
// callers use this purely to gate optional behavior.
func (m Model) IsSupported(c Capability) bool {
	return m.caps[c]
}

// GetNumSupported returns the count for a Countable capability, or 0 if
// this model doesn't have any of it.
func (m Model) GetNumSupported(c Countable) uint32 {
	return m.counts[c]
}

func newModel(id ID, maxReg uint32, caps []Capability, counts map[Countable]uint32) Model {
	m := Model{ID: id, MaxRegisterNumber: maxReg, known: true, caps: make(map[Capability]bool, len(caps)), counts: counts}
	for _, c := range caps {
		m.caps[c] = true
	}
	if m.counts == nil {
		m.counts = map[Countable]uint32{}
	}
	return m
}

// Representative device IDs. Real hardware has many more; these three
// stand in for the "legacy SD/HD", "stacked-audio HD", and "4K/TSI UHD"
// shapes the rest of the module needs to exercise every code path
// against.
const (
	IDLegacyHD ID = 0x10000001
	IDStackedHD ID = 0x10000002
	IDUHD4K     ID = 0x10000003
)

var builtin = map[ID]Model{
	IDLegacyHD: newModel(IDLegacyHD, 4095,
		[]Capability{CapRouteROM},
		map[Countable]uint32{
			CountVideoChannels: 2,
			CountAudioSystems:  1,
			CountSDIInputs:     2,
			CountSDIOutputs:    2,
		}),
	IDStackedHD: newModel(IDStackedHD, 4095,
		[]Capability{CapRouteROM, CapStackedAudio, CapLevelB},
		map[Countable]uint32{
			CountVideoChannels: 4,
			CountAudioSystems:  4,
			CountSDIInputs:     4,
			CountSDIOutputs:    4,
		}),
	IDUHD4K: newModel(IDUHD4K, 8191,
		[]Capability{CapRouteROM, CapStackedAudio, Cap4K, CapTSI, CapSquares, CapLevelB, CapHDMIOut},
		map[Countable]uint32{
			CountVideoChannels: 8,
			CountAudioSystems:  8,
			CountSDIInputs:     8,
			CountSDIOutputs:    8,
			Count425Mux:        4,
		}),
}

// For returns the capability table for id. Unrecognized IDs return a
// zero-valued Model (no capabilities, MaxRegisterNumber 0, Known()
// false) rather than an error: callers gate hardware access to an
// unrecognized model by checking Known(), since MaxRegisterNumber 0
// alone is ambiguous with "recognized model, no ceiling configured".
func For(id ID) Model {
	if m, ok := builtin[id]; ok {
		return m
	}
	return Model{ID: id, caps: map[Capability]bool{}, counts: map[Countable]uint32{}}
}
