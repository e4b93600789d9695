// Package router is the Signal Router: computes and applies crosspoint
// connections against a device's register-encoded routing fabric,
// consulting the route ROM to reject illegal connections before any
// hardware write happens. It depends only on ntv2/gateway.Gateway,
// ntv2/regs' location table, and ntv2/devicemodel's capability query —
// the same "narrow interface below, capability table above" shape a
// memory-mapped bus gives its attached peripherals.
package router

import (
	"errors"

	"github.com/ntv2go/ntv2"
	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/gateway"
	"github.com/ntv2go/ntv2/internal/bit"
	"github.com/ntv2go/ntv2/regs"
	"github.com/ntv2go/ntv2/xpt"
)

const selectorMask = 0xFF

// bitsPerROMRegister is the width of each of the 4 consecutive route-ROM
// registers per input crosspoint.
const bitsPerROMRegister = 32

// Router applies and inspects one device's crosspoint routing table.
type Router struct {
	gw    gateway.Gateway
	model devicemodel.Model
}

// New builds a Router over gw for a device of the given capability model.
func New(gw gateway.Gateway, model devicemodel.Model) *Router {
	return &Router{gw: gw, model: model}
}

func (r *Router) locationOf(input xpt.InputXpt) (regs.Location, error) {
	loc, ok := regs.CrosspointLocation(input)
	if !ok {
		return regs.Location{}, ntv2.ErrUnsupportedOnDevice
	}
	return loc, nil
}

// Connect writes output into input's selector nibble. If validate and the
// device exposes a route ROM, the ROM is consulted first: a pair the ROM
// doesn't list fails with ErrIllegalRoute without touching hardware.
// Connecting to xpt.XptBlack is always legal and equivalent to Disconnect.
func (r *Router) Connect(input xpt.InputXpt, output xpt.OutputXpt, validate bool) error {
	return r.connect("Router.Connect", input, output, validate)
}

// Disconnect writes XptBlack into input's selector nibble.
func (r *Router) Disconnect(input xpt.InputXpt) error {
	return r.connect("Router.Disconnect", input, xpt.XptBlack, false)
}

func (r *Router) connect(op string, input xpt.InputXpt, output xpt.OutputXpt, validate bool) error {
	loc, err := r.locationOf(input)
	if err != nil {
		return ntv2.WrapOp(op, err)
	}

	if validate && output != xpt.XptBlack && r.model.IsSupported(devicemodel.CapRouteROM) {
		can, err := r.CanConnect(input, output)
		if err != nil {
			return ntv2.WrapOp(op, err)
		}
		if !can {
			return ntv2.WrapOp(op, ntv2.ErrIllegalRoute)
		}
	}

	shift := loc.Nibble * 8
	if err := r.gw.WriteRegister(loc.Reg, uint32(output), selectorMask<<shift, shift); err != nil {
		return ntv2.WrapOp(op, err)
	}
	return nil
}

// GetConnectedOutput returns input's current upstream source, XptBlack if
// unconnected.
func (r *Router) GetConnectedOutput(input xpt.InputXpt) (xpt.OutputXpt, error) {
	const op = "Router.GetConnectedOutput"
	loc, err := r.locationOf(input)
	if err != nil {
		return xpt.XptBlack, ntv2.WrapOp(op, err)
	}
	v, err := r.gw.ReadRegister(loc.Reg, selectorMask<<(loc.Nibble*8), loc.Nibble*8)
	if err != nil {
		return xpt.XptBlack, ntv2.WrapOp(op, err)
	}
	return xpt.OutputXpt(v), nil
}

// GetConnectedInputs scans every named input crosspoint and returns those
// whose current source equals output. Linear in the input count.
func (r *Router) GetConnectedInputs(output xpt.OutputXpt) ([]xpt.InputXpt, error) {
	var matches []xpt.InputXpt
	for _, in := range xpt.AllInputs() {
		got, err := r.GetConnectedOutput(in)
		if err != nil {
			if errors.Is(err, ntv2.ErrUnsupportedOnDevice) {
				continue
			}
			return nil, err
		}
		if got == output {
			matches = append(matches, in)
		}
	}
	return matches, nil
}

// CanConnect reads the four ROM registers for input and tests membership
// of output. On a device with no route-ROM capability this reports false
// (callers can't validate but Connect will still skip pre-checking).
func (r *Router) CanConnect(input xpt.InputXpt, output xpt.OutputXpt) (bool, error) {
	if output == xpt.XptBlack {
		return true, nil
	}
	if !r.model.IsSupported(devicemodel.CapRouteROM) {
		return false, nil
	}
	bitPos, ok := regs.RouteROMBit(output)
	if !ok {
		return false, nil
	}
	romRegs := regs.RouteROMRegisters(input)
	regIdx := bitPos / bitsPerROMRegister
	bitInReg := bitPos % bitsPerROMRegister

	v, err := r.gw.ReadRegister(romRegs[regIdx], 0xFFFFFFFF, 0)
	if err != nil {
		return false, ntv2.WrapOp("Router.CanConnect", err)
	}
	return bit.IsSet(bitInReg, v), nil
}

// ApplySignalRoute issues Connect for every pair in connections. If
// replace, ClearRouting runs first. Returns the number of failed Connect
// calls; a non-zero count doesn't abort the batch.
func (r *Router) ApplySignalRoute(connections map[xpt.InputXpt]xpt.OutputXpt, replace bool) (int, error) {
	if replace {
		if err := r.ClearRouting(); err != nil {
			return 0, ntv2.WrapOp("Router.ApplySignalRoute", err)
		}
	}
	failures := 0
	for input, output := range connections {
		if err := r.Connect(input, output, true); err != nil {
			failures++
		}
	}
	return failures, nil
}

// ClearRouting writes 0 (XptBlack) to every routing-class register.
func (r *Router) ClearRouting() error {
	for _, num := range regs.GetRegistersForClass(regs.ClassRouting) {
		if err := r.gw.WriteRegister(num, 0, 0xFFFFFFFF, 0); err != nil {
			return ntv2.WrapOp("Router.ClearRouting", err)
		}
	}
	return nil
}

// GetConnections snapshots every currently-connected (non-XptBlack) input
// crosspoint.
func (r *Router) GetConnections() (map[xpt.InputXpt]xpt.OutputXpt, error) {
	out := make(map[xpt.InputXpt]xpt.OutputXpt)
	for _, in := range xpt.AllInputs() {
		got, err := r.GetConnectedOutput(in)
		if err != nil {
			if errors.Is(err, ntv2.ErrUnsupportedOnDevice) {
				continue
			}
			return nil, err
		}
		if got != xpt.XptBlack {
			out[in] = got
		}
	}
	return out, nil
}

// CanonicalTSIRoute is the canonical 4K-TSI YCbCr route table: four
// independent 425Mux widgets, each fed by its own SDI
// input and each feeding its own framebuffer, wiring a quad-link TSI 4K
// raster across channels 0..3.
func CanonicalTSIRoute() map[xpt.InputXpt]xpt.OutputXpt {
	return map[xpt.InputXpt]xpt.OutputXpt{
		xpt.Input425Mux1AB: xpt.OutputSDIIn1,
		xpt.Input425Mux2AB: xpt.OutputSDIIn2,
		xpt.Input425Mux3AB: xpt.OutputSDIIn3,
		xpt.Input425Mux4AB: xpt.OutputSDIIn4,

		xpt.InputFrameBuffer1: xpt.Output425Mux1AYUV,
		xpt.InputFrameBuffer2: xpt.Output425Mux2AYUV,
		xpt.InputFrameBuffer3: xpt.Output425Mux3AYUV,
		xpt.InputFrameBuffer4: xpt.Output425Mux4AYUV,
	}
}
