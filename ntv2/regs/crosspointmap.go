package regs

import (
	"sync"

	"github.com/ntv2go/ntv2/xpt"
)

// FirstCrosspointRegister is the lowest-numbered register in the
// crosspoint-selector group: groups 1..35, each packing 4 x 8-bit
// output selectors.
const FirstCrosspointRegister Num = 3000

// FirstRouteROMRegister is kRegFirstValidXptROMRegister: 4 consecutive
// 32-bit registers per input crosspoint, one bit per legal
// output crosspoint.
const FirstRouteROMRegister Num = 4000

// Location is where one input crosspoint's 8-bit output selector lives:
// the 32-bit register number and which of its four byte fields (0..3)
// holds the selector.
type Location struct {
	Reg    Num
	Nibble uint
}

var (
	xptOnce     sync.Once
	xptLoc      map[xpt.InputXpt]Location
	xptLocInv   map[Location]xpt.InputXpt
	xptOutBit   map[xpt.OutputXpt]uint
	xptOutList  []xpt.OutputXpt
	xptInputIdx map[xpt.InputXpt]int
)

func ensureXptInit() {
	xptOnce.Do(func() {
		xptLoc = make(map[xpt.InputXpt]Location)
		xptLocInv = make(map[Location]xpt.InputXpt)
		xptOutBit = make(map[xpt.OutputXpt]uint)
		xptInputIdx = make(map[xpt.InputXpt]int)

		for i, in := range xpt.AllInputs() {
			loc := Location{Reg: FirstCrosspointRegister + Num(i/4), Nibble: uint(i % 4)}
			xptLoc[in] = loc
			xptLocInv[loc] = in
			xptInputIdx[in] = i
		}

		xptOutList = xpt.AllOutputs()
		for i, out := range xptOutList {
			xptOutBit[out] = uint(i)
		}
	})
}

// CrosspointLocation returns the (register, nibble) holding input's
// output selector.
func CrosspointLocation(input xpt.InputXpt) (Location, bool) {
	ensureXptInit()
	loc, ok := xptLoc[input]
	return loc, ok
}

// InputAtLocation is the inverse of CrosspointLocation.
func InputAtLocation(loc Location) (xpt.InputXpt, bool) {
	ensureXptInit()
	in, ok := xptLocInv[loc]
	return in, ok
}

// RouteROMBit returns the bit position output occupies in the 4x32-bit
// route-ROM bitmap for some input crosspoint.
func RouteROMBit(output xpt.OutputXpt) (uint, bool) {
	ensureXptInit()
	bit, ok := xptOutBit[output]
	return bit, ok
}

// RouteROMRegisters returns the 4 consecutive register numbers holding
// the route-ROM bitmap for input.
func RouteROMRegisters(input xpt.InputXpt) [4]Num {
	ensureXptInit()
	base := FirstRouteROMRegister + Num(xptInputIdx[input]*4)
	return [4]Num{base, base + 1, base + 2, base + 3}
}
