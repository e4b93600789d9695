package router

import (
	"github.com/ntv2go/ntv2/gateway"
	"github.com/ntv2go/ntv2/regs"
	"github.com/ntv2go/ntv2/xpt"
	"gopkg.in/yaml.v3"
)

// romFixture is the on-disk shape of a route-ROM test fixture: input
// crosspoint ID -> list of legal output crosspoint IDs. IDs are the raw
// numeric values of ntv2/xpt's InputXpt/OutputXpt constants, matching how
// the real ROM is just a bitmap keyed by those same IDs.
type romFixture struct {
	Routes map[int][]int `yaml:"routes"`
}

// ParseROMFixture decodes a YAML route-ROM fixture into input -> legal
// outputs.
func ParseROMFixture(data []byte) (map[xpt.InputXpt][]xpt.OutputXpt, error) {
	var f romFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := make(map[xpt.InputXpt][]xpt.OutputXpt, len(f.Routes))
	for inID, outIDs := range f.Routes {
		outs := make([]xpt.OutputXpt, len(outIDs))
		for i, o := range outIDs {
			outs[i] = xpt.OutputXpt(o)
		}
		out[xpt.InputXpt(inID)] = outs
	}
	return out, nil
}

// ProgramROM writes a parsed fixture's legal-output bitmaps into gw's
// route-ROM registers, the way a real device's ROM is already burned in
// at manufacture; tests use this to stand up a Simulated gateway with a
// known ROM before exercising Connect/CanConnect against it.
func ProgramROM(gw gateway.Gateway, legal map[xpt.InputXpt][]xpt.OutputXpt) error {
	for input, outputs := range legal {
		romRegs := regs.RouteROMRegisters(input)
		bits := make([]uint32, 4)
		for _, output := range outputs {
			pos, ok := regs.RouteROMBit(output)
			if !ok {
				continue
			}
			regIdx := pos / bitsPerROMRegister
			bitInReg := pos % bitsPerROMRegister
			bits[regIdx] |= 1 << bitInReg
		}
		for i, v := range bits {
			if err := gw.WriteRegister(romRegs[i], v, 0xFFFFFFFF, 0); err != nil {
				return err
			}
		}
	}
	return nil
}
