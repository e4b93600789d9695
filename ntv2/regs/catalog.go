// Package regs is the static register catalog: for every register number,
// its name, access permission, diagnostic classes, and decoder. It also
// carries the canonical crosspoint-selector location table (register
// number + nibble index for every input crosspoint) that ntv2/router
// builds on.
//
// The catalog is a process-wide, lazily-initialized, read-mostly table:
// entries are registered once, on the first lookup (guarded by
// sync.Once), never mutated afterward, and every lookup is a pure function of the
// table's contents.
package regs

import (
	"sort"
	"strings"
	"sync"

	"github.com/ntv2go/ntv2/devicemodel"
)

// Num is a register number, the kernel ioctl boundary's `regNum`.
type Num uint32

// Access is a register's permission.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "RO"
	case WriteOnly:
		return "WO"
	case ReadWrite:
		return "RW"
	default:
		return "?"
	}
}

// Class groups registers for diagnostic/lookup purposes. A register may
// belong to zero or more classes.
type Class string

const (
	ClassRouting  Class = "Routing"
	ClassAudio    Class = "Audio"
	ClassAnc      Class = "Anc"
	ClassHDMI     Class = "HDMI"
	ClassTimecode Class = "Timecode"
	ClassSDIError Class = "SDIError"
	ClassVirtual  Class = "Virtual"
)

// ChannelClass returns the per-channel diagnostic class for channel n
// (0-based), e.g. ChannelClass(0) == "Channel1".
func ChannelClass(channel int) Class {
	return Class("Channel" + itoa(channel+1))
}

// DecodeFunc renders a register's raw value as a human-readable string.
// Decoders are pure functions of (value, deviceID); they never touch
// hardware, and they are not passed the register number.
type DecodeFunc func(value uint32, device devicemodel.ID) string

// Info is everything the catalog knows about one register.
type Info struct {
	Num     Num
	Name    string
	Access  Access
	Classes []Class
	Decode  DecodeFunc
}

var (
	once      sync.Once
	byNum     map[Num]Info
	byName    map[string]Num
	byClass   map[Class][]Num
)

func ensureInit() {
	once.Do(func() {
		byNum = make(map[Num]Info)
		byName = make(map[string]Num)
		byClass = make(map[Class][]Num)
		registerBuiltins()
	})
}

func register(info Info) {
	if _, exists := byNum[info.Num]; exists {
		panic("regs: duplicate registration for register " + itoa(int(info.Num)))
	}
	byNum[info.Num] = info
	byName[info.Name] = info.Num
	for _, c := range info.Classes {
		byClass[c] = append(byClass[c], info.Num)
	}
}

// Lookup returns the catalog entry for num, and whether it exists.
func Lookup(num Num) (Info, bool) {
	ensureInit()
	info, ok := byNum[num]
	return info, ok
}

// NumForName returns the register number named exactly name.
func NumForName(name string) (Num, bool) {
	ensureInit()
	n, ok := byName[name]
	return n, ok
}

// GetRegistersForClass returns every register number tagged with class,
// in ascending order.
func GetRegistersForClass(class Class) []Num {
	ensureInit()
	out := append([]Num(nil), byClass[class]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MatchMode selects how GetRegistersWithName compares substr to each
// register's name.
type MatchMode int

const (
	Exact MatchMode = iota
	Contains
	StartsWith
	EndsWith
)

// GetRegistersWithName returns every register whose name matches substr
// under mode, in ascending register-number order.
func GetRegistersWithName(substr string, mode MatchMode) []Num {
	ensureInit()
	var out []Num
	for name, num := range byName {
		var match bool
		switch mode {
		case Exact:
			match = name == substr
		case Contains:
			match = strings.Contains(name, substr)
		case StartsWith:
			match = strings.HasPrefix(name, substr)
		case EndsWith:
			match = strings.HasSuffix(name, substr)
		}
		if match {
			out = append(out, num)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
