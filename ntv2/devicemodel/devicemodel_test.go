package devicemodel

import "testing"

func TestForKnownModel(t *testing.T) {
	m := For(IDUHD4K)
	if !m.IsSupported(CapTSI) || !m.IsSupported(Cap4K) {
		t.Fatalf("IDUHD4K missing expected capabilities: %+v", m)
	}
	if got := m.GetNumSupported(CountVideoChannels); got != 8 {
		t.Errorf("CountVideoChannels = %d; want 8", got)
	}
	if got := m.GetNumSupported(Count425Mux); got != 4 {
		t.Errorf("Count425Mux = %d; want 4", got)
	}
}

func TestForUnknownModelIsConservative(t *testing.T) {
	m := For(ID(0xDEADBEEF))
	if m.IsSupported(CapRouteROM) {
		t.Fatal("unknown model should report no capabilities")
	}
	if m.MaxRegisterNumber != 0 {
		t.Errorf("unknown model MaxRegisterNumber = %d; want 0", m.MaxRegisterNumber)
	}
	if m.Known() {
		t.Fatal("unknown model should report Known() == false")
	}
}

func TestForKnownModelReportsKnown(t *testing.T) {
	if !For(IDLegacyHD).Known() {
		t.Fatal("IDLegacyHD should report Known() == true")
	}
}

func TestLegacyHasNoStackedAudio(t *testing.T) {
	m := For(IDLegacyHD)
	if m.IsSupported(CapStackedAudio) {
		t.Fatal("legacy device should not report stacked audio")
	}
	if got := m.GetNumSupported(CountAudioSystems); got != 1 {
		t.Errorf("CountAudioSystems = %d; want 1", got)
	}
}
