package ntv2

import (
	"testing"

	"github.com/ntv2go/ntv2/format"
)

func TestNewChannelBasics(t *testing.T) {
	c := NewChannel(0, ChannelModeCapture, format.Standard1080i, format.PixelFormat10BitYCbCr, format.VANCOff, 0, 7)
	if c.FrameCount() != 8 {
		t.Errorf("FrameCount() = %d; want 8", c.FrameCount())
	}
	if c.HasAudioSystem {
		t.Error("HasAudioSystem should default false")
	}
	if c.Mode.String() != "capture" {
		t.Errorf("Mode.String() = %q; want capture", c.Mode.String())
	}
}

func TestChannelWithAudioSystem(t *testing.T) {
	c := NewChannel(1, ChannelModeDisplay, format.Standard1080p, format.PixelFormat8BitYCbCr, format.VANCOff, 0, 3)
	c2 := c.WithAudioSystem(2)
	if c.HasAudioSystem {
		t.Error("original Channel should be unmodified")
	}
	if !c2.HasAudioSystem || c2.AudioSystem != 2 {
		t.Errorf("WithAudioSystem: HasAudioSystem=%v AudioSystem=%d; want true 2", c2.HasAudioSystem, c2.AudioSystem)
	}
}

func TestChannelFrameCountEmptyRange(t *testing.T) {
	c := NewChannel(0, ChannelModeCapture, format.Standard1080i, format.PixelFormat8BitYCbCr, format.VANCOff, 5, 3)
	if c.FrameCount() != 0 {
		t.Errorf("FrameCount() = %d; want 0 for inverted range", c.FrameCount())
	}
}

func TestChannelDescriptorMatchesFormatPackage(t *testing.T) {
	c := NewChannel(0, ChannelModeCapture, format.Standard1080i, format.PixelFormat10BitYCbCr, format.VANCOff, 0, 1)
	d, err := c.Descriptor()
	if err != nil {
		t.Fatal(err)
	}
	if d.RowBytes != 5120 {
		t.Errorf("RowBytes = %d; want 5120", d.RowBytes)
	}
	if d.FrameSize != 5529600 {
		t.Errorf("FrameSize = %d; want 5529600", d.FrameSize)
	}
}
