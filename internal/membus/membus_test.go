package membus_test

import (
	"testing"

	"github.com/dual-emu/dsgo/internal/membus"
)

func TestRotateWordAlignedIsUnchanged(t *testing.T) {
	if got := membus.RotateWord(0x12345678, 0x1000); got != 0x12345678 {
		t.Fatalf("aligned rotate = %#x, want unchanged", got)
	}
}

func TestRotateWordMisalignedByOne(t *testing.T) {
	got := membus.RotateWord(0x12345678, 0x1001)
	want := uint32(0x78123456)
	if got != want {
		t.Fatalf("rotate by 1 = %#x, want %#x", got, want)
	}
}

func TestRotateWordMisalignedByTwo(t *testing.T) {
	got := membus.RotateWord(0x12345678, 0x1002)
	want := uint32(0x56781234)
	if got != want {
		t.Fatalf("rotate by 2 = %#x, want %#x", got, want)
	}
}

func TestRotateHalfARM7OnlyRotatesOddAddress(t *testing.T) {
	if got := membus.RotateHalfARM7(0x1234, 0x1000); got != 0x1234 {
		t.Fatalf("even address = %#x, want unchanged", got)
	}
	if got := membus.RotateHalfARM7(0x1234, 0x1001); got != 0x3412 {
		t.Fatalf("odd address = %#x, want 0x3412", got)
	}
}
