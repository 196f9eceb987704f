package lsbcodec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"

	"github.com/mukadr/GhostFS/internal/carrier"
)

func newTestCodec(t *testing.T, dataBytes int) *Codec {
	t.Helper()
	fmtPayload := make([]byte, 16)
	dataPayload := make([]byte, dataBytes)
	buf := make([]byte, 12+8+len(fmtPayload)+8+len(dataPayload))
	copy(buf[0:], "RIFF")
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], uint32(len(fmtPayload)))
	dataOff := 12 + 8 + len(fmtPayload)
	copy(buf[dataOff:], "data")
	binary.LittleEndian.PutUint32(buf[dataOff+4:], uint32(len(dataPayload)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(buf)-8))

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/t.wav", buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err := carrier.OpenWAV(fs, "/t.wav")
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	return New(c)
}

func TestCapacityIsSamplesDividedByEight(t *testing.T) {
	cd := newTestCodec(t, 16)
	if cd.Capacity() != 2 {
		t.Fatalf("Capacity = %d, want 2", cd.Capacity())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	cd := newTestCodec(t, 800) // 100 usable bytes
	want := make([]byte, 100)
	for i := range want {
		want[i] = byte(i * 7)
	}
	if err := cd.WriteAt(want, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, 100)
	if err := cd.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("round-tripped bytes do not match what was written")
	}
}

func TestWriteOnlyTouchesLSB(t *testing.T) {
	cd := newTestCodec(t, 16) // 2 usable bytes, 16 samples
	before := make([]byte, 16)
	if err := cd.c.ReadSamples(before, 0); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	for i := range before {
		before[i] = 0xAA // every sample starts with a set, non-LSB-only pattern
	}
	if err := cd.c.WriteSamples(before, 0); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}

	if err := cd.WriteAt([]byte{0xFF, 0x00}, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	after := make([]byte, 16)
	if err := cd.c.ReadSamples(after, 0); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	for i, b := range after {
		if b&^1 != 0xAA&^1 {
			t.Fatalf("sample %d upper bits changed: got %#x, want upper bits of %#x preserved", i, b, 0xAA)
		}
	}
}

func TestPackingIsMostSignificantBitFirst(t *testing.T) {
	cd := newTestCodec(t, 8) // 1 usable byte, 8 samples
	if err := cd.WriteAt([]byte{0x80}, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	samples := make([]byte, 8)
	if err := cd.c.ReadSamples(samples, 0); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if samples[0]&1 != 1 {
		t.Fatalf("sample 0 LSB = %d, want 1 (0x80's top bit packed first)", samples[0]&1)
	}
	for i := 1; i < 8; i++ {
		if samples[i]&1 != 0 {
			t.Fatalf("sample %d LSB = %d, want 0", i, samples[i]&1)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	cd := newTestCodec(t, 8) // 1 usable byte
	if err := cd.ReadAt(make([]byte, 2), 0); err != ErrOutOfRange {
		t.Fatalf("ReadAt out of range = %v, want ErrOutOfRange", err)
	}
	if err := cd.WriteAt(make([]byte, 1), 5); err != ErrOutOfRange {
		t.Fatalf("WriteAt out of range = %v, want ErrOutOfRange", err)
	}
}
