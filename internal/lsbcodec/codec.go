// Package lsbcodec packs and unpacks a logical byte stream into the
// least-significant bit of each sample exposed by an internal/carrier
// Carrier, most-significant-bit-first within every packed byte.
package lsbcodec

import (
	"errors"

	"github.com/mukadr/GhostFS/internal/carrier"
)

// ErrOutOfRange is returned when a read or write would extend past the
// carrier's capacity.
var ErrOutOfRange = errors.New("lsbcodec: out of range")

// Codec adapts a Carrier into a flat byte-addressable channel, satisfying
// ghostfs.Codec.
type Codec struct {
	c *carrier.Carrier
}

// New wraps c for byte-level LSB access.
func New(c *carrier.Carrier) *Codec { return &Codec{c: c} }

// Close releases the underlying carrier file.
func (cd *Codec) Close() error { return cd.c.Close() }

// Capacity returns the number of whole bytes that can be packed into the
// carrier's samples.
func (cd *Codec) Capacity() int64 {
	return cd.c.SampleCount() / 8
}

// ReadAt unpacks len(buf) bytes starting at byte offset, one sample's LSB
// per bit, most-significant-bit first.
func (cd *Codec) ReadAt(buf []byte, offset int64) error {
	if offset < 0 || offset+int64(len(buf)) > cd.Capacity() {
		return ErrOutOfRange
	}
	samples := make([]byte, len(buf)*8)
	if err := cd.c.ReadSamples(samples, offset*8); err != nil {
		return err
	}
	for i := range buf {
		var b byte
		for bit := 0; bit < 8; bit++ {
			b <<= 1
			b |= samples[i*8+bit] & 1
		}
		buf[i] = b
	}
	return nil
}

// WriteAt packs len(buf) bytes starting at byte offset into the carrier's
// samples, masking each sample's LSB to the corresponding source bit,
// most-significant-bit first.
func (cd *Codec) WriteAt(buf []byte, offset int64) error {
	if offset < 0 || offset+int64(len(buf)) > cd.Capacity() {
		return ErrOutOfRange
	}
	samples := make([]byte, len(buf)*8)
	if err := cd.c.ReadSamples(samples, offset*8); err != nil {
		return err
	}
	for i, b := range buf {
		for bit := 0; bit < 8; bit++ {
			shift := 7 - bit
			samples[i*8+bit] = (samples[i*8+bit] &^ 1) | ((b >> shift) & 1)
		}
	}
	return cd.c.WriteSamples(samples, offset*8)
}
