// Package carrier locates the payload-sample byte ranges within a media
// file — the bytes internal/lsbcodec packs filesystem data's bits into —
// without otherwise interpreting the file's content.
package carrier

import (
	"errors"
	"io"

	"github.com/spf13/afero"
)

// ErrInvalidFormat is returned when a file's magic or structure does not
// match the expected container.
var ErrInvalidFormat = errors.New("carrier: invalid format")

// Extent is a contiguous byte range within the backing file that holds
// payload samples, one LSB-carrying sample per byte.
type Extent struct {
	Offset int64
	Length int64
}

// Carrier is an open media file plus the ordered list of byte extents
// that carry payload samples. WAV carriers have exactly one extent (the
// data sub-chunk); BMP carriers have one extent per pixel row, excluding
// each row's 4-byte alignment padding.
type Carrier struct {
	file     afero.File
	segments []Extent
	total    int64
}

func newCarrier(file afero.File, segments []Extent) *Carrier {
	var total int64
	for _, s := range segments {
		total += s.Length
	}
	return &Carrier{file: file, segments: segments, total: total}
}

// SampleCount returns the number of LSB-carrying samples available.
func (c *Carrier) SampleCount() int64 { return c.total }

// locate finds the segment holding logical sample idx and the file offset
// it corresponds to, plus how many further bytes may be read contiguously
// out of that segment before crossing into the next one.
func (c *Carrier) locate(idx int64) (fileOff int64, runLen int64, ok bool) {
	for _, s := range c.segments {
		if idx < s.Length {
			return s.Offset + idx, s.Length - idx, true
		}
		idx -= s.Length
	}
	return 0, 0, false
}

// ReadSamples reads len(buf) raw sample bytes starting at logical sample
// index idx, crossing segment boundaries (BMP row padding) transparently.
func (c *Carrier) ReadSamples(buf []byte, idx int64) error {
	if idx < 0 || idx+int64(len(buf)) > c.total {
		return io.ErrUnexpectedEOF
	}
	for done := 0; done < len(buf); {
		fileOff, runLen, ok := c.locate(idx + int64(done))
		if !ok {
			return io.ErrUnexpectedEOF
		}
		n := int64(len(buf) - done)
		if n > runLen {
			n = runLen
		}
		if _, err := c.file.ReadAt(buf[done:done+int(n)], fileOff); err != nil {
			return err
		}
		done += int(n)
	}
	return nil
}

// WriteSamples writes len(buf) raw sample bytes starting at logical sample
// index idx, crossing segment boundaries transparently.
func (c *Carrier) WriteSamples(buf []byte, idx int64) error {
	if idx < 0 || idx+int64(len(buf)) > c.total {
		return io.ErrUnexpectedEOF
	}
	for done := 0; done < len(buf); {
		fileOff, runLen, ok := c.locate(idx + int64(done))
		if !ok {
			return io.ErrUnexpectedEOF
		}
		n := int64(len(buf) - done)
		if n > runLen {
			n = runLen
		}
		if _, err := c.file.WriteAt(buf[done:done+int(n)], fileOff); err != nil {
			return err
		}
		done += int(n)
	}
	return nil
}

// Close releases the underlying file handle.
func (c *Carrier) Close() error { return c.file.Close() }
