package carrier

import (
	"encoding/binary"

	"github.com/spf13/afero"
)

const (
	bmpFileHeaderLen  = 14
	bmpOffBitsOff     = 10 // u32, offset into file of the pixel array
	bmpDIBSizeOff     = bmpFileHeaderLen
	bmpWidthOff       = bmpFileHeaderLen + 4  // i32
	bmpHeightOff      = bmpFileHeaderLen + 8  // i32
	bmpPlanesOff      = bmpFileHeaderLen + 12 // u16
	bmpBitCountOff    = bmpFileHeaderLen + 14 // u16
	bmpCompressionOff = bmpFileHeaderLen + 16 // u32

	bmpCompressionNone = 0 // BI_RGB
)

// OpenBMP parses an uncompressed, bottom-up BMP at path and returns a
// Carrier whose samples are its pixel-array bytes, one row-padding run
// excluded per scanline.
func OpenBMP(fs afero.Fs, path string) (*Carrier, error) {
	f, err := fs.OpenFile(path, osReadWrite, 0)
	if err != nil {
		return nil, err
	}
	var header [bmpFileHeaderLen + 40]byte // file header + BITMAPINFOHEADER
	if _, err := f.ReadAt(header[:], 0); err != nil {
		f.Close()
		return nil, ErrInvalidFormat
	}
	if header[0] != 'B' || header[1] != 'M' {
		f.Close()
		return nil, ErrInvalidFormat
	}

	offBits := int64(binary.LittleEndian.Uint32(header[bmpOffBitsOff:]))
	dibSize := binary.LittleEndian.Uint32(header[bmpDIBSizeOff:])
	if dibSize < 40 {
		f.Close()
		return nil, ErrInvalidFormat // pre-Windows-3 DIB headers aren't supported
	}
	width := int32(binary.LittleEndian.Uint32(header[bmpWidthOff:]))
	height := int32(binary.LittleEndian.Uint32(header[bmpHeightOff:]))
	bitCount := binary.LittleEndian.Uint16(header[bmpBitCountOff:])
	compression := binary.LittleEndian.Uint32(header[bmpCompressionOff:])
	if width <= 0 || height <= 0 {
		f.Close()
		return nil, ErrInvalidFormat // negative height means top-down; it and zero height are rejected
	}
	if compression != bmpCompressionNone {
		f.Close()
		return nil, ErrInvalidFormat
	}

	rowBytes := (int64(width)*int64(bitCount) + 31) / 32 * 4
	dataBytes := (int64(width)*int64(bitCount) + 7) / 8
	if dataBytes > rowBytes {
		f.Close()
		return nil, ErrInvalidFormat
	}

	segments := make([]Extent, height)
	for row := int32(0); row < height; row++ {
		segments[row] = Extent{
			Offset: offBits + int64(row)*rowBytes,
			Length: dataBytes,
		}
	}
	return newCarrier(f, segments), nil
}
