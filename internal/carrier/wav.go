package carrier

import (
	"encoding/binary"

	"github.com/spf13/afero"
)

const (
	riffHeaderLen  = 12 // "RIFF" + u32 size + "WAVE"
	chunkHeaderLen = 8  // 4-byte ID + u32 size
)

// OpenWAV parses the RIFF/WAVE chunk structure of the file at path and
// returns a Carrier whose samples are the bytes of its data sub-chunk.
func OpenWAV(fs afero.Fs, path string) (*Carrier, error) {
	f, err := fs.OpenFile(path, osReadWrite, 0)
	if err != nil {
		return nil, err
	}
	var riff [riffHeaderLen]byte
	if _, err := f.ReadAt(riff[:], 0); err != nil {
		f.Close()
		return nil, ErrInvalidFormat
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		f.Close()
		return nil, ErrInvalidFormat
	}

	var pos int64 = riffHeaderLen
	for {
		var chunk [chunkHeaderLen]byte
		if _, err := f.ReadAt(chunk[:], pos); err != nil {
			f.Close()
			return nil, ErrInvalidFormat
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		dataOff := pos + chunkHeaderLen
		if id == "data" {
			return newCarrier(f, []Extent{{Offset: dataOff, Length: size}}), nil
		}
		if size%2 != 0 {
			size++ // chunks are word-aligned; odd-sized chunks carry a pad byte
		}
		pos = dataOff + size
	}
}
