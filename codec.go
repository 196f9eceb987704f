package ghostfs

// Codec is the byte-addressable channel a filesystem is built on top of,
// decoupling the cluster store from whatever carrier format backs it —
// the same role BlockDevice plays for a sector-based filesystem.
// Implementations live in internal/lsbcodec.
type Codec interface {
	// Capacity returns the number of logical bytes addressable through
	// ReadAt/WriteAt.
	Capacity() int64
	// ReadAt fills buf from the logical byte stream starting at offset.
	ReadAt(buf []byte, offset int64) error
	// WriteAt writes buf into the logical byte stream starting at offset.
	WriteAt(buf []byte, offset int64) error
}

// superblockSize is the number of logical bytes the superblock occupies
// before cluster 0 begins: 16 bytes of MD5 digest plus a 2-byte cluster
// count.
const superblockSize = 16 + 2
