package ghostfs

import "encoding/binary"

const (
	directryNameOff    = 0
	directryNameLen    = 56
	directrySizeOff    = directryNameOff + directryNameLen // 56
	directryClusterOff = directrySizeOff + 4 // 60, 2 bytes, ends at dirEntrySize (62)

	maxNameLen = directryNameLen - 1 // 55, room for the terminating NUL

	dirFlagIsDir uint32 = 1 << 31
	dirSizeMask  uint32 = dirFlagIsDir - 1
)

// DirEntry is a view over one 62-byte packed directory entry: a NUL-padded
// filename, a size-and-flag word (low 31 bits size, bit 31 is-directory),
// and the entry's starting cluster.
type DirEntry struct {
	raw []byte // dirEntrySize bytes, backed by a cluster's payload
}

func direntryAt(c *Cluster, idx int) DirEntry {
	off := entryOffset(idx)
	return DirEntry{raw: c.Payload()[off : off+dirEntrySize : off+dirEntrySize]}
}

// Empty reports whether the slot holds no entry (first filename byte is NUL).
func (e DirEntry) Empty() bool {
	return e.raw[directryNameOff] == 0
}

// Name returns the filename, stopping at the first NUL byte.
func (e DirEntry) Name() string {
	raw := e.raw[directryNameOff : directryNameOff+directryNameLen]
	n := indexNUL(raw)
	return string(raw[:n])
}

// SetName writes name, NUL-padding the remainder of the field. The caller
// must have validated len(name) <= maxNameLen.
func (e DirEntry) SetName(name string) {
	field := e.raw[directryNameOff : directryNameOff+directryNameLen]
	clear(field)
	copy(field, name)
}

// Clear zeroes the filename byte, marking the slot empty. The rest of the
// entry is left untouched, matching the on-disk layout's "empty slot iff
// first filename byte is NUL" rule.
func (e DirEntry) Clear() {
	e.raw[directryNameOff] = 0
}

// Size returns the byte length of the file or directory this entry names.
func (e DirEntry) Size() uint32 {
	return binary.LittleEndian.Uint32(e.raw[directrySizeOff:]) & dirSizeMask
}

// IsDir reports whether this entry names a directory.
func (e DirEntry) IsDir() bool {
	return binary.LittleEndian.Uint32(e.raw[directrySizeOff:])&dirFlagIsDir != 0
}

// SetSize sets the entry's size field, preserving the is-directory flag.
func (e DirEntry) SetSize(size uint32) {
	word := binary.LittleEndian.Uint32(e.raw[directrySizeOff:]) & dirFlagIsDir
	binary.LittleEndian.PutUint32(e.raw[directrySizeOff:], word|(size&dirSizeMask))
}

// SetIsDir sets or clears the is-directory flag, preserving the size.
func (e DirEntry) SetIsDir(isDir bool) {
	word := binary.LittleEndian.Uint32(e.raw[directrySizeOff:]) & dirSizeMask
	if isDir {
		word |= dirFlagIsDir
	}
	binary.LittleEndian.PutUint32(e.raw[directrySizeOff:], word)
}

// Cluster returns the entry's starting cluster index, or 0 for an empty file.
func (e DirEntry) Cluster() uint16 {
	return binary.LittleEndian.Uint16(e.raw[directryClusterOff:])
}

// SetCluster sets the entry's starting cluster index.
func (e DirEntry) SetCluster(nr uint16) {
	binary.LittleEndian.PutUint16(e.raw[directryClusterOff:], nr)
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
