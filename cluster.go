package ghostfs

import "encoding/binary"

const (
	// ClusterSize is the fixed size in bytes of one allocation unit.
	ClusterSize = 4096
	// clusterPayloadSize is the number of usable bytes before the trailer.
	clusterPayloadSize = 4092
	clusterTrailerSize = ClusterSize - clusterPayloadSize

	clusterTrailerNextOff = clusterPayloadSize     // 2 bytes, u16
	clusterTrailerUsedOff = clusterPayloadSize + 2  // 1 byte
	clusterTrailerRsvdOff = clusterPayloadSize + 3  // 1 byte, always zero on disk

	// rootClusterNr is the reserved cluster index for the root directory;
	// it doubles as the unambiguous chain terminator for `next`.
	rootClusterNr uint16 = 0

	// dirEntrySize is the packed size of one directory entry.
	dirEntrySize = 62
	// entriesPerCluster is the number of 62-byte slots that fit in the
	// 4092-byte payload (4092 / 62 == 66 exactly).
	entriesPerCluster = clusterPayloadSize / dirEntrySize
	// usableEntriesPerCluster: the directory iterator only ever visits
	// entries 0..64 of a cluster (65 of the 66 slots) before following the
	// chain. Entry 65 is allocated on disk but structurally unreachable.
	// See DESIGN.md for why this is kept rather than "fixed".
	usableEntriesPerCluster = entriesPerCluster - 1
)

// Cluster is one fixed 4096-byte allocation unit: 4092 bytes of payload
// (file bytes, or directory entries) followed by a 4-byte trailer holding
// the chain successor and the used flag. The trailer's reserved byte is
// never given meaning in memory; it is always written and read as zero.
type Cluster struct {
	raw [ClusterSize]byte
}

// Payload returns the mutable 4092-byte data region of the cluster.
func (c *Cluster) Payload() []byte {
	return c.raw[:clusterPayloadSize]
}

// Next returns the chain successor cluster index, or 0 for end-of-chain.
func (c *Cluster) Next() uint16 {
	return binary.LittleEndian.Uint16(c.raw[clusterTrailerNextOff:])
}

// SetNext sets the chain successor cluster index.
func (c *Cluster) SetNext(nr uint16) {
	binary.LittleEndian.PutUint16(c.raw[clusterTrailerNextOff:], nr)
}

// Used reports whether the cluster is currently part of a chain.
func (c *Cluster) Used() bool {
	return c.raw[clusterTrailerUsedOff] != 0
}

// SetUsed marks the cluster as allocated or free.
func (c *Cluster) SetUsed(used bool) {
	if used {
		c.raw[clusterTrailerUsedOff] = 1
	} else {
		c.raw[clusterTrailerUsedOff] = 0
	}
}

// zeroPayload clears the 4092-byte payload region, leaving the trailer
// untouched.
func (c *Cluster) zeroPayload() {
	clear(c.Payload())
}

// bytes returns the full 4096-byte on-disk representation of the cluster,
// with the reserved trailer byte forced to zero.
func (c *Cluster) bytes() []byte {
	c.raw[clusterTrailerRsvdOff] = 0
	return c.raw[:]
}

// loadCluster decodes a freshly read 4096-byte buffer into a Cluster.
func loadCluster(buf []byte) *Cluster {
	c := &Cluster{}
	copy(c.raw[:], buf)
	c.raw[clusterTrailerRsvdOff] = 0
	return c
}

// entryOffset returns the byte offset of entry idx within a cluster's
// payload. idx must be in [0, entriesPerCluster).
func entryOffset(idx int) int {
	return idx * dirEntrySize
}
