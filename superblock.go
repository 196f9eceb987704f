package ghostfs

import (
	"crypto/md5"
	"encoding/binary"
	"os/user"
	"strconv"
	"time"
)

const headerSize = 2 // cluster_count, u16 little-endian

// Format lays a fresh filesystem over codec: a zeroed root cluster, a
// cluster_count sized to the codec's capacity, and the MD5 digest that
// pins both together. Every other cluster has its used bit cleared to
// erase stale in-band data from whatever previously occupied the carrier.
func Format(codec Codec) Kind {
	capacity := codec.Capacity()
	if capacity < superblockSize+ClusterSize {
		return KindNoSpace
	}
	clusterCount := (capacity - superblockSize) / ClusterSize
	if clusterCount > 0xFFFF {
		clusterCount = 0xFFFF
	}

	root := &Cluster{}
	for i := 0; i < entriesPerCluster; i++ {
		direntryAt(root, i).Clear()
	}
	root.SetNext(0)
	root.SetUsed(true)

	var header [headerSize]byte
	binary.LittleEndian.PutUint16(header[:], uint16(clusterCount))

	sum := md5.Sum(append(append([]byte{}, header[:]...), root.bytes()...))
	if err := codec.WriteAt(sum[:], 0); err != nil {
		return KindIO
	}
	if err := codec.WriteAt(header[:], 16); err != nil {
		return KindIO
	}
	if err := codec.WriteAt(root.bytes(), superblockSize); err != nil {
		return KindIO
	}

	for nr := int64(1); nr < clusterCount; nr++ {
		var buf [ClusterSize]byte
		off := superblockSize + nr*ClusterSize
		if err := codec.ReadAt(buf[:], off); err != nil {
			return KindIO
		}
		c := loadCluster(buf[:])
		c.SetUsed(false)
		if err := codec.WriteAt(c.bytes(), off); err != nil {
			return KindIO
		}
	}
	return KindOK
}

// Mount opens an existing filesystem on codec, verifying the superblock's
// MD5 before trusting anything else on it.
func Mount(codec Codec) (*FS, Kind) {
	var digest [16]byte
	if err := codec.ReadAt(digest[:], 0); err != nil {
		return nil, KindIO
	}
	var header [headerSize]byte
	if err := codec.ReadAt(header[:], 16); err != nil {
		return nil, KindIO
	}
	var rootBuf [ClusterSize]byte
	if err := codec.ReadAt(rootBuf[:], superblockSize); err != nil {
		return nil, KindIO
	}

	sum := md5.Sum(append(append([]byte{}, header[:]...), rootBuf[:]...))
	if sum != digest {
		return nil, KindCorrupt
	}
	clusterCount := binary.LittleEndian.Uint16(header[:])

	store := newClusterStore(codec, clusterCount)
	store.cache[0] = clusterCacheEntry{cluster: loadCluster(rootBuf[:]), dirty: false}

	fs := &FS{
		store:     store,
		mountedAt: mountTime(),
		uid:       currentUID(),
		gid:       currentGID(),
		id:        1,
	}

	var free uint32
	for nr := uint16(1); nr < clusterCount; nr++ {
		c, k := store.Get(nr)
		if k != KindOK {
			return nil, k
		}
		if !c.Used() {
			free++
		}
	}
	fs.freeClusters = free
	fs.trace("mounted")
	return fs, KindOK
}

// Sync writes cluster 0 and a refreshed superblock MD5, then flushes every
// other dirty cached cluster.
func (fs *FS) Sync() Kind {
	fs.trace("sync")
	root, k := fs.store.Get(rootClusterNr)
	if k != KindOK {
		return k
	}
	var header [headerSize]byte
	binary.LittleEndian.PutUint16(header[:], fs.store.clusterCount)

	sum := md5.Sum(append(append([]byte{}, header[:]...), root.bytes()...))
	if err := fs.store.codec.WriteAt(sum[:], 0); err != nil {
		return KindIO
	}
	if err := fs.store.codec.WriteAt(header[:], 16); err != nil {
		return KindIO
	}
	if k := fs.store.Write(root, rootClusterNr); k != KindOK {
		return k
	}
	return fs.store.syncDirty()
}

// Unmount flushes pending writes and detaches the codec. Any handle
// obtained before Unmount is invalid afterward.
func (fs *FS) Unmount() Kind {
	if k := fs.Sync(); k != KindOK {
		return k
	}
	fs.id++ // invalidate any handle still referencing this mount
	fs.store = nil
	fs.trace("unmounted")
	return KindOK
}

func mountTime() time.Time { return time.Now() }

func currentUID() uint32 {
	u, err := user.Current()
	if err != nil {
		return 0
	}
	n, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

func currentGID() uint32 {
	u, err := user.Current()
	if err != nil {
		return 0
	}
	n, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
