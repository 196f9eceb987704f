package ghostfs

// clusterCacheEntry is a lazily-populated slot in the cluster cache: the
// decoded cluster plus an in-memory-only dirty flag. Keeping dirty here
// rather than inside the cluster's on-disk trailer avoids the fragility of
// sharing a disk byte with in-memory bookkeeping.
type clusterCacheEntry struct {
	cluster *Cluster
	dirty   bool
}

// clusterStore is the cluster-granularity cache over a Codec: component C.
// Entries, once loaded, stay cached until Unmount; there is no eviction.
type clusterStore struct {
	codec        Codec
	clusterCount uint16
	cache        []clusterCacheEntry // len == clusterCount
}

func newClusterStore(codec Codec, clusterCount uint16) *clusterStore {
	return &clusterStore{
		codec:        codec,
		clusterCount: clusterCount,
		cache:        make([]clusterCacheEntry, clusterCount),
	}
}

// Get returns the cached cluster nr, loading it from the codec on first
// access.
func (s *clusterStore) Get(nr uint16) (*Cluster, Kind) {
	if nr >= s.clusterCount {
		return nil, KindOutOfRange
	}
	entry := &s.cache[nr]
	if entry.cluster != nil {
		return entry.cluster, KindOK
	}
	var buf [ClusterSize]byte
	off := int64(superblockSize) + int64(nr)*ClusterSize
	if err := s.codec.ReadAt(buf[:], off); err != nil {
		return nil, KindIO
	}
	entry.cluster = loadCluster(buf[:])
	entry.dirty = false
	return entry.cluster, KindOK
}

// GetNext returns get(c.Next()); fails with KindCorrupt if c has no
// successor.
func (s *clusterStore) GetNext(c *Cluster) (*Cluster, Kind) {
	next := c.Next()
	if next == 0 {
		return nil, KindCorrupt
	}
	return s.Get(next)
}

// At walks index+1 steps through the chain starting at startNr, returning
// the cluster number and cluster reached. It fails with KindCorrupt if the
// chain terminates (next == 0) before reaching index.
func (s *clusterStore) At(startNr uint16, index int) (uint16, *Cluster, Kind) {
	nr := startNr
	c, k := s.Get(nr)
	if k != KindOK {
		return 0, nil, k
	}
	for i := 0; i < index; i++ {
		next := c.Next()
		if next == 0 {
			return 0, nil, KindCorrupt
		}
		nr = next
		c, k = s.Get(nr)
		if k != KindOK {
			return 0, nil, k
		}
	}
	return nr, c, KindOK
}

// MarkDirty flags cluster nr for write-back at the next sync.
func (s *clusterStore) MarkDirty(nr uint16) {
	s.cache[nr].dirty = true
}

// Write persists cluster nr immediately and clears its dirty flag,
// regardless of whether it was set.
func (s *clusterStore) Write(c *Cluster, nr uint16) Kind {
	off := int64(superblockSize) + int64(nr)*ClusterSize
	if err := s.codec.WriteAt(c.bytes(), off); err != nil {
		return KindIO
	}
	s.cache[nr].dirty = false
	return KindOK
}

// syncDirty writes back every cached cluster still marked dirty, clearing
// their flags. Cluster 0 is the caller's responsibility (the superblock
// pins its MD5 to it) and is excluded here.
func (s *clusterStore) syncDirty() Kind {
	for nr := uint16(1); nr < s.clusterCount; nr++ {
		entry := &s.cache[nr]
		if entry.cluster == nil || !entry.dirty {
			continue
		}
		if k := s.Write(entry.cluster, nr); k != KindOK {
			return k
		}
	}
	return KindOK
}
