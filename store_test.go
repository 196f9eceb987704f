package ghostfs

import "testing"

func newTestStore(t *testing.T, clusterCount uint16) *clusterStore {
	codec := newMemCodec(superblockSize + int64(clusterCount)*ClusterSize)
	return newClusterStore(codec, clusterCount)
}

func TestClusterStoreGetCachesAcrossCalls(t *testing.T) {
	s := newTestStore(t, 4)
	c1, k := s.Get(1)
	if k != KindOK {
		t.Fatalf("Get: %v", k)
	}
	c1.SetNext(99)
	c2, k := s.Get(1)
	if k != KindOK {
		t.Fatalf("Get (second): %v", k)
	}
	if c1 != c2 {
		t.Fatal("Get should return the same cached *Cluster on repeated access")
	}
	if c2.Next() != 99 {
		t.Fatal("mutation through the first handle should be visible through the second")
	}
}

func TestClusterStoreOutOfRange(t *testing.T) {
	s := newTestStore(t, 4)
	if _, k := s.Get(4); k != KindOutOfRange {
		t.Fatalf("Get(4) = %v, want KindOutOfRange", k)
	}
}

func TestClusterStoreAtWalksChain(t *testing.T) {
	s := newTestStore(t, 4)
	c1, _ := s.Get(1)
	c1.SetNext(2)
	c2, _ := s.Get(2)
	c2.SetNext(3)

	nr, c, k := s.At(1, 2)
	if k != KindOK {
		t.Fatalf("At: %v", k)
	}
	if nr != 3 {
		t.Fatalf("At returned cluster %d, want 3", nr)
	}
	if c.Next() != 0 {
		t.Fatal("terminal cluster should have next == 0")
	}
}

func TestClusterStoreAtStopsAtChainEnd(t *testing.T) {
	s := newTestStore(t, 4)
	if _, _, k := s.At(1, 5); k != KindCorrupt {
		t.Fatalf("At past chain end = %v, want KindCorrupt", k)
	}
}

func TestClusterStoreSyncDirtySkipsClusterZero(t *testing.T) {
	s := newTestStore(t, 3)
	c0, _ := s.Get(0)
	c0.SetNext(111)
	s.MarkDirty(0)
	c1, _ := s.Get(1)
	c1.SetNext(222)
	s.MarkDirty(1)

	if k := s.syncDirty(); k != KindOK {
		t.Fatalf("syncDirty: %v", k)
	}

	var buf [ClusterSize]byte
	if err := s.codec.ReadAt(buf[:], superblockSize); err != nil {
		t.Fatal(err)
	}
	if loadCluster(buf[:]).Next() != 0 {
		t.Fatal("cluster 0 should not be persisted by syncDirty")
	}
	if err := s.codec.ReadAt(buf[:], superblockSize+ClusterSize); err != nil {
		t.Fatal(err)
	}
	if loadCluster(buf[:]).Next() != 222 {
		t.Fatal("cluster 1 should have been persisted by syncDirty")
	}
}
