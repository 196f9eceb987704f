package ghostfs

// allocChain scans clusters [1, clusterCount) for the first count free
// (used=0) clusters, links them into a chain in scan order, and returns the
// index of the first one. When zeroPayload is true, each claimed cluster's
// payload is cleared before being linked in.
//
// If fewer than count free clusters are found, every cluster claimed during
// the scan is rolled back (used=0, free count restored, marked dirty) and
// KindNoSpace is returned.
func (fs *FS) allocChain(count int, zeroPayload bool) (uint16, Kind) {
	if count <= 0 {
		return 0, KindInvalid
	}
	claimed := make([]uint16, 0, count)
	var prevNr uint16
	var prev *Cluster
	for nr := uint16(1); nr < fs.store.clusterCount && len(claimed) < count; nr++ {
		c, k := fs.store.Get(nr)
		if k != KindOK {
			fs.rollbackClaimed(claimed)
			return 0, k
		}
		if c.Used() {
			continue
		}
		c.SetUsed(true)
		if zeroPayload {
			c.zeroPayload()
		}
		if prev != nil {
			prev.SetNext(nr)
			fs.store.MarkDirty(prevNr)
		}
		c.SetNext(0)
		fs.store.MarkDirty(nr)
		fs.freeClusters--
		claimed = append(claimed, nr)
		prevNr, prev = nr, c
	}
	if len(claimed) < count {
		fs.rollbackClaimed(claimed)
		return 0, KindNoSpace
	}
	return claimed[0], KindOK
}

// rollbackClaimed releases clusters claimed by an aborted allocChain call.
func (fs *FS) rollbackClaimed(claimed []uint16) {
	for _, nr := range claimed {
		c, k := fs.store.Get(nr)
		if k != KindOK {
			continue // nothing more we can do; cluster cache itself is broken.
		}
		c.SetUsed(false)
		c.SetNext(0)
		fs.store.MarkDirty(nr)
		fs.freeClusters++
	}
}

// freeChain walks the chain starting at first, marking every cluster free.
// It does not touch next pointers, which are overwritten on re-allocation.
func (fs *FS) freeChain(first uint16) Kind {
	nr := first
	for nr != 0 {
		c, k := fs.store.Get(nr)
		if k != KindOK {
			return k
		}
		next := c.Next()
		c.SetUsed(false)
		fs.store.MarkDirty(nr)
		fs.freeClusters++
		nr = next
	}
	return KindOK
}
