package ghostfs

const maxFileSize = (1 << 31) - 1 // spec §4.F: sizes are a 31-bit byte count

// ceilDiv returns ceil(n/d) for non-negative n, d > 0, with ceilDiv(0, d) == 0.
func ceilDiv(n, d int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// truncate resizes the file named by r to newSize, allocating or freeing
// cluster chain as needed. r is updated in place to reflect the new size
// and starting cluster.
func (fs *FS) truncate(r *ResolvedEntry, newSize int64) Kind {
	fs.trace("truncate")
	if newSize < 0 {
		return KindInvalid
	}
	if newSize > maxFileSize {
		return KindTooLarge
	}
	if r.IsDir() {
		return KindIsADirectory
	}
	entry, k := fs.direntryFor(*r)
	if k != KindOK {
		return k
	}

	oldSize := int64(r.Size())
	oldClusters := ceilDiv(oldSize, clusterPayloadSize)
	newClusters := ceilDiv(newSize, clusterPayloadSize)

	switch {
	case newSize > oldSize:
		var lastNr uint16
		var lastCluster *Cluster
		if oldClusters > 0 {
			var k Kind
			lastNr, lastCluster, k = fs.store.At(r.Cluster(), int(oldClusters-1))
			if k != KindOK {
				return k
			}
			if tailStart := int(oldSize % clusterPayloadSize); tailStart > 0 {
				clear(lastCluster.Payload()[tailStart:])
				fs.store.MarkDirty(lastNr)
			}
		}
		if need := newClusters - oldClusters; need > 0 {
			firstNew, k := fs.allocChain(int(need), true)
			if k != KindOK {
				return k
			}
			if oldClusters == 0 {
				entry.SetCluster(firstNew)
			} else {
				lastCluster.SetNext(firstNew)
				fs.store.MarkDirty(lastNr)
			}
		}

	case newSize < oldSize:
		if newClusters == 0 {
			if r.Cluster() != 0 {
				if k := fs.freeChain(r.Cluster()); k != KindOK {
					return k
				}
			}
			entry.SetCluster(0)
		} else {
			lastNr, lastCluster, k := fs.store.At(r.Cluster(), int(newClusters-1))
			if k != KindOK {
				return k
			}
			if next := lastCluster.Next(); next != 0 {
				if k := fs.freeChain(next); k != KindOK {
					return k
				}
				lastCluster.SetNext(0)
				fs.store.MarkDirty(lastNr)
			}
		}
	}

	entry.SetSize(uint32(newSize))
	fs.store.MarkDirty(r.ref.clusterNr)
	r.size = uint32(newSize)
	r.cluster = entry.Cluster()
	return KindOK
}

// writeFile writes buf into the file named by r starting at offset,
// extending it first if the write reaches past the current size.
func (fs *FS) writeFile(r *ResolvedEntry, buf []byte, offset int64) (int, Kind) {
	fs.trace("writeFile")
	if offset < 0 {
		return 0, KindInvalid
	}
	end := offset + int64(len(buf))
	if end < offset {
		return 0, KindOverflow
	}
	if end > int64(r.Size()) {
		if k := fs.truncate(r, end); k != KindOK {
			return 0, k
		}
	}
	if len(buf) == 0 {
		return 0, KindOK
	}

	nr, c, k := fs.store.At(r.Cluster(), int(offset/clusterPayloadSize))
	if k != KindOK {
		return 0, k
	}
	written := 0
	posInCluster := int(offset % clusterPayloadSize)
	for written < len(buf) {
		chunk := clusterPayloadSize - posInCluster
		if remain := len(buf) - written; chunk > remain {
			chunk = remain
		}
		copy(c.Payload()[posInCluster:], buf[written:written+chunk])
		fs.store.MarkDirty(nr)
		written += chunk
		posInCluster = 0
		if written < len(buf) {
			next := c.Next()
			if next == 0 {
				return written, KindCorrupt
			}
			nr = next
			c, k = fs.store.Get(nr)
			if k != KindOK {
				return written, k
			}
		}
	}
	return written, KindOK
}

// readFile reads into buf from the file named by r starting at offset,
// clamping the read to the file's current size and never following a
// zero `next` pointer.
func (fs *FS) readFile(r ResolvedEntry, buf []byte, offset int64) (int, Kind) {
	fs.trace("readFile")
	if offset < 0 {
		return 0, KindInvalid
	}
	size := int64(r.Size())
	if offset >= size {
		return 0, KindOK
	}
	n := len(buf)
	if remain := size - offset; int64(n) > remain {
		n = int(remain)
	}
	if n == 0 {
		return 0, KindOK
	}

	nr, c, k := fs.store.At(r.Cluster(), int(offset/clusterPayloadSize))
	if k != KindOK {
		return 0, k
	}
	read := 0
	posInCluster := int(offset % clusterPayloadSize)
	for read < n {
		chunk := clusterPayloadSize - posInCluster
		if remain := n - read; chunk > remain {
			chunk = remain
		}
		copy(buf[read:read+chunk], c.Payload()[posInCluster:posInCluster+chunk])
		read += chunk
		posInCluster = 0
		if read < n {
			next := c.Next()
			if next == 0 {
				return read, KindOK // never follow a zero successor
			}
			nr = next
			c, k = fs.store.Get(nr)
			if k != KindOK {
				return read, k
			}
		}
	}
	return read, KindOK
}

// rename moves oldPath to newPath. Renaming the root, or renaming onto an
// existing directory, is rejected. Per the source system this was
// distilled from, rename only ever operates on files: the type (directory)
// bit is never carried over. See DESIGN.md's Open Question resolution.
func (fs *FS) rename(oldPath, newPath string) Kind {
	fs.trace("rename")
	oldResolved, k := fs.lookup(oldPath, false)
	if k != KindOK {
		return k
	}
	if oldResolved.IsRoot() {
		return KindInvalid
	}

	if _, k := fs.lookup(newPath, false); k == KindOK {
		if k2 := fs.removeEntry(newPath, false); k2 != KindOK {
			return k2
		}
	} else if k != KindNotFound {
		return k
	}

	newResolved, k := fs.createEntry(newPath, false)
	if k != KindOK {
		return k
	}
	oldEntry, k := fs.direntryFor(oldResolved)
	if k != KindOK {
		return k
	}
	newEntry, k := fs.direntryFor(newResolved)
	if k != KindOK {
		return k
	}
	newEntry.SetSize(oldEntry.Size())
	newEntry.SetCluster(oldEntry.Cluster())
	fs.store.MarkDirty(newResolved.ref.clusterNr)
	oldEntry.Clear()
	fs.store.MarkDirty(oldResolved.ref.clusterNr)
	return KindOK
}

// direntryFor returns a mutable view of the on-disk directory entry a
// resolved (non-root) lookup result refers to.
func (fs *FS) direntryFor(r ResolvedEntry) (DirEntry, Kind) {
	if r.IsRoot() {
		return DirEntry{}, KindInvalid
	}
	c, k := fs.store.Get(r.ref.clusterNr)
	if k != KindOK {
		return DirEntry{}, k
	}
	return direntryAt(c, r.ref.slot), KindOK
}
