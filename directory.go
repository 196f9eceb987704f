package ghostfs

import "strings"

// ResolvedEntry is the result of resolving a path: either the synthetic
// root (which has no on-disk directory entry) or a concrete entry backed
// by a (cluster, slot) location.
type ResolvedEntry struct {
	ref     entryRef
	isDir   bool
	size    uint32
	cluster uint16
}

// IsDir reports whether the resolved entry names a directory.
func (r ResolvedEntry) IsDir() bool { return r.isDir }

// Size returns the resolved entry's byte length.
func (r ResolvedEntry) Size() uint32 { return r.size }

// Cluster returns the resolved entry's own starting cluster — for a
// directory, this is where its entries are stored; for a file, where its
// data begins (0 if empty).
func (r ResolvedEntry) Cluster() uint16 { return r.cluster }

// IsRoot reports whether this is the synthetic root entry.
func (r ResolvedEntry) IsRoot() bool { return r.ref.isRoot() }

func rootResolved() ResolvedEntry {
	return ResolvedEntry{ref: rootRef(), isDir: true, size: 0, cluster: rootClusterNr}
}

func resolvedFrom(w *dirWalker) ResolvedEntry {
	e := w.entry()
	return ResolvedEntry{ref: w.ref(), isDir: e.IsDir(), size: e.Size(), cluster: e.Cluster()}
}

// dirWalker holds (cluster index, slot index) together with the cached
// *Cluster for that index. The pointer is fetched through the store only
// when the walker moves to another cluster; it stays valid because the
// cluster cache never evicts an entry.
type dirWalker struct {
	fs        *FS
	clusterNr uint16
	cluster   *Cluster
	slot      int
}

func (fs *FS) newDirWalker(startCluster uint16) (*dirWalker, Kind) {
	c, k := fs.store.Get(startCluster)
	if k != KindOK {
		return nil, k
	}
	return &dirWalker{fs: fs, clusterNr: startCluster, cluster: c, slot: 0}, KindOK
}

func (w *dirWalker) entry() DirEntry { return direntryAt(w.cluster, w.slot) }

func (w *dirWalker) ref() entryRef { return entryRef{clusterNr: w.clusterNr, slot: w.slot} }

// next advances to the next slot, following the chain when the current
// cluster's usable entries (0..usableEntriesPerCluster-1) are exhausted.
// On reaching the end of the chain it fails with KindNotFound and leaves
// the walker positioned at the final entry of the terminal cluster.
func (w *dirWalker) next() Kind {
	if w.slot+1 >= usableEntriesPerCluster {
		next := w.cluster.Next()
		if next == 0 {
			return KindNotFound
		}
		c, k := w.fs.store.Get(next)
		if k != KindOK {
			return k
		}
		w.clusterNr = next
		w.cluster = c
		w.slot = 0
		return KindOK
	}
	w.slot++
	return KindOK
}

// nextUsed repeatedly advances until a used (non-empty) entry is found. On
// failure the walker is left exactly as it was on entry.
func (w *dirWalker) nextUsed() Kind {
	tmp := *w
	for {
		if k := tmp.next(); k != KindOK {
			return k
		}
		if !tmp.entry().Empty() {
			*w = tmp
			return KindOK
		}
	}
}

// splitPath splits an absolute path into its non-leading-slash components.
// splitPath("/") returns nil.
func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// finalComponent extracts and validates the last path component for
// creation: non-empty and at most maxNameLen bytes.
func finalComponent(path string) (string, Kind) {
	comps := splitPath(path)
	if len(comps) == 0 {
		return "", KindInvalid
	}
	name := comps[len(comps)-1]
	if name == "" {
		return "", KindInvalid
	}
	if len(name) > maxNameLen {
		return "", KindNameTooLong
	}
	return name, KindOK
}

// lookup resolves path against the root directory. When skipLast is true,
// resolution stops one component short, returning the directory that
// would contain the path's final component instead of the component
// itself — used by createEntry to locate a parent.
func (fs *FS) lookup(path string, skipLast bool) (ResolvedEntry, Kind) {
	if !strings.HasPrefix(path, "/") {
		return ResolvedEntry{}, KindInvalid
	}
	comps := splitPath(path)
	if path == "/" || (skipLast && len(comps) <= 1) {
		return rootResolved(), KindOK
	}

	w, k := fs.newDirWalker(rootClusterNr)
	if k != KindOK {
		return ResolvedEntry{}, k
	}
	for i, comp := range comps {
		for {
			if !w.entry().Empty() && w.entry().Name() == comp {
				break
			}
			if k := w.nextUsed(); k != KindOK {
				return ResolvedEntry{}, KindNotFound
			}
		}
		remaining := len(comps) - 1 - i
		if remaining == 0 || (skipLast && remaining == 1) {
			return resolvedFrom(w), KindOK
		}
		if !w.entry().IsDir() {
			return ResolvedEntry{}, KindNotADirectory
		}
		child, k := fs.newDirWalker(w.entry().Cluster())
		if k != KindOK {
			return ResolvedEntry{}, k
		}
		w = child
	}
	// Unreachable: comps is non-empty whenever we reach here.
	return ResolvedEntry{}, KindNotFound
}

// directoryHasName reports whether a used entry named name exists directly
// within the directory stored at startCluster.
func (fs *FS) directoryHasName(startCluster uint16, name string) (bool, Kind) {
	w, k := fs.newDirWalker(startCluster)
	if k != KindOK {
		return false, k
	}
	for {
		if !w.entry().Empty() && w.entry().Name() == name {
			return true, KindOK
		}
		if k := w.next(); k != KindOK {
			if k == KindNotFound {
				return false, KindOK
			}
			return false, k
		}
	}
}

// findEmptyEntry scans from the first entry of startCluster, following the
// chain, until an unused entry is found. If the chain ends first, it
// returns the walker positioned at the final entry of the terminal
// cluster together with KindNotFound.
func (fs *FS) findEmptyEntry(startCluster uint16) (*dirWalker, Kind) {
	w, k := fs.newDirWalker(startCluster)
	if k != KindOK {
		return nil, k
	}
	if w.entry().Empty() {
		return w, KindOK
	}
	for {
		if k := w.next(); k != KindOK {
			return w, k
		}
		if w.entry().Empty() {
			return w, KindOK
		}
	}
}

// createEntry creates a new file or directory entry at path.
func (fs *FS) createEntry(path string, isDir bool) (ResolvedEntry, Kind) {
	fs.trace("createEntry")
	parent, k := fs.lookup(path, true)
	if k != KindOK {
		return ResolvedEntry{}, k
	}
	if !parent.IsDir() {
		return ResolvedEntry{}, KindNotADirectory
	}
	name, k := finalComponent(path)
	if k != KindOK {
		return ResolvedEntry{}, k
	}
	exists, k := fs.directoryHasName(parent.Cluster(), name)
	if k != KindOK {
		return ResolvedEntry{}, k
	}
	if exists {
		return ResolvedEntry{}, KindExists
	}

	w, k := fs.findEmptyEntry(parent.Cluster())
	if k != KindOK && k != KindNotFound {
		return ResolvedEntry{}, k
	}
	var extendedNr, extendedPrevNr uint16
	extended := false
	if k == KindNotFound {
		prevNr, prevCluster := w.clusterNr, w.cluster
		newNr, k2 := fs.allocChain(1, true)
		if k2 != KindOK {
			return ResolvedEntry{}, k2
		}
		prevCluster.SetNext(newNr)
		fs.store.MarkDirty(prevNr)
		nc, k3 := fs.store.Get(newNr)
		if k3 != KindOK {
			return ResolvedEntry{}, k3
		}
		w = &dirWalker{fs: fs, clusterNr: newNr, cluster: nc, slot: 0}
		extended, extendedNr, extendedPrevNr = true, newNr, prevNr
	}

	var childCluster uint16
	if isDir {
		nr, k := fs.allocChain(1, true)
		if k != KindOK {
			if extended {
				fs.freeChain(extendedNr)
				if prevCluster, k2 := fs.store.Get(extendedPrevNr); k2 == KindOK {
					prevCluster.SetNext(0)
					fs.store.MarkDirty(extendedPrevNr)
				}
			}
			return ResolvedEntry{}, k
		}
		childCluster = nr
	}

	entry := w.entry()
	entry.SetName(name)
	entry.SetSize(0)
	entry.SetIsDir(isDir)
	entry.SetCluster(childCluster)
	fs.store.MarkDirty(w.clusterNr)
	return ResolvedEntry{ref: w.ref(), isDir: isDir, size: 0, cluster: childCluster}, KindOK
}

// removeEntry removes the entry at path, which must be a file or directory
// matching isDirExpected.
func (fs *FS) removeEntry(path string, isDirExpected bool) Kind {
	fs.trace("removeEntry")
	resolved, k := fs.lookup(path, false)
	if k != KindOK {
		return k
	}
	if resolved.IsRoot() {
		return KindInvalid
	}
	if isDirExpected && !resolved.IsDir() {
		return KindNotADirectory
	}
	if !isDirExpected && resolved.IsDir() {
		return KindIsADirectory
	}
	if resolved.IsDir() {
		w, k := fs.newDirWalker(resolved.Cluster())
		if k != KindOK {
			return k
		}
		if !w.entry().Empty() {
			return KindNotEmpty
		}
		switch k := w.nextUsed(); k {
		case KindNotFound:
			// Directory is empty; proceed.
		case KindOK:
			return KindNotEmpty
		default:
			return k
		}
	}
	if resolved.Cluster() != 0 {
		if k := fs.freeChain(resolved.Cluster()); k != KindOK {
			return k
		}
	}
	c, k := fs.store.Get(resolved.ref.clusterNr)
	if k != KindOK {
		return k
	}
	direntryAt(c, resolved.ref.slot).Clear()
	fs.store.MarkDirty(resolved.ref.clusterNr)
	return KindOK
}
