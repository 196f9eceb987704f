package ghostfs

import (
	"errors"
	"time"
)

// asError converts an internal Kind into a plain error, returning nil for
// KindOK so callers get ordinary Go error semantics.
func (k Kind) asError() error {
	if k == KindOK {
		return nil
	}
	return k
}

// File is a handle returned by Open, scoped to the mount it was opened
// under: any operation through a handle left over from a previous mount
// fails with ErrStale rather than touching the new mount's state.
type File struct {
	fs    *FS
	fsid  uint32
	path  string
	entry ResolvedEntry
}

// Dir is a handle returned by Opendir, walking a directory's used entries
// one at a time.
type Dir struct {
	fs      *FS
	fsid    uint32
	cluster uint16
	w       *dirWalker
	done    bool
}

// Attr is the information getattr reports about a path.
type Attr struct {
	IsDir bool
	Size  uint32
	Uid   uint32
	Gid   uint32
	Mtime time.Time
	Mode  string // always "rw-" — ownership and time are mount-wide, not per-entry
}

// Statvfs mirrors statfs(2)'s classic bsize/blocks/bfree trio.
type Statvfs struct {
	Bsize  uint32
	Blocks uint16
	Bfree  uint32
}

// ErrStale is returned by any operation on a handle obtained before the
// filesystem's most recent mount.
var ErrStale = errors.New("ghostfs: stale handle")

func (fs *FS) validate() error {
	if fs == nil || fs.store == nil {
		return ErrStale
	}
	return nil
}

func (f *File) validate() error {
	if err := f.fs.validate(); err != nil {
		return err
	}
	if f.fsid != f.fs.id {
		return ErrStale
	}
	return nil
}

func (d *Dir) validate() error {
	if err := d.fs.validate(); err != nil {
		return err
	}
	if d.fsid != d.fs.id {
		return ErrStale
	}
	return nil
}

// Create makes a new, empty file at path.
func (fs *FS) Create(path string) error {
	if err := fs.validate(); err != nil {
		return err
	}
	_, k := fs.createEntry(path, false)
	return k.asError()
}

// Mkdir makes a new, empty directory at path.
func (fs *FS) Mkdir(path string) error {
	if err := fs.validate(); err != nil {
		return err
	}
	_, k := fs.createEntry(path, true)
	return k.asError()
}

// Unlink removes the file at path.
func (fs *FS) Unlink(path string) error {
	if err := fs.validate(); err != nil {
		return err
	}
	return fs.removeEntry(path, false).asError()
}

// Rmdir removes the empty directory at path.
func (fs *FS) Rmdir(path string) error {
	if err := fs.validate(); err != nil {
		return err
	}
	return fs.removeEntry(path, true).asError()
}

// Truncate resizes the file at path to size, zero-extending or freeing
// trailing clusters as needed.
func (fs *FS) Truncate(path string, size int64) error {
	if err := fs.validate(); err != nil {
		return err
	}
	r, k := fs.lookup(path, false)
	if k != KindOK {
		return k.asError()
	}
	return fs.truncate(&r, size).asError()
}

// Rename moves the file at oldPath to newPath. See the file engine's
// rename for the file-only caveat.
func (fs *FS) Rename(oldPath, newPath string) error {
	if err := fs.validate(); err != nil {
		return err
	}
	return fs.rename(oldPath, newPath).asError()
}

// Open resolves path and returns a handle usable with Read/Write/Release.
// Directories cannot be opened this way; use Opendir.
func (fs *FS) Open(path string) (*File, error) {
	if err := fs.validate(); err != nil {
		return nil, err
	}
	r, k := fs.lookup(path, false)
	if k != KindOK {
		return nil, k.asError()
	}
	if r.IsDir() {
		return nil, KindIsADirectory.asError()
	}
	return &File{fs: fs, fsid: fs.id, path: path, entry: r}, nil
}

// Read reads up to len(buf) bytes from f starting at off.
func (f *File) Read(buf []byte, off int64) (int, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	n, k := f.fs.readFile(f.entry, buf, off)
	return n, k.asError()
}

// Write writes buf into f starting at off, extending the file if needed.
func (f *File) Write(buf []byte, off int64) (int, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	n, k := f.fs.writeFile(&f.entry, buf, off)
	return n, k.asError()
}

// Release closes f. The handle must not be used afterward.
func (f *File) Release() error {
	if err := f.validate(); err != nil {
		return err
	}
	f.fs = nil
	return nil
}

// Opendir opens the directory at path for iteration with NextEntry.
func (fs *FS) Opendir(path string) (*Dir, error) {
	if err := fs.validate(); err != nil {
		return nil, err
	}
	r, k := fs.lookup(path, false)
	if k != KindOK {
		return nil, k.asError()
	}
	if !r.IsDir() {
		return nil, KindNotADirectory.asError()
	}
	return &Dir{fs: fs, fsid: fs.id, cluster: r.Cluster()}, nil
}

// NextEntry returns the next used entry's name, or ok=false once the
// directory is exhausted.
func (d *Dir) NextEntry() (name string, ok bool, err error) {
	if err := d.validate(); err != nil {
		return "", false, err
	}
	if d.done {
		return "", false, nil
	}
	if d.w == nil {
		w, k := d.fs.newDirWalker(d.cluster)
		if k != KindOK {
			return "", false, k.asError()
		}
		d.w = w
		if !w.entry().Empty() {
			return w.entry().Name(), true, nil
		}
	} else {
		if k := d.w.next(); k != KindOK {
			d.done = true
			return "", false, nil
		}
		if !d.w.entry().Empty() {
			return d.w.entry().Name(), true, nil
		}
	}
	if k := d.w.nextUsed(); k != KindOK {
		d.done = true
		return "", false, nil
	}
	return d.w.entry().Name(), true, nil
}

// Closedir closes d. The handle must not be used afterward.
func (d *Dir) Closedir() error {
	if err := d.validate(); err != nil {
		return err
	}
	d.fs = nil
	return nil
}

// Getattr reports the metadata for path.
func (fs *FS) Getattr(path string) (Attr, error) {
	if err := fs.validate(); err != nil {
		return Attr{}, err
	}
	r, k := fs.lookup(path, false)
	if k != KindOK {
		return Attr{}, k.asError()
	}
	return Attr{
		IsDir: r.IsDir(),
		Size:  r.Size(),
		Uid:   fs.uid,
		Gid:   fs.gid,
		Mtime: fs.mountedAt,
		Mode:  "rw-",
	}, nil
}

// GetStatvfs reports filesystem-wide capacity and usage.
func (fs *FS) GetStatvfs() (Statvfs, error) {
	if err := fs.validate(); err != nil {
		return Statvfs{}, err
	}
	return Statvfs{
		Bsize:  ClusterSize,
		Blocks: fs.store.clusterCount,
		Bfree:  fs.freeClusters,
	}, nil
}

// Debug prints the whole directory tree recursively, for administrative
// inspection. It never returns an internal Kind: a read failure is
// reported inline and walking stops there.
func (fs *FS) Debug(w interface{ Write([]byte) (int, error) }) error {
	if err := fs.validate(); err != nil {
		return err
	}
	return fs.debugTree(w, "/", rootResolved(), 0)
}

func (fs *FS) debugTree(w interface{ Write([]byte) (int, error) }, path string, entry ResolvedEntry, depth int) error {
	indent := make([]byte, depth)
	for i := range indent {
		indent[i] = ' '
	}
	line := string(indent) + path + "\n"
	if _, err := w.Write([]byte(line)); err != nil {
		return err
	}
	if !entry.IsDir() {
		return nil
	}
	dw, k := fs.newDirWalker(entry.Cluster())
	if k != KindOK {
		_, _ = w.Write([]byte(string(indent) + "  <error: " + k.Error() + ">\n"))
		return nil
	}
	visit := func(name string, child ResolvedEntry) error {
		childPath := path
		if childPath != "/" {
			childPath += "/"
		}
		childPath += name
		return fs.debugTree(w, childPath, child, depth+1)
	}
	if !dw.entry().Empty() {
		if err := visit(dw.entry().Name(), resolvedFrom(dw)); err != nil {
			return err
		}
	}
	for {
		if k := dw.nextUsed(); k != KindOK {
			break
		}
		if err := visit(dw.entry().Name(), resolvedFrom(dw)); err != nil {
			return err
		}
	}
	return nil
}
