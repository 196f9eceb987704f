// Command ghostmount adapts a mounted ghostfs.FS to the kernel's FUSE
// interface via github.com/hanwen/go-fuse/v2. It is a thin driver: every
// operation takes a single process-wide lock and delegates straight to
// the engine, translating ghostfs.Kind into a syscall.Errno.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/spf13/afero"

	ghostfs "github.com/mukadr/GhostFS"
	"github.com/mukadr/GhostFS/internal/carrier"
	"github.com/mukadr/GhostFS/internal/lsbcodec"
)

func main() {
	carrierPath := flag.String("carrier", "", "path to the BMP or WAV carrier file")
	kind := flag.String("kind", "bmp", "carrier kind: bmp or wav")
	mountpoint := flag.String("mountpoint", "", "directory to mount the filesystem at")
	verbose := flag.Bool("v", false, "enable trace logging")
	flag.Parse()
	if *carrierPath == "" || *mountpoint == "" {
		log.Fatal("ghostmount: -carrier and -mountpoint are required")
	}

	osFs := afero.NewOsFs()
	var openCarrier func(path string) (*carrier.Carrier, error)
	switch *kind {
	case "bmp":
		openCarrier = func(p string) (*carrier.Carrier, error) { return carrier.OpenBMP(osFs, p) }
	case "wav":
		openCarrier = func(p string) (*carrier.Carrier, error) { return carrier.OpenWAV(osFs, p) }
	default:
		log.Fatalf("ghostmount: unknown -kind %q", *kind)
	}

	c, err := openCarrier(*carrierPath)
	if err != nil {
		log.Fatalf("ghostmount: open carrier: %v", err)
	}
	codec := lsbcodec.New(c)

	gfs, k := ghostfs.Mount(codec)
	if k != ghostfs.KindOK {
		log.Fatalf("ghostmount: mount: %v", k)
	}
	if *verbose {
		gfs.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug - 2})))
	}

	root := &ghostNode{fs: gfs, path: "/"}
	server, err := fs.Mount(*mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{FsName: "ghostfs", Name: "ghostfs"},
	})
	if err != nil {
		log.Fatalf("ghostmount: mount FUSE server: %v", err)
	}
	server.Wait()

	if k := gfs.Unmount(); k != ghostfs.KindOK {
		log.Printf("ghostmount: unmount: %v", k)
	}
}

// mu is the global lock the core's concurrency model requires callers to
// hold around every operation.
var mu sync.Mutex

func errnoFor(k ghostfs.Kind) syscall.Errno {
	switch k {
	case ghostfs.KindOK:
		return 0
	case ghostfs.KindInvalid:
		return syscall.EINVAL
	case ghostfs.KindNotFound:
		return syscall.ENOENT
	case ghostfs.KindNotADirectory:
		return syscall.ENOTDIR
	case ghostfs.KindIsADirectory:
		return syscall.EISDIR
	case ghostfs.KindNameTooLong:
		return syscall.ENAMETOOLONG
	case ghostfs.KindExists:
		return syscall.EEXIST
	case ghostfs.KindNotEmpty:
		return syscall.ENOTEMPTY
	case ghostfs.KindNoSpace:
		return syscall.ENOSPC
	case ghostfs.KindTooLarge:
		return syscall.EFBIG
	case ghostfs.KindOverflow:
		return syscall.EOVERFLOW
	case ghostfs.KindOutOfRange:
		return syscall.ERANGE
	case ghostfs.KindCorrupt:
		return syscall.EIO
	case ghostfs.KindIO:
		return syscall.EIO
	case ghostfs.KindOOM:
		return syscall.ENOMEM
	default:
		return syscall.EIO
	}
}

// ghostNode is the single fs.InodeEmbedder type used for every entry in
// the tree; it carries its own absolute path rather than a cluster
// reference, since the engine's public API is path-addressed.
type ghostNode struct {
	fs.Inode
	fs   *ghostfs.FS
	path string
}

var _ fs.NodeLookuper = (*ghostNode)(nil)
var _ fs.NodeGetattrer = (*ghostNode)(nil)
var _ fs.NodeReaddirer = (*ghostNode)(nil)
var _ fs.NodeOpener = (*ghostNode)(nil)
var _ fs.NodeCreater = (*ghostNode)(nil)
var _ fs.NodeMkdirer = (*ghostNode)(nil)
var _ fs.NodeUnlinker = (*ghostNode)(nil)
var _ fs.NodeRmdirer = (*ghostNode)(nil)
var _ fs.NodeRenamer = (*ghostNode)(nil)

func (n *ghostNode) child(name string) string {
	if n.path == "/" {
		return "/" + name
	}
	return n.path + "/" + name
}

func (n *ghostNode) attrFrom(a ghostfs.Attr, out *fuse.Attr) {
	out.Size = uint64(a.Size)
	out.Uid = a.Uid
	out.Gid = a.Gid
	mtime := a.Mtime
	out.SetTimes(&mtime, &mtime, &mtime)
	if a.IsDir {
		out.Mode = syscall.S_IFDIR | 0755
	} else {
		out.Mode = syscall.S_IFREG | 0644
	}
}

func (n *ghostNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	mu.Lock()
	defer mu.Unlock()
	a, err := n.fs.Getattr(n.path)
	if err != nil {
		return errnoFor(kindOf(err))
	}
	n.attrFrom(a, &out.Attr)
	return 0
}

func (n *ghostNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	childPath := n.child(name)
	a, err := n.fs.Getattr(childPath)
	if err != nil {
		return nil, errnoFor(kindOf(err))
	}
	n.attrFrom(a, &out.Attr)
	mode := uint32(syscall.S_IFREG)
	if a.IsDir {
		mode = syscall.S_IFDIR
	}
	child := &ghostNode{fs: n.fs, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: mode}), 0
}

type dirStreamEntry struct {
	name  string
	isDir bool
}

func (n *ghostNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	d, err := n.fs.Opendir(n.path)
	if err != nil {
		return nil, errnoFor(kindOf(err))
	}
	defer d.Closedir()

	var entries []fuse.DirEntry
	for {
		name, ok, err := d.NextEntry()
		if err != nil {
			return nil, errnoFor(kindOf(err))
		}
		if !ok {
			break
		}
		childPath := n.child(name)
		a, err := n.fs.Getattr(childPath)
		if err != nil {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		if a.IsDir {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *ghostNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	f, err := n.fs.Open(n.path)
	if err != nil {
		return nil, 0, errnoFor(kindOf(err))
	}
	return &ghostFile{f: f}, 0, 0
}

func (n *ghostNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	childPath := n.child(name)
	if err := n.fs.Create(childPath); err != nil {
		return nil, nil, 0, errnoFor(kindOf(err))
	}
	f, err := n.fs.Open(childPath)
	if err != nil {
		return nil, nil, 0, errnoFor(kindOf(err))
	}
	a, _ := n.fs.Getattr(childPath)
	n.attrFrom(a, &out.Attr)
	child := &ghostNode{fs: n.fs, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG}), &ghostFile{f: f}, 0, 0
}

func (n *ghostNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	childPath := n.child(name)
	if err := n.fs.Mkdir(childPath); err != nil {
		return nil, errnoFor(kindOf(err))
	}
	a, _ := n.fs.Getattr(childPath)
	n.attrFrom(a, &out.Attr)
	child := &ghostNode{fs: n.fs, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

func (n *ghostNode) Unlink(ctx context.Context, name string) syscall.Errno {
	mu.Lock()
	defer mu.Unlock()
	return errnoFor(kindOf(n.fs.Unlink(n.child(name))))
}

func (n *ghostNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	mu.Lock()
	defer mu.Unlock()
	return errnoFor(kindOf(n.fs.Rmdir(n.child(name))))
}

func (n *ghostNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	mu.Lock()
	defer mu.Unlock()
	dst, ok := newParent.(*ghostNode)
	if !ok {
		return syscall.EXDEV
	}
	return errnoFor(kindOf(n.fs.Rename(n.child(name), dst.child(newName))))
}

// ghostFile wraps a ghostfs.File to satisfy the FUSE file-handle read/write
// interfaces.
type ghostFile struct {
	f *ghostfs.File
}

var _ fs.FileReader = (*ghostFile)(nil)
var _ fs.FileWriter = (*ghostFile)(nil)
var _ fs.FileReleaser = (*ghostFile)(nil)

func (gf *ghostFile) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	n, err := gf.f.Read(dest, off)
	if err != nil {
		return nil, errnoFor(kindOf(err))
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (gf *ghostFile) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	mu.Lock()
	defer mu.Unlock()
	n, err := gf.f.Write(data, off)
	if err != nil {
		return 0, errnoFor(kindOf(err))
	}
	return uint32(n), 0
}

func (gf *ghostFile) Release(ctx context.Context) syscall.Errno {
	mu.Lock()
	defer mu.Unlock()
	return errnoFor(kindOf(gf.f.Release()))
}

// kindOf recovers the ghostfs.Kind carried by an error returned from the
// public API, treating anything else (e.g. ErrStale) as an I/O error.
func kindOf(err error) ghostfs.Kind {
	if err == nil {
		return ghostfs.KindOK
	}
	if k, ok := err.(ghostfs.Kind); ok {
		return k
	}
	return ghostfs.KindIO
}

