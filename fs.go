// Package ghostfs implements a cluster-based filesystem that stores every
// byte of its directory tree and file contents through a Codec — a flat,
// byte-addressable channel usually backed by the least-significant bits of
// a media carrier (see internal/lsbcodec and internal/carrier).
//
// The engine is single-threaded and cooperative: every operation runs
// synchronously on the caller's goroutine, and there is no internal
// locking. Callers (the FUSE adapter in cmd/ghostmount, or any other
// driver) must serialise access with their own lock.
package ghostfs

import (
	"context"
	"log/slog"
	"time"
)

// FS is a mounted filesystem handle: the codec, the cluster cache, and the
// bookkeeping captured at mount time.
type FS struct {
	store        *clusterStore
	freeClusters uint32
	mountedAt    time.Time
	uid, gid     uint32
	log          *slog.Logger

	id uint32 // set at mount, bumped at unmount; invalidates handles from before the unmount
}

// entryRef is the tagged reference used throughout the engine in place of a
// raw pointer comparison: either the synthetic root (which has no on-disk
// entry) or a concrete (cluster, slot) location.
type entryRef struct {
	root      bool
	clusterNr uint16
	slot      int
}

func rootRef() entryRef { return entryRef{root: true} }

func (r entryRef) isRoot() bool { return r.root }

// logattrs is the ghostfs-wide logging entry point, guarded against a nil
// logger.
func (fs *FS) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if fs.log != nil {
		fs.log.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

const slogLevelTrace = slog.LevelDebug - 2

func (fs *FS) trace(msg string, attrs ...slog.Attr) { fs.logattrs(slogLevelTrace, msg, attrs...) }
func (fs *FS) debug(msg string, attrs ...slog.Attr) { fs.logattrs(slog.LevelDebug, msg, attrs...) }
func (fs *FS) warn(msg string, attrs ...slog.Attr)  { fs.logattrs(slog.LevelWarn, msg, attrs...) }
func (fs *FS) logerror(msg string, attrs ...slog.Attr) {
	fs.logattrs(slog.LevelError, msg, attrs...)
}

// SetLogger attaches a structured logger used for trace/debug diagnostics.
// A nil logger (the default) disables logging entirely.
func (fs *FS) SetLogger(log *slog.Logger) { fs.log = log }
