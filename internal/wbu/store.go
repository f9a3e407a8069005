package wbu

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// StagingStore is the directory-backed filesystem namespace keyed by object
// name. It is the local, durable half of the write-back cache: a write
// returns only after the bytes are on disk (and, if requested, fsynced).
//
// Grounded on shardserver/store/fs.go's posixRawFS: a thin, unexported posix
// wrapper rather than a generic VFS abstraction, since the only caller is
// this package.
type StagingStore struct {
	dir         string
	prefixDepth uint32
}

// NewStagingStore opens (without creating) the cache directory at dir.
func NewStagingStore(dir string, prefixDepth uint32) *StagingStore {
	return &StagingStore{dir: dir, prefixDepth: prefixDepth}
}

// IsValid reports whether the root cache directory exists.
func (s *StagingStore) IsValid() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

func (s *StagingStore) fullPath(name ObjName) string {
	return filepath.Join(s.dir, string(name))
}

// Write persists b under name, creating intermediate directories when
// PrefixDepth > 0 implies a hierarchy. A partial write is treated as a
// failure. forceFsync issues an fdatasync-equivalent before close.
func (s *StagingStore) Write(name ObjName, b []byte, forceFsync bool) (int, error) {
	full := s.fullPath(name)

	if s.prefixDepth > 0 {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return 0, errors.Info(err, "create intermediate directories failed", string(name))
		}
	}

	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, errors.Info(err, "open staging file failed", string(name))
	}
	defer f.Close()

	n, err := f.Write(b)
	if err != nil {
		return 0, errors.Info(err, "write staging file failed", string(name))
	}
	if n < len(b) {
		return 0, errors.Info(errors.New("short write"), "write staging file failed", string(name))
	}

	if forceFsync {
		if err := f.Sync(); err != nil {
			return 0, errors.Info(err, "fsync staging file failed", string(name))
		}
	}

	return n, nil
}

// Read returns the full contents of the staged object. A short read is
// treated as a failure.
func (s *StagingStore) Read(name ObjName) ([]byte, error) {
	full := s.fullPath(name)

	info, err := os.Stat(full)
	if err != nil {
		return nil, errors.Info(err, "stat staging file failed", string(name))
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, errors.Info(err, "open staging file failed", string(name))
	}
	defer f.Close()

	size := info.Size()
	buf := make([]byte, size)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF {
		return nil, errors.Info(err, "read staging file failed", string(name))
	}
	if int64(n) < size {
		return nil, errors.Info(errors.New("short read"), "read staging file failed", string(name))
	}

	return buf, nil
}

// Remove unlinks the staged file for name. Removing an absent name is a
// no-op error: it never corrupts caller-side bookkeeping.
func (s *StagingStore) Remove(name ObjName) error {
	if err := os.Remove(s.fullPath(name)); err != nil {
		return errors.Info(err, "remove staging file failed", string(name))
	}
	return nil
}

// IsNotExist reports whether err (as returned by Remove) is the "no such
// file" case, which callers treat as an idempotent no-op rather than a
// retryable failure.
func IsNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err))
}

// Exists reports whether name is currently staged.
func (s *StagingStore) Exists(name ObjName) bool {
	_, err := os.Stat(s.fullPath(name))
	return err == nil
}

// ListAll performs a depth-first walk of the cache directory, skipping "."
// and "..", and returns the set of staged names as paths relative to dir.
func (s *StagingStore) ListAll() (map[ObjName]struct{}, error) {
	out := make(map[ObjName]struct{})

	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := os.ReadDir(filepath.Join(s.dir, rel))
		if err != nil {
			return errors.Info(err, "list staging directory failed", rel)
		}

		for _, ent := range entries {
			name := ent.Name()
			if name == "." || name == ".." {
				continue
			}

			relChild := name
			if rel != "" {
				relChild = strings.Join([]string{rel, name}, "/")
			}

			if ent.IsDir() {
				if err := walk(relChild); err != nil {
					return err
				}
				continue
			}

			out[ObjName(relChild)] = struct{}{}
		}

		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}

	return out, nil
}
