package walk

import (
	"context"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
)

// Entry is a regular file found by a walk.
type Entry interface {
	// Path is the name of a file prefixed by the name of its filesystem.
	Path() string
	Open() (io.ReadCloser, error)
	Stat() (fs.FileInfo, error)
}

// Roots is a convenience wrapper around Dir for os.Root. See Dir for details.
func Roots(ctx context.Context, roots ...*os.Root) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, root := range roots {
			for entry, err := range Dir(ctx, root.FS(), root.Name()) {
				if !yield(entry, err) {
					return
				}
			}
		}
	}
}

// Dir returns a handle for every regular file directly inside root, in
// lexical order. Subdirectories are not descended into and symlinks are
// followed. If reading the directory fails, the error is yielded once.
// Each Entry's Path() is prefixed with name.
func Dir(ctx context.Context, root fs.FS, name string) iter.Seq2[Entry, error] {
	if root == nil {
		panic("root is nil")
	}

	return func(yield func(Entry, error) bool) {
		dirEntries, err := fs.ReadDir(root, ".")
		if err != nil {
			yield(nil, err)
			return
		}
		for _, d := range dirEntries {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			entry := fsEntry{
				root:    root,
				abspath: filepath.Join(name, d.Name()),
				path:    path.Clean(d.Name()),
			}
			// Stat follows symlinks, DirEntry.Info does not
			info, err := fs.Stat(root, entry.path)
			if err != nil {
				entry.infoErr = err
				if !yield(entry, err) {
					return
				}
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			entry.info = info
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// fsEntry implements Entry for a filesystem
// it uses root.Open to open the file
type fsEntry struct {
	root    fs.FS
	abspath string
	path    string
	info    fs.FileInfo
	infoErr error
}

func (e fsEntry) Path() string {
	return e.abspath
}

func (e fsEntry) Open() (io.ReadCloser, error) {
	if e.infoErr != nil {
		return nil, e.infoErr
	}
	return e.root.Open(e.path)
}

func (e fsEntry) Stat() (fs.FileInfo, error) {
	return e.info, e.infoErr
}
