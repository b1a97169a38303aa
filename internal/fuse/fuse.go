// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

//go:build linux

package fuse

import (
	"context"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// PartitionFS serves a flat directory of FileEntry files read from r.
type PartitionFS struct {
	r       io.ReaderAt
	created time.Time

	mtx     sync.RWMutex
	entries map[string]FileEntry
}

// NewPartitionFS returns a file system exposing entries over r. Entries
// sharing a name are shadowed by the last one.
func NewPartitionFS(r io.ReaderAt, entries []FileEntry) *PartitionFS {
	m := make(map[string]FileEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &PartitionFS{r: r, created: time.Now(), entries: m}
}

func (pfs *PartitionFS) Root() (fs.Node, error) {
	return &Dir{fs: pfs}, nil
}

// Lookup returns the file called name.
func (pfs *PartitionFS) Lookup(name string) (*File, bool) {
	pfs.mtx.RLock()
	defer pfs.mtx.RUnlock()

	e, ok := pfs.entries[name]
	if !ok {
		return nil, false
	}
	return &File{
		r:     io.NewSectionReader(pfs.r, int64(e.Offset), int64(e.Size)),
		size:  e.Size,
		mtime: pfs.created,
	}, true
}

// Names returns the file names in lexical order.
func (pfs *PartitionFS) Names() []string {
	pfs.mtx.RLock()
	defer pfs.mtx.RUnlock()

	names := make([]string, 0, len(pfs.entries))
	for name := range pfs.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dir implements both fs.Node and fs.HandleReadDirAller
type Dir struct {
	fs *PartitionFS
}

func (*Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = 1
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	if f, ok := d.fs.Lookup(name); ok {
		return f, nil
	}
	return nil, fuse.ENOENT
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names := d.fs.Names()

	dirEntries := make([]fuse.Dirent, len(names))
	for i, name := range names {
		dirEntries[i] = fuse.Dirent{
			Inode: uint64(i + 2),
			Name:  name,
			Type:  fuse.DT_File,
		}
	}
	return dirEntries, nil
}

// File implements both fs.Node and fs.HandleReader
type File struct {
	r     io.ReaderAt
	size  uint64
	mtime time.Time
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = f.size
	a.Mtime = f.mtime
	return nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := f.ReadRange(req.Offset, req.Size)
	if err != nil {
		return err
	}
	resp.Data = data
	return nil
}

// ReadRange returns up to size bytes at offset, clamped to the file end.
func (f *File) ReadRange(offset int64, size int) ([]byte, error) {
	if offset < 0 || offset >= int64(f.size) {
		return []byte{}, nil
	}
	if offset+int64(size) > int64(f.size) {
		size = int(int64(f.size) - offset)
	}

	buf := make([]byte, size)
	n, err := f.r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
