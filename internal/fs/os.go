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

//go:build !windows
// +build !windows

package fs

import (
	"fmt"
	"io"
	"os"
)

type osDevice struct {
	*os.File
	isDevice bool
}

// Open opens path read-only. Block devices report their geometry through the
// platform ioctls, regular files report DefaultSectorSize.
func Open(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	finfo, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	mode := finfo.Mode()
	if mode.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%q is a directory", path)
	}
	if mode&os.ModeCharDevice != 0 {
		f.Close()
		return nil, fmt.Errorf("%q is a character device, not a block device", path)
	}

	return &osDevice{
		File:     f,
		isDevice: mode&os.ModeDevice != 0,
	}, nil
}

func (d *osDevice) SectorSize() (uint32, error) {
	if !d.isDevice {
		return DefaultSectorSize, nil
	}
	return blockSectorSize(d.File)
}

func (d *osDevice) Size() (int64, error) {
	if !d.isDevice {
		finfo, err := d.File.Stat()
		if err != nil {
			return 0, err
		}
		return finfo.Size(), nil
	}

	size, err := blockDeviceSize(d.File)
	if err == nil {
		return size, nil
	}

	// Fall back to seeking to the end, then restore the position.
	cur, serr := d.File.Seek(0, io.SeekCurrent)
	if serr != nil {
		return 0, err
	}
	end, serr := d.File.Seek(0, io.SeekEnd)
	if serr != nil {
		return 0, err
	}
	_, _ = d.File.Seek(cur, io.SeekStart)
	return end, nil
}
