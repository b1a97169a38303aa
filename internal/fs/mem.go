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

package fs

import (
	"bytes"
	"errors"
)

var errClosed = errors.New("device is closed")

// MemDevice is a Device backed by a byte slice. It serves backup images and
// synthesized disks.
type MemDevice struct {
	*bytes.Reader
	sectorSize uint32
	size       int64
	closed     bool
}

// NewMemDevice returns a device over data reporting the given sector size.
// The sector size is reported as is, so that callers can exercise geometry
// validation with implausible values.
func NewMemDevice(data []byte, sectorSize uint32) *MemDevice {
	return &MemDevice{
		Reader:     bytes.NewReader(data),
		sectorSize: sectorSize,
		size:       int64(len(data)),
	}
}

// MemOpener returns an Opener resolving every path to a fresh view of data.
func MemOpener(data []byte, sectorSize uint32) Opener {
	return func(string) (Device, error) {
		return NewMemDevice(data, sectorSize), nil
	}
}

func (d *MemDevice) SectorSize() (uint32, error) {
	if d.closed {
		return 0, errClosed
	}
	return d.sectorSize, nil
}

func (d *MemDevice) Size() (int64, error) {
	if d.closed {
		return 0, errClosed
	}
	return d.size, nil
}

func (d *MemDevice) Fd() uintptr { return ^uintptr(0) }

func (d *MemDevice) Close() error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *MemDevice) Closed() bool { return d.closed }
