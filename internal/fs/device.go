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

import "io"

// DefaultSectorSize is reported for regular files (disk images), which carry
// no device geometry of their own.
const DefaultSectorSize = 512

// Device is an open raw block device or disk image. It is owned by whoever
// opened it and must be closed by that owner.
type Device interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer

	// SectorSize returns the logical sector size from the device geometry.
	SectorSize() (uint32, error)
	// Size returns the capacity of the device in bytes.
	Size() (int64, error)
	// Fd returns the platform handle, for device-specific queries.
	Fd() uintptr
}

// Opener opens a device by path.
type Opener func(path string) (Device, error)
