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

//go:build windows
// +build windows

package fs

import (
	"fmt"
	"io"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const ioctlDiskGetDriveGeometryEx = 0x000700A0

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

type diskGeometryEx struct {
	Geometry diskGeometry
	DiskSize int64
	Data     [1]byte
}

type WindowsDiskFile struct {
	handle   windows.Handle
	isDevice bool
}

// Open opens path with GENERIC_READ and FILE_SHARE_READ|FILE_SHARE_WRITE, so
// that mounted volumes and disks in use by the system stay readable.
func Open(path string) (Device, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &WindowsDiskFile{
		handle:   handle,
		isDevice: strings.HasPrefix(path, `\\.\`) || strings.HasPrefix(path, `\\?\`),
	}, nil
}

func (d *WindowsDiskFile) Read(p []byte) (int, error) {
	var bytesRead uint32
	err := windows.ReadFile(d.handle, p, &bytesRead, nil)
	if err != nil {
		return int(bytesRead), err
	}
	if bytesRead == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return int(bytesRead), nil
}

func (d *WindowsDiskFile) Seek(offset int64, whence int) (int64, error) {
	return windows.Seek(d.handle, offset, whence)
}

// ReadAt issues sector aligned reads, as raw disk handles reject unaligned
// offsets and lengths.
func (d *WindowsDiskFile) ReadAt(p []byte, off int64) (int, error) {
	sectorSize := int64(DefaultSectorSize)
	if d.isDevice {
		if sz, err := d.SectorSize(); err == nil {
			sectorSize = int64(sz)
		}
	}

	alignedOffset := off / sectorSize * sectorSize
	alignmentDiff := int(off - alignedOffset)
	alignedSize := ((int64(len(p)+alignmentDiff) + sectorSize - 1) / sectorSize) * sectorSize

	buf := make([]byte, alignedSize)

	var bytesRead uint32
	ov := new(windows.Overlapped)
	ov.Offset = uint32(alignedOffset)
	ov.OffsetHigh = uint32(alignedOffset >> 32)

	err := windows.ReadFile(d.handle, buf, &bytesRead, ov)
	if err != nil {
		if err == syscall.ERROR_IO_PENDING {
			err = windows.GetOverlappedResult(d.handle, ov, &bytesRead, true)
		}
		if err != nil {
			return 0, fmt.Errorf("aligned read failed: %w", err)
		}
	}
	if int(bytesRead) <= alignmentDiff {
		return 0, io.EOF
	}

	n := copy(p, buf[alignmentDiff:bytesRead])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *WindowsDiskFile) geometry() (*diskGeometryEx, error) {
	var geometry diskGeometryEx
	var bytesReturned uint32

	err := windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetDriveGeometryEx,
		nil,
		0,
		(*byte)(unsafe.Pointer(&geometry)),
		uint32(unsafe.Sizeof(geometry)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("DeviceIoControl(IOCTL_DISK_GET_DRIVE_GEOMETRY_EX) failed: %w", err)
	}
	return &geometry, nil
}

func (d *WindowsDiskFile) SectorSize() (uint32, error) {
	if !d.isDevice {
		return DefaultSectorSize, nil
	}
	g, err := d.geometry()
	if err != nil {
		return 0, err
	}
	return g.Geometry.BytesPerSector, nil
}

func (d *WindowsDiskFile) Size() (int64, error) {
	if d.isDevice {
		g, err := d.geometry()
		if err != nil {
			return 0, err
		}
		return g.DiskSize, nil
	}

	cur, err := windows.Seek(d.handle, 0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := windows.Seek(d.handle, 0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, _ = windows.Seek(d.handle, cur, io.SeekStart)
	return end, nil
}

func (d *WindowsDiskFile) Fd() uintptr {
	return uintptr(d.handle)
}

func (d *WindowsDiskFile) Close() error {
	return windows.CloseHandle(d.handle)
}
