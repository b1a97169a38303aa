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

// Package enumerate discovers the physical disks attached to the machine.
package enumerate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/logger"
)

// MaxBufferSize bounds every buffer whose size is reported by the platform:
// device paths and property descriptors.
const MaxBufferSize = 1 << 20

// ErrNoMoreItems is returned by Source.Next past the last device interface.
var ErrNoMoreItems = errors.New("no more device interfaces")

// Source iterates the device interfaces of the physical disk class.
type Source interface {
	// Next reports whether interface i exists. It returns ErrNoMoreItems past
	// the last interface.
	Next(i int) error
	// Path resolves the device path of interface i.
	Path(i int) (string, error)
}

// Platform abstracts the OS services used by the enumerator.
type Platform interface {
	// Interfaces starts the enumeration of physical disk interfaces.
	Interfaces() (Source, error)
	// Open opens a device read-only with shared read/write access.
	Open(path string) (fs.Device, error)
	// PropertySize returns the size of the device property descriptor.
	PropertySize(dev fs.Device) (int, error)
	// Property fills buf with the device property descriptor and returns the
	// number of valid bytes.
	Property(dev fs.Device, buf []byte) (int, error)
	// Format tells how descriptors of this platform are laid out.
	Format() DescriptorFormat
}

// PhysicalDisk is one enumerated disk. Handle is nil if the device could not
// be opened and Descriptor is nil if its property could not be read.
type PhysicalDisk struct {
	Path           string
	Handle         fs.Device
	Descriptor     []byte
	DescriptorSize int
	Format         DescriptorFormat
}

// Close releases the handle and drops the descriptor.
func (d *PhysicalDisk) Close() error {
	var err error
	if d.Handle != nil {
		err = d.Handle.Close()
		d.Handle = nil
	}
	d.Descriptor = nil
	d.DescriptorSize = 0
	return err
}

// Opened reports whether the device handle is valid.
func (d *PhysicalDisk) Opened() bool {
	return d.Handle != nil
}

// Size returns the capacity of the disk in bytes.
func (d *PhysicalDisk) Size() (int64, error) {
	if d.Handle == nil {
		return 0, fmt.Errorf("%s is not open", d.Path)
	}
	return d.Handle.Size()
}

// Properties decodes the descriptor.
func (d *PhysicalDisk) Properties() (Properties, error) {
	if d.Descriptor == nil {
		return Properties{}, errNoDescriptor
	}
	return Decode(d.Format, d.Descriptor)
}

// DiskList owns the handles of the enumerated disks. Callers must Close it.
type DiskList []*PhysicalDisk

// Close closes every disk of the list.
func (l DiskList) Close() error {
	var errs []error
	for _, d := range l {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Paths returns the device paths of the list in order.
func (l DiskList) Paths() []string {
	paths := make([]string, len(l))
	for i, d := range l {
		paths[i] = d.Path
	}
	return paths
}

// Enumerator enumerates physical disks through a Platform.
type Enumerator struct {
	platform Platform
	logger   *slog.Logger
}

// New returns an enumerator over p. A nil p selects the native platform.
func New(p Platform, log *slog.Logger) *Enumerator {
	if p == nil {
		p = Native()
	}
	return &Enumerator{platform: p, logger: logger.OrDiscard(log)}
}

// Enumerate calls Enumerate on an enumerator over the native platform.
func Enumerate() (DiskList, error) {
	return New(nil, nil).Enumerate()
}

// Enumerate lists the physical disks of the platform.
//
// Devices whose path cannot be resolved are skipped. Devices that cannot be
// opened are listed with a nil handle, and devices whose property cannot be
// read are listed without descriptor. Finding no device at all fails with
// NoDevicesFound. On failure every handle opened so far is closed and a nil
// list is returned. On success ownership of all handles passes to the caller.
func (e *Enumerator) Enumerate() (DiskList, error) {
	const op = "enumerate disks"

	src, err := e.platform.Interfaces()
	if err != nil {
		return nil, &disk.Error{Op: op, Kind: disk.GetDiskCountFailed, Err: err}
	}

	count, err := countInterfaces(src)
	if err != nil {
		return nil, &disk.Error{Op: op, Kind: disk.GetDiskCountFailed, Err: err}
	}
	if count == 0 {
		return nil, &disk.Error{Op: op, Kind: disk.NoDevicesFound}
	}

	list := make(DiskList, 0, count)
	for i := 0; i < count; i++ {
		if err := src.Next(i); err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}
			_ = list.Close()
			return nil, &disk.Error{Op: op, Kind: disk.GetDiskCountFailed, Err: err}
		}

		path, err := src.Path(i)
		if err != nil {
			e.logger.Warn("skipping device interface", "index", i, "error", err)
			continue
		}
		if path == "" || len(path) > MaxBufferSize {
			e.logger.Warn("skipping device interface with implausible path", "index", i, "length", len(path))
			continue
		}

		list = append(list, e.probe(path))
	}

	e.logger.Debug("enumeration done", "candidates", count, "processed", len(list))
	return list, nil
}

func countInterfaces(src Source) (int, error) {
	n := 0
	for {
		err := src.Next(n)
		if errors.Is(err, ErrNoMoreItems) {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

// probe opens path and fetches its property descriptor with a size query
// followed by the actual query.
func (e *Enumerator) probe(path string) *PhysicalDisk {
	d := &PhysicalDisk{Path: path, Format: e.platform.Format()}

	dev, err := e.platform.Open(path)
	if err != nil {
		e.logger.Warn("failed to open device", "path", path, "error", err)
		return d
	}
	d.Handle = dev

	size, err := e.platform.PropertySize(dev)
	if err != nil {
		e.logger.Warn("device property size query failed", "path", path, "error", err)
		return d
	}
	if size <= 0 || size > MaxBufferSize {
		e.logger.Warn("implausible device property size", "path", path, "size", size)
		return d
	}

	buf := make([]byte, size)
	n, err := e.platform.Property(dev, buf)
	if err != nil {
		e.logger.Warn("device property query failed", "path", path, "error", err)
		return d
	}
	if n <= 0 || n > size {
		n = size
	}
	d.Descriptor = buf[:n]
	d.DescriptorSize = n
	return d
}
