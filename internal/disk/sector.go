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

package disk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/logger"
)

// Plausibility bounds for the sector size reported by a device.
const (
	MinSectorSize = 512
	MaxSectorSize = 1 << 20
)

// SectorIO reads single sectors from raw devices. Every call opens the device,
// queries its geometry and closes it again: the sector size is never cached
// and no handle outlives the call that opened it.
type SectorIO struct {
	open   fs.Opener
	logger *slog.Logger
}

// NewSectorIO returns a SectorIO using open to access devices. A nil opener
// selects fs.Open.
func NewSectorIO(open fs.Opener, log *slog.Logger) *SectorIO {
	if open == nil {
		open = fs.Open
	}
	return &SectorIO{
		open:   open,
		logger: logger.OrDiscard(log),
	}
}

var defaultIO = NewSectorIO(fs.Open, nil)

// QuerySectorSize calls QuerySectorSize on the default SectorIO.
func QuerySectorSize(path string) (uint32, error) {
	return defaultIO.QuerySectorSize(path)
}

// ReadSector calls ReadSector on the default SectorIO.
func ReadSector(path string, index int64, buf []byte) (int, error) {
	return defaultIO.ReadSector(path, index, buf)
}

func checkSectorSize(size uint32) error {
	if size < MinSectorSize {
		return fmt.Errorf("sector size %d is below %d bytes", size, MinSectorSize)
	}
	if size > MaxSectorSize {
		return fmt.Errorf("sector size %d exceeds %d bytes", size, MaxSectorSize)
	}
	return nil
}

func (s *SectorIO) openDevice(op, path string) (fs.Device, error) {
	if path == "" {
		return nil, newError(op, path, InvalidParameter, errors.New("empty device path"))
	}
	dev, err := s.open(path)
	if err != nil {
		return nil, newError(op, path, OpenFailed, err)
	}
	return dev, nil
}

// QuerySectorSize opens path, reads the logical sector size from the device
// geometry and closes the device. Sizes outside [MinSectorSize, MaxSectorSize]
// fail with InvalidParameter.
func (s *SectorIO) QuerySectorSize(path string) (uint32, error) {
	const op = "query sector size"

	dev, err := s.openDevice(op, path)
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	size, err := dev.SectorSize()
	if err != nil {
		return 0, newError(op, path, GeometryQueryFailed, err)
	}
	if err := checkSectorSize(size); err != nil {
		return 0, newError(op, path, InvalidParameter, err)
	}
	return size, nil
}

// ReadSector reads the sector at index into buf and returns the sector size.
//
// If buf is shorter than the sector size the call fails with
// InsufficientBuffer, leaves buf untouched and returns the required size, so
// the caller can retry with a larger buffer.
func (s *SectorIO) ReadSector(path string, index int64, buf []byte) (int, error) {
	const op = "read sector"

	if index < 0 {
		return 0, newError(op, path, InvalidParameter, fmt.Errorf("negative sector index %d", index))
	}
	if buf == nil {
		return 0, newError(op, path, InvalidParameter, errors.New("nil buffer"))
	}

	dev, err := s.openDevice(op, path)
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	size, err := dev.SectorSize()
	if err != nil {
		return 0, newError(op, path, GeometryQueryFailed, err)
	}
	if err := checkSectorSize(size); err != nil {
		return 0, newError(op, path, SectorSizeOutOfRange, err)
	}

	if len(buf) < int(size) {
		return int(size), &Error{
			Op:       op,
			Path:     path,
			Kind:     InsufficientBuffer,
			Required: int(size),
		}
	}

	if index > math.MaxInt64/int64(size) {
		return 0, newError(op, path, OverflowError, fmt.Errorf("sector %d * %d overflows a 64-bit offset", index, size))
	}
	offset := index * int64(size)

	if _, err := dev.Seek(offset, io.SeekStart); err != nil {
		return 0, newError(op, path, SeekFailed, err)
	}

	// The read request must match the sector size exactly, raw devices
	// reject reads that are not sector aligned.
	sector := make([]byte, size)
	if _, err := io.ReadFull(dev, sector); err != nil {
		return 0, newError(op, path, ReadFailed, fmt.Errorf("sector %d: %w", index, err))
	}
	copy(buf, sector)

	s.logger.Debug("sector read", "path", path, "lba", index, "size", size)
	return int(size), nil
}

// readLBA allocates a buffer of sectorSize bytes and reads lba into it.
func (s *SectorIO) readLBA(path string, lba uint64, sectorSize uint32) ([]byte, error) {
	if lba > math.MaxInt64 {
		return nil, newError("read sector", path, OverflowError, fmt.Errorf("LBA %d exceeds the signed 64-bit range", lba))
	}
	buf := make([]byte, sectorSize)
	n, err := s.ReadSector(path, int64(lba), buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
