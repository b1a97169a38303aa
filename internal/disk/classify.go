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
	"bytes"
	"errors"
)

// TableType is the partitioning scheme found on a device.
type TableType uint8

const (
	NoPartitionTable TableType = iota
	MBRTable
	GPTTable
)

func (t TableType) String() string {
	switch t {
	case GPTTable:
		return "GPT"
	case MBRTable:
		return "MBR"
	default:
		return "none"
	}
}

// MarshalText renders the table type as its name.
func (t TableType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// GPTSignature is the 8-byte ASCII signature opening a GPT header.
var GPTSignature = []byte("EFI PART")

func hasGPTSignature(sector []byte) bool {
	return len(sector) >= len(GPTSignature) && bytes.Equal(sector[:len(GPTSignature)], GPTSignature)
}

// Classify calls Classify on the default SectorIO.
func Classify(path string) (TableType, error) {
	return defaultIO.Classify(path)
}

// Classify inspects LBA0 and LBA1 of path and reports its partitioning scheme.
//
// A boot signature at the end of LBA0 followed by "EFI PART" at LBA1 is a GPT
// disk behind a protective MBR. A boot signature alone is an MBR disk. An LBA0
// starting with "EFI PART" is GPT only if LBA1 carries the same signature;
// otherwise the disk has no usable partition table.
//
// Failures are reported as SectorSizeQueryFailed, ReadLBA0Failed or
// ReadLBA1Failed, wrapping the underlying error. Nothing is retried.
func (s *SectorIO) Classify(path string) (TableType, error) {
	const op = "classify"

	sectorSize, err := s.QuerySectorSize(path)
	if err != nil {
		return NoPartitionTable, newError(op, path, SectorSizeQueryFailed, err)
	}
	if sectorSize == 0 {
		return NoPartitionTable, newError(op, path, SectorSizeQueryFailed, errors.New("device reported a zero sector size"))
	}

	lba0, err := s.readLBA(path, 0, sectorSize)
	if err != nil {
		return NoPartitionTable, newError(op, path, ReadLBA0Failed, err)
	}

	isMBR := sectorSize >= MBRSize && HasBootSignature(lba0)
	if !isMBR && !hasGPTSignature(lba0) {
		s.logger.Debug("no partition table signature", "path", path)
		return NoPartitionTable, nil
	}

	lba1, err := s.readLBA(path, 1, sectorSize)
	if err != nil {
		return NoPartitionTable, newError(op, path, ReadLBA1Failed, err)
	}

	switch {
	case hasGPTSignature(lba1):
		return GPTTable, nil
	case isMBR:
		return MBRTable, nil
	default:
		s.logger.Warn("GPT signature at LBA0 not confirmed by LBA1", "path", path)
		return NoPartitionTable, nil
	}
}
