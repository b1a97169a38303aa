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

package fuse

import (
	"log/slog"
	"math"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/logger"
	"github.com/ostafen/diskprobe/pkg/dfxml"
)

// FileEntry is a byte range of the device exposed as a read-only file.
type FileEntry struct {
	Name   string
	Offset uint64
	Size   uint64
}

// PartitionEntries returns one file per partition of info. Extents reaching
// beyond deviceSize are truncated, and empty ones are skipped. A zero
// deviceSize disables the bound.
func PartitionEntries(info *disk.DiskInfo, deviceSize uint64, log *slog.Logger) []FileEntry {
	log = logger.OrDiscard(log)
	entries := make([]FileEntry, 0, len(info.Partitions))
	for _, p := range info.Partitions {
		off, size, ok := p.Extent(info.SectorSize)
		if !ok {
			log.Warn("partition extent overflows", "name", p.FileName(), "first_lba", p.FirstLBA, "last_lba", p.LastLBA)
			continue
		}
		e := FileEntry{Name: p.FileName(), Offset: off, Size: size}
		if e, ok := clamp(e, deviceSize, log); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// VolumeEntries returns one file per report volume, located by its first
// byte run.
func VolumeEntries(volumes []dfxml.Volume, deviceSize uint64, log *slog.Logger) []FileEntry {
	log = logger.OrDiscard(log)
	entries := make([]FileEntry, 0, len(volumes))
	for _, v := range volumes {
		if len(v.ByteRuns.Runs) == 0 {
			log.Warn("volume has no byte runs", "name", v.Filename)
			continue
		}
		run := v.ByteRuns.Runs[0]
		e := FileEntry{Name: v.Filename, Offset: run.ImgOffset, Size: run.Length}
		if e, ok := clamp(e, deviceSize, log); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func clamp(e FileEntry, deviceSize uint64, log *slog.Logger) (FileEntry, bool) {
	if e.Name == "" || e.Size == 0 {
		return e, false
	}
	if e.Offset > math.MaxInt64 || e.Size > math.MaxInt64-e.Offset {
		log.Warn("partition extent overflows", "name", e.Name, "offset", e.Offset, "size", e.Size)
		return e, false
	}
	if deviceSize == 0 {
		return e, true
	}
	if e.Offset >= deviceSize {
		log.Warn("partition starts beyond the end of the device", "name", e.Name, "offset", e.Offset)
		return e, false
	}
	if e.Size > deviceSize-e.Offset {
		log.Warn("partition truncated to the device size", "name", e.Name, "size", e.Size)
		e.Size = deviceSize - e.Offset
	}
	return e, true
}
