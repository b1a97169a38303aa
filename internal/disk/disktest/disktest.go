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

// Package disktest synthesizes partitioned disk images for tests.
package disktest

import (
	"encoding/binary"
	"hash/crc32"
	"math/rand"

	"github.com/ostafen/diskprobe/internal/disk"
)

// GPTImage describes a GPT disk image. Zero values select a 512-byte sector,
// 128 entries of 128 bytes at LBA2 and a 2048-sector disk.
type GPTImage struct {
	SectorSize   uint32
	TotalSectors uint64
	DiskGUID     disk.GUID
	EntryLBA     uint64
	NumEntries   uint32
	EntrySize    uint32

	// Entries maps entry slots to partition entries.
	Entries map[int]disk.Entry

	// CorruptHeaderCRC and CorruptEntryCRC store wrong checksums.
	CorruptHeaderCRC bool
	CorruptEntryCRC  bool
}

func (g *GPTImage) defaults() {
	if g.SectorSize == 0 {
		g.SectorSize = 512
	}
	if g.TotalSectors == 0 {
		g.TotalSectors = 2048
	}
	if g.EntryLBA == 0 {
		g.EntryLBA = 2
	}
	if g.NumEntries == 0 && g.EntrySize == 0 {
		g.NumEntries = 128
	}
	if g.EntrySize == 0 {
		g.EntrySize = 128
	}
}

// EntryArraySectors returns the number of sectors holding the entry array.
func (g *GPTImage) EntryArraySectors() uint64 {
	g.defaults()
	total := uint64(g.NumEntries) * uint64(g.EntrySize)
	return (total + uint64(g.SectorSize) - 1) / uint64(g.SectorSize)
}

// Header returns the primary header the image is built with.
func (g *GPTImage) Header() disk.Header {
	g.defaults()
	h := disk.Header{
		Revision:       0x00010000,
		HeaderSize:     disk.HeaderMinSize,
		CurrentLBA:     1,
		BackupLBA:      g.TotalSectors - 1,
		FirstUsableLBA: g.EntryLBA + g.EntryArraySectors(),
		LastUsableLBA:  g.TotalSectors - 2 - g.EntryArraySectors(),
		DiskGUID:       g.DiskGUID,
		EntryLBA:       g.EntryLBA,
		NumEntries:     g.NumEntries,
		EntrySize:      g.EntrySize,
	}
	copy(h.Signature[:], disk.GPTSignature)
	return h
}

// Bytes renders the image: protective MBR, primary header and entry array.
func (g *GPTImage) Bytes() []byte {
	g.defaults()
	ss := uint64(g.SectorSize)
	img := make([]byte, g.TotalSectors*ss)

	WriteProtectiveMBR(img[:ss], g.TotalSectors)

	entries := make([]byte, uint64(g.NumEntries)*uint64(g.EntrySize))
	for slot, e := range g.Entries {
		off := slot * int(g.EntrySize)
		e.Encode(entries[off : off+int(g.EntrySize)])
	}
	copy(img[g.EntryLBA*ss:], entries)

	h := g.Header()
	h.EntryArrayCRC = crc32.ChecksumIEEE(entries)
	if g.CorruptEntryCRC {
		h.EntryArrayCRC ^= 0xFFFFFFFF
	}
	lba1 := img[ss : 2*ss]
	h.Encode(lba1)
	h.HeaderCRC32 = crc32.ChecksumIEEE(lba1[:h.HeaderSize])
	if g.CorruptHeaderCRC {
		h.HeaderCRC32 ^= 0xFFFFFFFF
	}
	binary.LittleEndian.PutUint32(lba1[16:20], h.HeaderCRC32)
	return img
}

// WriteProtectiveMBR writes a protective MBR covering totalSectors into sector.
func WriteProtectiveMBR(sector []byte, totalSectors uint64) {
	size := totalSectors - 1
	if size > 0xFFFFFFFF {
		size = 0xFFFFFFFF
	}
	WriteMBR(sector, MBRPartition{Type: disk.PartitionTypeGPT, StartLBA: 1, Sectors: uint32(size)})
}

// MBRPartition describes a primary MBR slot.
type MBRPartition struct {
	Bootable bool
	Type     disk.MBRPartition
	StartLBA uint32
	Sectors  uint32
}

// WriteMBR writes up to four primary entries and the boot signature into sector.
func WriteMBR(sector []byte, parts ...MBRPartition) {
	for i, p := range parts[:min(len(parts), 4)] {
		e := sector[0x1BE+16*i : 0x1BE+16*(i+1)]
		if p.Bootable {
			e[0] = 0x80
		}
		e[4] = byte(p.Type)
		binary.LittleEndian.PutUint32(e[8:12], p.StartLBA)
		binary.LittleEndian.PutUint32(e[12:16], p.Sectors)
	}
	sector[510] = 0x55
	sector[511] = 0xAA
}

// MBRImage returns a totalSectors image of sectorSize bytes per sector with
// the given primary partitions.
func MBRImage(sectorSize uint32, totalSectors uint64, parts ...MBRPartition) []byte {
	img := make([]byte, uint64(sectorSize)*totalSectors)
	WriteMBR(img[:sectorSize], parts...)
	return img
}

// NewEntry returns an entry of the given type spanning [first, last].
func NewEntry(typ disk.GUID, first, last uint64, name string) disk.Entry {
	e := disk.Entry{
		TypeGUID:   typ,
		UniqueGUID: RandomGUID(),
		FirstLBA:   first,
		LastLBA:    last,
	}
	e.SetName(name)
	return e
}

// RandomGUID returns a random non-zero GUID.
func RandomGUID() disk.GUID {
	var g disk.GUID
	for g.IsZero() {
		_, _ = rand.Read(g[:])
	}
	return g
}
