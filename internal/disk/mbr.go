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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ostafen/diskprobe/pkg/util/format"
)

const (
	MBRSize = 512

	mbrPartitionTableOffset = 0x1BE
	mbrEntrySize            = 16
	mbrSignatureOffset      = 0x1FE

	// BootSignature is the little-endian value of bytes 510..511 (0x55 0xAA).
	BootSignature uint16 = 0xAA55
)

// MBRPartitionEntry represents a single 16-byte entry in the MBR's partition table.
// All multi-byte fields are stored as byte arrays to explicitly handle little-endian
// conversion when reading from the raw MBR byte slice.
type MBRPartitionEntry struct {
	BootIndicator uint8        // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte      // 0x01: Starting Cylinder-Head-Sector address
	PartitionType MBRPartition // 0x04: Partition type ID (e.g., 0x0B for FAT32, 0x83 for Linux)
	EndCHS        [3]byte      // 0x05: Ending Cylinder-Head-Sector address
	StartLBA      [4]byte      // 0x08: Starting Logical Block Address (LBA) - uint32, Little-Endian
	TotalSectors  [4]byte      // 0x0C: Total sectors in partition - uint32, Little-Endian
}

// ReadStartLBA returns the starting LBA of the partition.
func (p *MBRPartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

// ReadTotalSectors returns the total number of sectors in the partition.
func (p *MBRPartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

// Bootable reports whether the active flag is set.
func (p *MBRPartitionEntry) Bootable() bool {
	return p.BootIndicator == 0x80
}

// IsEmpty reports whether the slot describes no partition.
func (p *MBRPartitionEntry) IsEmpty() bool {
	return p.PartitionType == PartitionTypeEmpty || p.ReadTotalSectors() == 0
}

// Describe renders the entry as indented lines, sizing it with sectorSize.
func (p *MBRPartitionEntry) Describe(sectorSize uint32) string {
	bootable := "No"
	if p.Bootable() {
		bootable = "Yes"
	}
	size := uint64(p.ReadTotalSectors()) * uint64(sectorSize)
	return fmt.Sprintf("  Bootable: %s (0x%02X)\n"+
		"  Partition Type: 0x%02X (%s)\n"+
		"  Start LBA: %d\n"+
		"  Total Sectors: %d\n"+
		"  Size: %d bytes (%s)",
		bootable, p.BootIndicator,
		uint8(p.PartitionType), p.PartitionType.Name(),
		p.ReadStartLBA(),
		p.ReadTotalSectors(),
		size, format.FormatBytes(int64(size)))
}

// MBR represents the Master Boot Record structure.
type MBR struct {
	BootCode         [440]byte            // 0x000-0x1B7: Bootstrap code
	DiskSignature    [4]byte              // 0x1B8-0x1BB: Optional 32-bit disk signature
	Reserved         [2]byte              // 0x1BC-0x1BD: Usually 0x0000
	PartitionEntries [4]MBRPartitionEntry // 0x1BE-0x1FD: Four 16-byte partition entries
	Signature        [2]byte              // 0x1FE-0x1FF: MBR signature (0x55AA)
}

// ReadDiskSignature returns the disk signature as a uint32.
func (m *MBR) ReadDiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.DiskSignature[:])
}

// ReadSignature returns the MBR signature (should be 0xAA55).
func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// IsProtective reports whether the first entry carries the GPT protective type.
func (m *MBR) IsProtective() bool {
	return m.PartitionEntries[0].PartitionType == PartitionTypeGPT
}

// Partitions returns the used primary entries in slot order.
func (m *MBR) Partitions() []MBRPartitionInfo {
	parts := make([]MBRPartitionInfo, 0, len(m.PartitionEntries))
	for i := range m.PartitionEntries {
		e := &m.PartitionEntries[i]
		if e.IsEmpty() {
			continue
		}
		parts = append(parts, MBRPartitionInfo{
			Index:    i + 1,
			Bootable: e.Bootable(),
			Type:     uint8(e.PartitionType),
			TypeName: e.PartitionType.Name(),
			StartLBA: e.ReadStartLBA(),
			Sectors:  e.ReadTotalSectors(),
		})
	}
	return parts
}

// MBRPartitionInfo is the output projection of a used MBR slot.
type MBRPartitionInfo struct {
	Index    int    `json:"index" yaml:"index"`
	Bootable bool   `json:"bootable" yaml:"bootable"`
	Type     uint8  `json:"type" yaml:"type"`
	TypeName string `json:"typeName" yaml:"typeName"`
	StartLBA uint32 `json:"startLBA" yaml:"startLBA"`
	Sectors  uint32 `json:"sectors" yaml:"sectors"`
}

// Describe renders the MBR header and all four slots, used or not.
func (m *MBR) Describe(sectorSize uint32) string {
	s := fmt.Sprintf("--- Master Boot Record (MBR) ---\n"+
		"Disk Signature: 0x%08X\n"+
		"MBR Signature: 0x%04X (Expected: 0xAA55)\n\n"+
		"--- Partition Table Entries ---",
		m.ReadDiskSignature(), m.ReadSignature())

	for i, entry := range m.PartitionEntries {
		s += fmt.Sprintf("\nPartition %d:\n%s", i+1, entry.Describe(sectorSize))
	}
	return s
}

// HasBootSignature reports whether bytes 510..511 of sector hold 0x55 0xAA.
func HasBootSignature(sector []byte) bool {
	if len(sector) < MBRSize {
		return false
	}
	return binary.LittleEndian.Uint16(sector[mbrSignatureOffset:]) == BootSignature
}

// ProtectiveType returns the partition type byte of the first MBR slot.
func ProtectiveType(sector []byte) (MBRPartition, bool) {
	const off = mbrPartitionTableOffset + 4
	if len(sector) <= off {
		return 0, false
	}
	return MBRPartition(sector[off]), true
}

// ParseMBR decodes the first 512 bytes of data, which must hold at least one
// full MBR sector, and validates the boot signature.
func ParseMBR(data []byte) (*MBR, error) {
	if len(data) < MBRSize {
		return nil, newError("parse MBR", "", ParseError,
			fmt.Errorf("input data slice too short: expected %d bytes, got %d bytes", MBRSize, len(data)))
	}

	var mbr MBR

	copy(mbr.BootCode[:], data[0x000:0x1B8])
	copy(mbr.DiskSignature[:], data[0x1B8:0x1BC])
	copy(mbr.Reserved[:], data[0x1BC:0x1BE])

	for i := 0; i < 4; i++ {
		entryOffset := mbrPartitionTableOffset + (i * mbrEntrySize)
		entryBytes := data[entryOffset : entryOffset+mbrEntrySize]

		mbr.PartitionEntries[i].BootIndicator = entryBytes[0x00]
		copy(mbr.PartitionEntries[i].StartCHS[:], entryBytes[0x01:0x04])
		mbr.PartitionEntries[i].PartitionType = MBRPartition(entryBytes[0x04])
		copy(mbr.PartitionEntries[i].EndCHS[:], entryBytes[0x05:0x08])
		copy(mbr.PartitionEntries[i].StartLBA[:], entryBytes[0x08:0x0C])
		copy(mbr.PartitionEntries[i].TotalSectors[:], entryBytes[0x0C:0x10])
	}

	copy(mbr.Signature[:], data[mbrSignatureOffset:mbrSignatureOffset+2])

	if mbr.ReadSignature() != BootSignature {
		return nil, newError("parse MBR", "", SignatureMismatch,
			fmt.Errorf("expected 0xAA55, got 0x%04X", mbr.ReadSignature()))
	}
	return &mbr, nil
}

// ParseMBR reads LBA0 of path and decodes it as an MBR.
func (s *SectorIO) ParseMBR(path string) (*MBR, error) {
	sectorSize, err := s.QuerySectorSize(path)
	if err != nil {
		return nil, err
	}
	lba0, err := s.readLBA(path, 0, sectorSize)
	if err != nil {
		return nil, err
	}
	mbr, err := ParseMBR(lba0)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return nil, err
	}
	return mbr, nil
}

type MBRPartition uint8

const (
	PartitionTypeEmpty              MBRPartition = 0x00
	PartitionTypeFAT12              MBRPartition = 0x01
	PartitionTypeFAT16LessThan32MB  MBRPartition = 0x04
	PartitionTypeExtendedCHS        MBRPartition = 0x05
	PartitionTypeFAT16              MBRPartition = 0x06
	PartitionTypeNTFSHPFSexFAT      MBRPartition = 0x07
	PartitionTypeFAT32CHS           MBRPartition = 0x0B
	PartitionTypeFAT32LBA           MBRPartition = 0x0C
	PartitionTypeFAT16LBA           MBRPartition = 0x0E
	PartitionTypeExtendedLBA        MBRPartition = 0x0F
	PartitionTypeWindowsRE          MBRPartition = 0x27
	PartitionTypeLinuxSwap          MBRPartition = 0x82
	PartitionTypeLinuxFilesystem    MBRPartition = 0x83
	PartitionTypeLinuxExtended      MBRPartition = 0x85
	PartitionTypeLinuxLVM           MBRPartition = 0x8E
	PartitionTypeFreeBSD            MBRPartition = 0xA5
	PartitionTypeHFS                MBRPartition = 0xAF
	PartitionTypeGPT                MBRPartition = 0xEE
	PartitionTypeEFISystemPartition MBRPartition = 0xEF
	PartitionTypeLinuxRAID          MBRPartition = 0xFD
)

// Name maps common partition type IDs to names.
func (id MBRPartition) Name() string {
	switch id {
	case PartitionTypeEmpty:
		return "Empty"
	case PartitionTypeFAT12:
		return "FAT12"
	case PartitionTypeFAT16LessThan32MB:
		return "FAT16 (<32MB)"
	case PartitionTypeExtendedCHS:
		return "Extended (CHS)"
	case PartitionTypeFAT16:
		return "FAT16 (>32MB)"
	case PartitionTypeNTFSHPFSexFAT:
		return "NTFS/HPFS/exFAT"
	case PartitionTypeFAT32CHS:
		return "FAT32 (CHS)"
	case PartitionTypeFAT32LBA:
		return "FAT32 (LBA)"
	case PartitionTypeFAT16LBA:
		return "FAT16 (LBA)"
	case PartitionTypeExtendedLBA:
		return "Extended (LBA)"
	case PartitionTypeWindowsRE:
		return "Windows RE"
	case PartitionTypeLinuxSwap:
		return "Linux swap"
	case PartitionTypeLinuxFilesystem:
		return "Linux filesystem"
	case PartitionTypeLinuxExtended:
		return "Linux extended"
	case PartitionTypeLinuxLVM:
		return "Linux LVM"
	case PartitionTypeFreeBSD:
		return "FreeBSD"
	case PartitionTypeHFS:
		return "HFS/HFS+"
	case PartitionTypeGPT:
		return "GPT Protective MBR"
	case PartitionTypeEFISystemPartition:
		return "EFI System Partition"
	case PartitionTypeLinuxRAID:
		return "Linux RAID"
	default:
		return "Unknown"
	}
}
