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
	"fmt"
	"math"
	"strings"
)

// GPT partition attribute bits.
const (
	AttrRequired       uint64 = 1 << 0
	AttrNoBlockIO      uint64 = 1 << 1
	AttrLegacyBootable uint64 = 1 << 2
)

// DiskInfo is the read-only result of ParseGPT. It owns no OS resources.
type DiskInfo struct {
	Path               string          `json:"path" yaml:"path"`
	SectorSize         uint32          `json:"sectorSize" yaml:"sectorSize"`
	GUID               GUID            `json:"guid" yaml:"guid"`
	Revision           uint32          `json:"revision" yaml:"revision"`
	HeaderSize         uint32          `json:"headerSize" yaml:"headerSize"`
	HeaderLBA          uint64          `json:"headerLBA" yaml:"headerLBA"`
	BackupHeaderLBA    uint64          `json:"backupHeaderLBA" yaml:"backupHeaderLBA"`
	FirstUsableLBA     uint64          `json:"firstUsableLBA" yaml:"firstUsableLBA"`
	LastUsableLBA      uint64          `json:"lastUsableLBA" yaml:"lastUsableLBA"`
	EntryArrayLBA      uint64          `json:"entryArrayLBA" yaml:"entryArrayLBA"`
	EntryCount         uint32          `json:"entryCount" yaml:"entryCount"`
	EntrySize          uint32          `json:"entrySize" yaml:"entrySize"`
	HeaderCRCValid     bool            `json:"headerCRCValid" yaml:"headerCRCValid"`
	EntryArrayCRCValid bool            `json:"entryArrayCRCValid" yaml:"entryArrayCRCValid"`
	Partitions         []PartitionInfo `json:"partitions" yaml:"partitions"`
}

func newDiskInfo(path string, sectorSize uint32, h *Header) *DiskInfo {
	return &DiskInfo{
		Path:            path,
		SectorSize:      sectorSize,
		GUID:            h.DiskGUID,
		Revision:        h.Revision,
		HeaderSize:      h.HeaderSize,
		HeaderLBA:       h.CurrentLBA,
		BackupHeaderLBA: h.BackupLBA,
		FirstUsableLBA:  h.FirstUsableLBA,
		LastUsableLBA:   h.LastUsableLBA,
		EntryArrayLBA:   h.EntryLBA,
		EntryCount:      h.NumEntries,
		EntrySize:       h.EntrySize,
		Partitions:      []PartitionInfo{},
	}
}

// EntryArraySectors is the number of sectors covering the entry array.
func (d *DiskInfo) EntryArraySectors() uint64 {
	if d.SectorSize == 0 {
		return 0
	}
	total := uint64(d.EntryCount) * uint64(d.EntrySize)
	return (total + uint64(d.SectorSize) - 1) / uint64(d.SectorSize)
}

// PartitionInfo describes one used GPT entry.
type PartitionInfo struct {
	// Index is the zero-based slot of the entry in the entry array.
	Index      int    `json:"index" yaml:"index"`
	TypeGUID   GUID   `json:"typeGuid" yaml:"typeGuid"`
	UniqueGUID GUID   `json:"uniqueGuid" yaml:"uniqueGuid"`
	FirstLBA   uint64 `json:"firstLBA" yaml:"firstLBA"`
	LastLBA    uint64 `json:"lastLBA" yaml:"lastLBA"`
	Attributes uint64 `json:"attributes" yaml:"attributes"`
	Name       string `json:"name" yaml:"name"`
	Label      string `json:"label" yaml:"label"`
	TypeName   string `json:"typeName" yaml:"typeName"`
}

func newPartitionInfo(slot int, e *Entry) PartitionInfo {
	name := e.PartitionName()
	label := name
	if label == "" {
		label = NoNameLabel
	}
	return PartitionInfo{
		Index:      slot,
		TypeGUID:   e.TypeGUID,
		UniqueGUID: e.UniqueGUID,
		FirstLBA:   e.FirstLBA,
		LastLBA:    e.LastLBA,
		Attributes: e.Attributes,
		Name:       name,
		Label:      label,
		TypeName:   TypeName(e.TypeGUID),
	}
}

// Sectors returns the number of sectors spanned by the partition, 0 if the
// extent is inverted.
func (p *PartitionInfo) Sectors() uint64 {
	if p.LastLBA < p.FirstLBA {
		return 0
	}
	return p.LastLBA - p.FirstLBA + 1
}

// Offset returns the byte offset of the partition.
func (p *PartitionInfo) Offset(sectorSize uint32) uint64 {
	return p.FirstLBA * uint64(sectorSize)
}

// Size returns the partition size in bytes.
func (p *PartitionInfo) Size(sectorSize uint32) uint64 {
	return p.Sectors() * uint64(sectorSize)
}

// Extent returns the byte offset and size of the partition. ok is false when
// the extent does not fit in an int64 byte range.
func (p *PartitionInfo) Extent(sectorSize uint32) (offset, size uint64, ok bool) {
	ss := uint64(sectorSize)
	if ss == 0 {
		return 0, 0, false
	}
	limit := uint64(math.MaxInt64) / ss
	sectors := p.Sectors()
	if p.FirstLBA > limit || sectors > limit-p.FirstLBA {
		return 0, 0, false
	}
	return p.FirstLBA * ss, sectors * ss, true
}

// AttributeNames lists the names of the set common attribute bits.
func (p *PartitionInfo) AttributeNames() []string {
	var names []string
	if p.Attributes&AttrRequired != 0 {
		names = append(names, "required")
	}
	if p.Attributes&AttrNoBlockIO != 0 {
		names = append(names, "no-block-io")
	}
	if p.Attributes&AttrLegacyBootable != 0 {
		names = append(names, "legacy-bootable")
	}
	if typeBits := p.Attributes >> 48; typeBits != 0 {
		names = append(names, fmt.Sprintf("type-specific=0x%04X", typeBits))
	}
	return names
}

// FileName returns a file name for the partition of the form NN-label.img,
// with path separators and control characters replaced.
func (p *PartitionInfo) FileName() string {
	label := p.Name
	if label == "" {
		label = "partition"
	}
	label = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < 0x20:
			return '_'
		default:
			return r
		}
	}, label)
	return fmt.Sprintf("%02d-%s.img", p.Index+1, label)
}
