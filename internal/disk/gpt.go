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
	"hash/crc32"
	"math"
	"unicode/utf16"
)

const (
	// HeaderMinSize is the length of the defined part of a GPT header.
	HeaderMinSize = 92

	// EntryMinSize is the smallest entry size allowed by the GPT layout.
	EntryMinSize = 128

	// MaxEntryArraySize bounds the entry array read by ParseGPT.
	MaxEntryArraySize = 16 << 20

	entryNameOffset = 56
	entryNameSize   = 72

	// NoNameLabel is the label of partitions with an empty name.
	NoNameLabel = "<No Name>"
)

// Header is a decoded GPT header. All fields are little-endian on disk.
type Header struct {
	Signature      [8]byte
	Revision       uint32
	HeaderSize     uint32
	HeaderCRC32    uint32
	Reserved       uint32
	CurrentLBA     uint64
	BackupLBA      uint64
	FirstUsableLBA uint64
	LastUsableLBA  uint64
	DiskGUID       GUID
	EntryLBA       uint64
	NumEntries     uint32
	EntrySize      uint32
	EntryArrayCRC  uint32
}

// DecodeHeader decodes a GPT header from the first HeaderMinSize bytes of b
// and checks its signature.
func DecodeHeader(b []byte) (*Header, error) {
	if len(b) < HeaderMinSize {
		return nil, newError("decode GPT header", "", ParseError,
			fmt.Errorf("need %d bytes, got %d", HeaderMinSize, len(b)))
	}

	var h Header
	copy(h.Signature[:], b[0:8])
	if !hasGPTSignature(h.Signature[:]) {
		return nil, newError("decode GPT header", "", SignatureMismatch,
			fmt.Errorf("expected %q, got %q", GPTSignature, h.Signature[:]))
	}

	le := binary.LittleEndian
	h.Revision = le.Uint32(b[8:12])
	h.HeaderSize = le.Uint32(b[12:16])
	h.HeaderCRC32 = le.Uint32(b[16:20])
	h.Reserved = le.Uint32(b[20:24])
	h.CurrentLBA = le.Uint64(b[24:32])
	h.BackupLBA = le.Uint64(b[32:40])
	h.FirstUsableLBA = le.Uint64(b[40:48])
	h.LastUsableLBA = le.Uint64(b[48:56])
	copy(h.DiskGUID[:], b[56:72])
	h.EntryLBA = le.Uint64(b[72:80])
	h.NumEntries = le.Uint32(b[80:84])
	h.EntrySize = le.Uint32(b[84:88])
	h.EntryArrayCRC = le.Uint32(b[88:92])
	return &h, nil
}

// Encode writes h into the first HeaderMinSize bytes of b.
func (h *Header) Encode(b []byte) {
	le := binary.LittleEndian
	copy(b[0:8], h.Signature[:])
	le.PutUint32(b[8:12], h.Revision)
	le.PutUint32(b[12:16], h.HeaderSize)
	le.PutUint32(b[16:20], h.HeaderCRC32)
	le.PutUint32(b[20:24], h.Reserved)
	le.PutUint64(b[24:32], h.CurrentLBA)
	le.PutUint64(b[32:40], h.BackupLBA)
	le.PutUint64(b[40:48], h.FirstUsableLBA)
	le.PutUint64(b[48:56], h.LastUsableLBA)
	copy(b[56:72], h.DiskGUID[:])
	le.PutUint64(b[72:80], h.EntryLBA)
	le.PutUint32(b[80:84], h.NumEntries)
	le.PutUint32(b[84:88], h.EntrySize)
	le.PutUint32(b[88:92], h.EntryArrayCRC)
}

// HeaderChecksum computes the CRC32 of the first HeaderSize bytes of sector
// with the CRC field zeroed. It returns false if HeaderSize does not fit.
func HeaderChecksum(sector []byte, headerSize uint32) (uint32, bool) {
	if headerSize < HeaderMinSize || uint64(headerSize) > uint64(len(sector)) {
		return 0, false
	}
	hdr := make([]byte, headerSize)
	copy(hdr, sector)
	clear(hdr[16:20])
	return crc32.ChecksumIEEE(hdr), true
}

// EntryArraySize returns NumEntries * EntrySize.
func (h *Header) EntryArraySize() uint64 {
	return uint64(h.NumEntries) * uint64(h.EntrySize)
}

// Entry is a decoded GPT partition entry.
type Entry struct {
	TypeGUID   GUID
	UniqueGUID GUID
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Name       [entryNameSize]byte
}

// DecodeEntry decodes a partition entry from the first EntryMinSize bytes of b.
func DecodeEntry(b []byte) (*Entry, error) {
	if len(b) < EntryMinSize {
		return nil, newError("decode GPT entry", "", ParseError,
			fmt.Errorf("need %d bytes, got %d", EntryMinSize, len(b)))
	}

	var e Entry
	copy(e.TypeGUID[:], b[0:16])
	copy(e.UniqueGUID[:], b[16:32])
	e.FirstLBA = binary.LittleEndian.Uint64(b[32:40])
	e.LastLBA = binary.LittleEndian.Uint64(b[40:48])
	e.Attributes = binary.LittleEndian.Uint64(b[48:56])
	copy(e.Name[:], b[entryNameOffset:entryNameOffset+entryNameSize])
	return &e, nil
}

// Encode writes e into the first EntryMinSize bytes of b.
func (e *Entry) Encode(b []byte) {
	copy(b[0:16], e.TypeGUID[:])
	copy(b[16:32], e.UniqueGUID[:])
	binary.LittleEndian.PutUint64(b[32:40], e.FirstLBA)
	binary.LittleEndian.PutUint64(b[40:48], e.LastLBA)
	binary.LittleEndian.PutUint64(b[48:56], e.Attributes)
	copy(b[entryNameOffset:entryNameOffset+entryNameSize], e.Name[:])
}

// IsUsed reports whether the entry describes a partition.
func (e *Entry) IsUsed() bool {
	return !e.TypeGUID.IsZero()
}

// PartitionName decodes the UTF-16LE name, stopping at the first NUL code unit.
func (e *Entry) PartitionName() string {
	return decodeUTF16LE(e.Name[:])
}

// SetName stores name as UTF-16LE, truncated to 36 code units.
func (e *Entry) SetName(name string) {
	clear(e.Name[:])
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		if 2*i+1 >= len(e.Name) {
			break
		}
		binary.LittleEndian.PutUint16(e.Name[2*i:], u)
	}
}

func decodeUTF16LE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// ParseGPT calls ParseGPT on the default SectorIO.
func ParseGPT(path string) (*DiskInfo, error) {
	return defaultIO.ParseGPT(path)
}

// ParseGPT decodes the GPT of path. The device is expected to have been
// classified as GPT; the protective MBR and the header signature are still
// checked. CRC mismatches are reported in the result and logged, they do not
// fail the parse. On error no partial result is returned.
func (s *SectorIO) ParseGPT(path string) (*DiskInfo, error) {
	const op = "parse GPT"

	sectorSize, err := s.QuerySectorSize(path)
	if err != nil {
		return nil, err
	}

	lba0, err := s.readLBA(path, 0, sectorSize)
	if err != nil {
		return nil, err
	}
	if typ, ok := ProtectiveType(lba0); !ok || typ != PartitionTypeGPT {
		return nil, newError(op, path, ParseError,
			fmt.Errorf("LBA0 is not a protective MBR (type 0x%02X)", uint8(typ)))
	}

	lba1, err := s.readLBA(path, 1, sectorSize)
	if err != nil {
		return nil, err
	}
	hdr, err := DecodeHeader(lba1)
	if err != nil {
		return nil, withPath(err, path)
	}

	info := newDiskInfo(path, sectorSize, hdr)

	if sum, ok := HeaderChecksum(lba1, hdr.HeaderSize); ok {
		info.HeaderCRCValid = sum == hdr.HeaderCRC32
	}
	if !info.HeaderCRCValid {
		s.logger.Warn("GPT header checksum mismatch", "path", path, "stored", hdr.HeaderCRC32)
	}

	if hdr.NumEntries == 0 {
		info.EntryArrayCRCValid = hdr.EntryArrayCRC == crc32.ChecksumIEEE(nil)
		return info, nil
	}

	entries, err := s.readEntryArray(path, hdr, sectorSize)
	if err != nil {
		return nil, err
	}

	info.EntryArrayCRCValid = crc32.ChecksumIEEE(entries) == hdr.EntryArrayCRC
	if !info.EntryArrayCRCValid {
		s.logger.Warn("GPT entry array checksum mismatch", "path", path, "stored", hdr.EntryArrayCRC)
	}

	for i := 0; i < int(hdr.NumEntries); i++ {
		off := i * int(hdr.EntrySize)
		e, err := DecodeEntry(entries[off : off+int(hdr.EntrySize)])
		if err != nil {
			return nil, withPath(err, path)
		}
		if !e.IsUsed() {
			continue
		}
		info.Partitions = append(info.Partitions, newPartitionInfo(i, e))
	}

	s.logger.Debug("GPT parsed", "path", path, "partitions", len(info.Partitions))
	return info, nil
}

// readEntryArray reads the sectors covering the entry array and returns
// exactly NumEntries * EntrySize bytes.
func (s *SectorIO) readEntryArray(path string, hdr *Header, sectorSize uint32) ([]byte, error) {
	const op = "parse GPT"

	if hdr.EntrySize < EntryMinSize {
		return nil, newError(op, path, ParseError,
			fmt.Errorf("entry size %d is below %d bytes", hdr.EntrySize, EntryMinSize))
	}
	total := hdr.EntryArraySize()
	if total > MaxEntryArraySize {
		return nil, newError(op, path, ParseError,
			fmt.Errorf("entry array of %d bytes exceeds %d bytes", total, MaxEntryArraySize))
	}

	sectors := (total + uint64(sectorSize) - 1) / uint64(sectorSize)
	if hdr.EntryLBA > math.MaxInt64-sectors {
		return nil, newError(op, path, OverflowError,
			fmt.Errorf("entry array at LBA %d spanning %d sectors overflows", hdr.EntryLBA, sectors))
	}

	buf := make([]byte, 0, sectors*uint64(sectorSize))
	for i := uint64(0); i < sectors; i++ {
		sector, err := s.readLBA(path, hdr.EntryLBA+i, sectorSize)
		if err != nil {
			return nil, err
		}
		buf = append(buf, sector...)
	}
	return buf[:total], nil
}

func withPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}
