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

// Package backup saves the sectors holding a GPT into a compressed stream
// and restores them as an in-memory device.
package backup

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/logger"
)

const (
	Magic   = "DPBK"
	Version = 1

	headerSize = 24

	// MaxImageSize bounds the device rebuilt by Read.
	MaxImageSize = 64 << 20
)

var (
	ErrBadMagic   = errors.New("not a diskprobe backup")
	ErrBadVersion = errors.New("unsupported backup version")
)

// Header opens every backup stream.
type Header struct {
	Version    uint16
	SectorSize uint32
	Count      uint32
	Created    time.Time
}

func (h *Header) encode() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint16(b[4:6], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.SectorSize)
	binary.LittleEndian.PutUint32(b[12:16], h.Count)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.Created.Unix()))
	return b
}

func decodeHeader(b []byte) (*Header, error) {
	if string(b[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	h := &Header{
		Version:    binary.LittleEndian.Uint16(b[4:6]),
		SectorSize: binary.LittleEndian.Uint32(b[8:12]),
		Count:      binary.LittleEndian.Uint32(b[12:16]),
		Created:    time.Unix(int64(binary.LittleEndian.Uint64(b[16:24])), 0).UTC(),
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if h.SectorSize < disk.MinSectorSize || h.SectorSize > disk.MaxSectorSize {
		return nil, fmt.Errorf("invalid sector size %d", h.SectorSize)
	}
	return h, nil
}

// Manifest describes a written backup.
type Manifest struct {
	Header
	LBAs         []uint64
	Info         *disk.DiskInfo
	BytesWritten int64
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// Writer produces GPT backups.
type Writer struct {
	io     *disk.SectorIO
	logger *slog.Logger
}

// NewWriter returns a Writer reading devices through sio.
func NewWriter(sio *disk.SectorIO, log *slog.Logger) *Writer {
	if sio == nil {
		sio = disk.NewSectorIO(nil, log)
	}
	return &Writer{io: sio, logger: logger.OrDiscard(log)}
}

// Write parses the GPT of path, then streams LBA0, LBA1 and the entry array
// sectors to w as a zstd compressed backup. The device is only read.
func (bw *Writer) Write(path string, w io.Writer) (*Manifest, error) {
	info, err := bw.io.ParseGPT(path)
	if err != nil {
		return nil, err
	}

	lbas := []uint64{0, 1}
	for i := uint64(0); i < info.EntryArraySectors(); i++ {
		lbas = append(lbas, info.EntryArrayLBA+i)
	}

	m := &Manifest{
		Header: Header{
			Version:    Version,
			SectorSize: info.SectorSize,
			Count:      uint32(len(lbas)),
			Created:    time.Now().UTC().Truncate(time.Second),
		},
		LBAs: lbas,
		Info: info,
	}

	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := bw.writeSectors(enc, path, m); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush backup: %w", err)
	}

	m.BytesWritten = cw.count
	bw.logger.Info("GPT backup written", "path", path, "sectors", len(lbas), "bytes", cw.count)
	return m, nil
}

func (bw *Writer) writeSectors(w io.Writer, path string, m *Manifest) error {
	if _, err := w.Write(m.Header.encode()); err != nil {
		return fmt.Errorf("failed to write backup header: %w", err)
	}

	buf := make([]byte, m.SectorSize)
	var lba [8]byte
	for _, l := range m.LBAs {
		n, err := bw.io.ReadSector(path, int64(l), buf)
		if err != nil {
			return err
		}
		if n != int(m.SectorSize) {
			return fmt.Errorf("sector size of %s changed from %d to %d", path, m.SectorSize, n)
		}

		binary.LittleEndian.PutUint64(lba[:], l)
		if _, err := w.Write(lba[:]); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
	}
	return nil
}

// Read decodes a backup stream and rebuilds a sparse device holding the
// saved sectors at their original LBAs. The device is suitable for
// disk.SectorIO through fs.MemOpener.
func Read(r io.Reader) (*Header, []byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)

	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(br, hb); err != nil {
		return nil, nil, fmt.Errorf("failed to read backup header: %w", err)
	}
	h, err := decodeHeader(hb)
	if err != nil {
		return nil, nil, err
	}

	type record struct {
		lba  uint64
		data []byte
	}

	maxSectors := MaxImageSize / uint64(h.SectorSize)
	if uint64(h.Count) > maxSectors {
		return nil, nil, fmt.Errorf("backup holds %d sectors, beyond the %d bytes limit", h.Count, MaxImageSize)
	}

	records := make([]record, 0, h.Count)
	var maxLBA uint64
	for i := uint32(0); i < h.Count; i++ {
		var lb [8]byte
		if _, err := io.ReadFull(br, lb[:]); err != nil {
			return nil, nil, fmt.Errorf("truncated backup at record %d: %w", i, err)
		}
		rec := record{lba: binary.LittleEndian.Uint64(lb[:]), data: make([]byte, h.SectorSize)}
		if rec.lba >= maxSectors {
			return nil, nil, fmt.Errorf("backup record %d at LBA %d, beyond the %d bytes limit", i, rec.lba, MaxImageSize)
		}
		if _, err := io.ReadFull(br, rec.data); err != nil {
			return nil, nil, fmt.Errorf("truncated backup at record %d: %w", i, err)
		}
		maxLBA = max(maxLBA, rec.lba)
		records = append(records, rec)
	}

	img := make([]byte, (maxLBA+1)*uint64(h.SectorSize))
	for _, rec := range records {
		copy(img[rec.lba*uint64(h.SectorSize):], rec.data)
	}
	return h, img, nil
}

// Open reads a backup and returns an opener serving the rebuilt image for
// any path.
func Open(r io.Reader) (*Header, fs.Opener, error) {
	h, img, err := Read(r)
	if err != nil {
		return nil, nil, err
	}
	return h, fs.MemOpener(img, h.SectorSize), nil
}
