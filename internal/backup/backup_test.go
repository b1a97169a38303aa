package backup_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ostafen/diskprobe/internal/backup"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/disk/disktest"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	for _, ss := range []uint32{512, 4096} {
		img := &disktest.GPTImage{
			SectorSize:   ss,
			TotalSectors: 512,
			DiskGUID:     disktest.RandomGUID(),
			Entries: map[int]disk.Entry{
				0: disktest.NewEntry(disk.TypeEFISystem, 40, 100, "EFI"),
				9: disktest.NewEntry(disk.TypeLinuxLVM, 101, 400, "lvm"),
			},
		}
		src := disk.NewSectorIO(fs.MemOpener(img.Bytes(), ss), nil)

		var buf bytes.Buffer
		m, err := backup.NewWriter(src, nil).Write("disk", &buf)
		require.NoError(t, err)
		require.EqualValues(t, ss, m.SectorSize)
		require.EqualValues(t, 2+img.EntryArraySectors(), m.Count)
		require.Len(t, m.LBAs, int(m.Count))
		require.EqualValues(t, buf.Len(), m.BytesWritten)

		h, opener, err := backup.Open(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		require.Equal(t, m.Header, *h)

		restored, err := disk.NewSectorIO(opener, nil).ParseGPT("backup")
		require.NoError(t, err)
		require.Equal(t, m.Info.GUID, restored.GUID)
		require.Equal(t, m.Info.Partitions, restored.Partitions)
		require.True(t, restored.HeaderCRCValid)
		require.True(t, restored.EntryArrayCRCValid)

		typ, err := disk.NewSectorIO(opener, nil).Classify("backup")
		require.NoError(t, err)
		require.Equal(t, disk.GPTTable, typ)
	}
}

func TestWriteNotGPT(t *testing.T) {
	mbr := disktest.MBRImage(512, 64, disktest.MBRPartition{Type: disk.PartitionTypeFAT32LBA, StartLBA: 1, Sectors: 63})
	var buf bytes.Buffer
	_, err := backup.NewWriter(disk.NewSectorIO(fs.MemOpener(mbr, 512), nil), nil).Write("disk", &buf)
	require.ErrorIs(t, err, disk.ErrParse)
	require.Zero(t, buf.Len())
}

func compress(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestReadInvalid(t *testing.T) {
	_, _, err := backup.Read(bytes.NewReader(compress(t, []byte("XXXX0000000000000000000000000000"))))
	require.ErrorIs(t, err, backup.ErrBadMagic)

	_, _, err = backup.Read(bytes.NewReader(compress(t, []byte("DPBK"))))
	require.Error(t, err)

	_, _, err = backup.Read(bytes.NewReader([]byte("not zstd at all")))
	require.Error(t, err)

	img := &disktest.GPTImage{}
	var buf bytes.Buffer
	_, err = backup.NewWriter(disk.NewSectorIO(fs.MemOpener(img.Bytes(), 512), nil), nil).Write("disk", &buf)
	require.NoError(t, err)

	dec, err := zstd.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	raw, err := io.ReadAll(dec)
	dec.Close()
	require.NoError(t, err)

	_, _, err = backup.Read(bytes.NewReader(compress(t, raw[:len(raw)-100])))
	require.ErrorContains(t, err, "truncated backup")

	huge := append([]byte(nil), raw[:24]...)
	binary.LittleEndian.PutUint32(huge[12:16], 0xFFFFFFFF)
	_, _, err = backup.Read(bytes.NewReader(compress(t, huge)))
	require.ErrorContains(t, err, "beyond the")

	farLBA := append([]byte(nil), raw...)
	binary.LittleEndian.PutUint64(farLBA[24:32], 1<<40)
	_, _, err = backup.Read(bytes.NewReader(compress(t, farLBA)))
	require.ErrorContains(t, err, "beyond the")

	raw[4] = 9
	_, _, err = backup.Read(bytes.NewReader(compress(t, raw)))
	require.ErrorIs(t, err, backup.ErrBadVersion)
}
