package disk_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/disk/disktest"
	"github.com/stretchr/testify/require"
)

func TestParseGPT(t *testing.T) {
	diskGUID := disk.MustParseGUID("6A1B1C2D-3E4F-5061-7283-94A5B6C7D8E9")
	img := &disktest.GPTImage{
		DiskGUID: diskGUID,
		Entries: map[int]disk.Entry{
			127: disktest.NewEntry(disk.TypeLinuxSwap, 1800, 2000, "swap"),
			0:   disktest.NewEntry(disk.TypeEFISystem, 34, 99, "EFI system partition"),
			5:   disktest.NewEntry(disk.TypeLinuxFilesystem, 100, 1799, ""),
		},
	}
	data := img.Bytes()

	o := &trackingOpener{data: data, sectorSize: 512}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	o.requireAllClosed(t)

	require.Equal(t, diskGUID, info.GUID)
	require.Equal(t, "6A1B1C2D-3E4F-5061-7283-94A5B6C7D8E9", info.GUID.String())
	require.EqualValues(t, 512, info.SectorSize)
	require.EqualValues(t, 1, info.HeaderLBA)
	require.EqualValues(t, 2047, info.BackupHeaderLBA)
	require.EqualValues(t, 2, info.EntryArrayLBA)
	require.EqualValues(t, 128, info.EntryCount)
	require.EqualValues(t, 128, info.EntrySize)
	require.EqualValues(t, 34, info.FirstUsableLBA)
	require.EqualValues(t, 32, info.EntryArraySectors())
	require.True(t, info.HeaderCRCValid)
	require.True(t, info.EntryArrayCRCValid)

	entrySeeks := 0
	for _, d := range o.devices {
		for _, off := range d.seeks {
			if off >= 2*512 {
				require.Less(t, off, int64(34*512))
				entrySeeks++
			}
		}
	}
	require.Equal(t, 32, entrySeeks)

	require.Len(t, info.Partitions, 3)
	require.Equal(t, []int{0, 5, 127}, []int{info.Partitions[0].Index, info.Partitions[1].Index, info.Partitions[2].Index})

	esp := info.Partitions[0]
	require.Equal(t, disk.TypeEFISystem, esp.TypeGUID)
	require.Equal(t, "C12A7328-F81F-11D2-BA4B-00A0C93EC93B", esp.TypeGUID.String())
	require.Equal(t, img.Entries[0].UniqueGUID, esp.UniqueGUID)
	require.Equal(t, "EFI system partition", esp.Name)
	require.Equal(t, esp.Name, esp.Label)
	require.Equal(t, "EFI System", esp.TypeName)
	require.EqualValues(t, 34, esp.FirstLBA)
	require.EqualValues(t, 99, esp.LastLBA)
	require.EqualValues(t, 66, esp.Sectors())

	unnamed := info.Partitions[1]
	require.Empty(t, unnamed.Name)
	require.Equal(t, disk.NoNameLabel, unnamed.Label)
	require.Equal(t, "Linux filesystem", unnamed.TypeName)
}

func TestParseGPTLargeSectors(t *testing.T) {
	img := &disktest.GPTImage{
		SectorSize:   4096,
		TotalSectors: 64,
		Entries: map[int]disk.Entry{
			1: disktest.NewEntry(disk.TypeMicrosoftBasicData, 6, 60, "Data"),
		},
	}
	o := &trackingOpener{data: img.Bytes(), sectorSize: 4096}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.EqualValues(t, 4, info.EntryArraySectors())
	require.Len(t, info.Partitions, 1)
	require.Equal(t, "Data", info.Partitions[0].Name)
	require.Equal(t, "Microsoft basic data", info.Partitions[0].TypeName)
	require.EqualValues(t, 6*4096, info.Partitions[0].Offset(info.SectorSize))
}

func TestPartitionExtent(t *testing.T) {
	p := disk.PartitionInfo{FirstLBA: 2048, LastLBA: 4095}
	off, size, ok := p.Extent(4096)
	require.True(t, ok)
	require.EqualValues(t, 2048*4096, off)
	require.EqualValues(t, 2048*4096, size)

	p = disk.PartitionInfo{FirstLBA: math.MaxUint64 / 512, LastLBA: math.MaxUint64/512 + 1}
	_, _, ok = p.Extent(512)
	require.False(t, ok)

	p = disk.PartitionInfo{FirstLBA: 1, LastLBA: math.MaxInt64 / 512}
	_, _, ok = p.Extent(512)
	require.False(t, ok)

	_, _, ok = (&disk.PartitionInfo{FirstLBA: 1, LastLBA: 1}).Extent(0)
	require.False(t, ok)
}

func TestParseGPTZeroTypeExcluded(t *testing.T) {
	e := disktest.NewEntry(disk.GUID{}, 34, 100, "ghost")
	img := &disktest.GPTImage{Entries: map[int]disk.Entry{3: e}}

	o := &trackingOpener{data: img.Bytes(), sectorSize: 512}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.Empty(t, info.Partitions)

	var single disk.GUID
	single[15] = 1
	img.Entries[3] = disktest.NewEntry(single, 34, 100, "one byte")
	o = &trackingOpener{data: img.Bytes(), sectorSize: 512}
	info, err = newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.Len(t, info.Partitions, 1)
	require.Equal(t, "Unknown", info.Partitions[0].TypeName)
}

func TestParseGPTChecksumMismatch(t *testing.T) {
	img := &disktest.GPTImage{
		CorruptHeaderCRC: true,
		CorruptEntryCRC:  true,
		Entries: map[int]disk.Entry{
			0: disktest.NewEntry(disk.TypeLinuxFilesystem, 34, 100, "root"),
		},
	}
	o := &trackingOpener{data: img.Bytes(), sectorSize: 512}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.False(t, info.HeaderCRCValid)
	require.False(t, info.EntryArrayCRCValid)
	require.Len(t, info.Partitions, 1)
}

func TestParseGPTNoEntries(t *testing.T) {
	img := &disktest.GPTImage{EntrySize: 128}
	o := &trackingOpener{data: img.Bytes(), sectorSize: 512}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.Empty(t, info.Partitions)
	require.NotNil(t, info.Partitions)
}

func TestParseGPTUTF16Names(t *testing.T) {
	names := []string{"Données", "数据分区", "emoji 💾 disk", "abcdefghijklmnopqrstuvwxyz0123456789"}
	entries := map[int]disk.Entry{}
	for i, name := range names {
		entries[i] = disktest.NewEntry(disk.TypeLinuxFilesystem, uint64(100+i*10), uint64(109+i*10), name)
	}
	o := &trackingOpener{data: (&disktest.GPTImage{Entries: entries}).Bytes(), sectorSize: 512}
	info, err := newIO(o).ParseGPT("disk")
	require.NoError(t, err)
	require.Len(t, info.Partitions, len(names))
	for i, name := range names {
		require.Equal(t, name, info.Partitions[i].Name)
	}
}

func TestParseGPTErrors(t *testing.T) {
	t.Run("not a protective MBR", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()
		data[0x1BE+4] = byte(disk.PartitionTypeLinuxFilesystem)
		o := &trackingOpener{data: data, sectorSize: 512}
		info, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrParse)
		require.Nil(t, info)
		o.requireAllClosed(t)
	})

	t.Run("bad header signature", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()
		copy(data[512:], "EFI PARX")
		o := &trackingOpener{data: data, sectorSize: 512}
		_, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrSignatureMismatch)

		var derr *disk.Error
		require.ErrorAs(t, err, &derr)
		require.Equal(t, "disk", derr.Path)
	})

	t.Run("entry size too small", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()
		binary.LittleEndian.PutUint32(data[512+84:], 64)
		o := &trackingOpener{data: data, sectorSize: 512}
		_, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrParse)
	})

	t.Run("entry array too large", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()
		binary.LittleEndian.PutUint32(data[512+80:], math.MaxUint32)
		o := &trackingOpener{data: data, sectorSize: 512}
		_, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrParse)
	})

	t.Run("entry LBA overflow", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()
		binary.LittleEndian.PutUint64(data[512+72:], math.MaxUint64-4)
		o := &trackingOpener{data: data, sectorSize: 512}
		_, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrOverflow)
	})

	t.Run("truncated entry array", func(t *testing.T) {
		data := (&disktest.GPTImage{}).Bytes()[:512*10]
		o := &trackingOpener{data: data, sectorSize: 512}
		info, err := newIO(o).ParseGPT("disk")
		require.ErrorIs(t, err, disk.ErrReadFailed)
		require.Nil(t, info)
		o.requireAllClosed(t)
	})
}

func TestHeaderRoundTrip(t *testing.T) {
	img := &disktest.GPTImage{DiskGUID: disktest.RandomGUID()}
	want := img.Header()

	buf := make([]byte, disk.HeaderMinSize)
	want.Encode(buf)
	got, err := disk.DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	_, err = disk.DecodeHeader(buf[:40])
	require.ErrorIs(t, err, disk.ErrParse)
}
