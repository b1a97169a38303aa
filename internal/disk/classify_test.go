package disk_test

import (
	"errors"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/disk/disktest"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

func twoSectorImage(sectorSize int, lba0Boot, lba0GPT, lba1GPT bool) []byte {
	img := make([]byte, sectorSize*4)
	if lba0Boot {
		img[510] = 0x55
		img[511] = 0xAA
	}
	if lba0GPT {
		copy(img, disk.GPTSignature)
	}
	if lba1GPT {
		copy(img[sectorSize:], disk.GPTSignature)
	}
	return img
}

func TestClassify(t *testing.T) {
	type testCase struct {
		name     string
		lba0Boot bool
		lba0GPT  bool
		lba1GPT  bool
		expected disk.TableType
	}

	cases := []testCase{
		{"protective MBR and GPT header", true, false, true, disk.GPTTable},
		{"boot signature only", true, false, false, disk.MBRTable},
		{"GPT signature at LBA0 and LBA1", false, true, true, disk.GPTTable},
		{"GPT signature at LBA0 only", false, true, false, disk.NoPartitionTable},
		{"blank disk", false, false, false, disk.NoPartitionTable},
		{"GPT header without boot signature", false, false, true, disk.NoPartitionTable},
	}

	for _, ss := range []int{512, 4096} {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				o := &trackingOpener{
					data:       twoSectorImage(ss, tc.lba0Boot, tc.lba0GPT, tc.lba1GPT),
					sectorSize: uint32(ss),
				}
				typ, err := newIO(o).Classify("disk")
				require.NoError(t, err)
				require.Equal(t, tc.expected, typ)
				o.requireAllClosed(t)
			})
		}
	}
}

func TestClassifyImages(t *testing.T) {
	gpt := &disktest.GPTImage{}
	typ, err := disk.NewSectorIO(fs.MemOpener(gpt.Bytes(), 512), nil).Classify("gpt")
	require.NoError(t, err)
	require.Equal(t, disk.GPTTable, typ)
	require.Equal(t, "GPT", typ.String())

	mbr := disktest.MBRImage(512, 64, disktest.MBRPartition{Type: disk.PartitionTypeLinuxFilesystem, StartLBA: 2, Sectors: 60})
	typ, err = disk.NewSectorIO(fs.MemOpener(mbr, 512), nil).Classify("mbr")
	require.NoError(t, err)
	require.Equal(t, disk.MBRTable, typ)
}

func TestClassifyErrors(t *testing.T) {
	o := &trackingOpener{data: twoSectorImage(512, true, false, true), sectorSize: 512, geomErr: errors.New("no geometry")}
	_, err := newIO(o).Classify("disk")
	require.ErrorIs(t, err, disk.ErrSectorSizeQueryFailed)
	require.ErrorIs(t, err, disk.ErrGeometryQueryFailed)

	o = &trackingOpener{data: nil, sectorSize: 512}
	_, err = newIO(o).Classify("disk")
	require.ErrorIs(t, err, disk.ErrReadLBA0Failed)

	o = &trackingOpener{data: twoSectorImage(512, true, false, false)[:512], sectorSize: 512}
	_, err = newIO(o).Classify("disk")
	require.ErrorIs(t, err, disk.ErrReadLBA1Failed)
	require.ErrorIs(t, err, disk.ErrReadFailed)
	o.requireAllClosed(t)

	o = &trackingOpener{openErr: errors.New("denied")}
	_, err = newIO(o).Classify("disk")
	require.Equal(t, disk.SectorSizeQueryFailed, disk.KindOf(err))
}
