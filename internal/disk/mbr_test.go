package disk_test

import (
	"strings"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/disk/disktest"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestParseMBR(t *testing.T) {
	img := disktest.MBRImage(512, 4096,
		disktest.MBRPartition{Bootable: true, Type: disk.PartitionTypeNTFSHPFSexFAT, StartLBA: 2048, Sectors: 1024},
		disktest.MBRPartition{},
		disktest.MBRPartition{Type: disk.PartitionTypeLinuxSwap, StartLBA: 3072, Sectors: 1000},
	)

	mbr, err := disk.ParseMBR(img)
	require.NoError(t, err)
	require.Equal(t, disk.BootSignature, mbr.ReadSignature())
	require.False(t, mbr.IsProtective())

	parts := mbr.Partitions()
	require.Len(t, parts, 2)
	require.Equal(t, disk.MBRPartitionInfo{
		Index: 1, Bootable: true, Type: 0x07, TypeName: "NTFS/HPFS/exFAT", StartLBA: 2048, Sectors: 1024,
	}, parts[0])
	require.Equal(t, 3, parts[1].Index)
	require.Equal(t, "Linux swap", parts[1].TypeName)
}

func TestParseMBRFromDevice(t *testing.T) {
	img := disktest.MBRImage(4096, 16, disktest.MBRPartition{Type: disk.PartitionTypeFAT32LBA, StartLBA: 1, Sectors: 15})
	mbr, err := disk.NewSectorIO(fs.MemOpener(img, 4096), nil).ParseMBR("disk")
	require.NoError(t, err)
	require.Len(t, mbr.Partitions(), 1)
	require.Equal(t, "FAT32 (LBA)", mbr.Partitions()[0].TypeName)
}

func TestParseMBRProtective(t *testing.T) {
	data := (&disktest.GPTImage{}).Bytes()
	mbr, err := disk.ParseMBR(data[:512])
	require.NoError(t, err)
	require.True(t, mbr.IsProtective())

	typ, ok := disk.ProtectiveType(data)
	require.True(t, ok)
	require.Equal(t, disk.PartitionTypeGPT, typ)
}

func TestParseMBRInvalid(t *testing.T) {
	_, err := disk.ParseMBR(make([]byte, 100))
	require.ErrorIs(t, err, disk.ErrParse)

	_, err = disk.ParseMBR(make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrSignatureMismatch)

	_, err = disk.NewSectorIO(fs.MemOpener(make([]byte, 2048), 512), nil).ParseMBR("blank")
	require.ErrorIs(t, err, disk.ErrSignatureMismatch)
	require.ErrorContains(t, err, `"blank"`)

	require.False(t, disk.HasBootSignature(make([]byte, 511)))
}

func TestMBRDescribe(t *testing.T) {
	img := disktest.MBRImage(4096, 8,
		disktest.MBRPartition{Bootable: true, Type: disk.PartitionTypeLinuxFilesystem, StartLBA: 256, Sectors: 1024},
	)
	mbr, err := disk.ParseMBR(img)
	require.NoError(t, err)

	out := mbr.Describe(4096)
	require.Contains(t, out, "MBR Signature: 0xAA55")
	require.Equal(t, 4, strings.Count(out, "\nPartition "))
	require.Contains(t, out, "Bootable: Yes (0x80)")
	require.Contains(t, out, "Start LBA: 256")
	require.Contains(t, out, "Size: 4194304 bytes")

	require.Contains(t, mbr.PartitionEntries[1].Describe(512), "Bootable: No")
}
