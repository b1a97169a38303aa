package inspect_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/disk/disktest"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/inspect"
	"github.com/stretchr/testify/require"
)

func imageOpener(images map[string][]byte) fs.Opener {
	return func(path string) (fs.Device, error) {
		img, ok := images[path]
		if !ok {
			return nil, fmt.Errorf("no such device: %s", path)
		}
		return fs.NewMemDevice(img, 512), nil
	}
}

func testImages() map[string][]byte {
	gpt := &disktest.GPTImage{
		Entries: map[int]disk.Entry{
			0: disktest.NewEntry(disk.TypeEFISystem, 34, 200, "EFI"),
			1: disktest.NewEntry(disk.TypeLinuxFilesystem, 201, 2000, "root"),
		},
	}
	return map[string][]byte{
		"gpt":   gpt.Bytes(),
		"mbr":   disktest.MBRImage(512, 128, disktest.MBRPartition{Type: disk.PartitionTypeLinuxFilesystem, StartLBA: 1, Sectors: 127}),
		"blank": make([]byte, 512*8),
	}
}

func TestInspectAll(t *testing.T) {
	sio := disk.NewSectorIO(imageOpener(testImages()), nil)
	paths := []string{"mbr", "missing", "gpt", "blank", "gpt"}

	results := inspect.New(sio, 2, nil).InspectAll(context.Background(), paths)
	require.Len(t, results, len(paths))

	for i, r := range results {
		require.Equal(t, paths[i], r.Path)
	}

	require.NoError(t, results[0].Err)
	require.Equal(t, disk.MBRTable, results[0].Table)
	require.Equal(t, 1, results[0].Partitions())
	require.Nil(t, results[0].GPT)

	require.ErrorIs(t, results[1].Err, disk.ErrSectorSizeQueryFailed)

	for _, r := range []inspect.Result{results[2], results[4]} {
		require.NoError(t, r.Err)
		require.Equal(t, disk.GPTTable, r.Table)
		require.NotNil(t, r.GPT)
		require.Equal(t, 2, r.Partitions())
		require.Equal(t, "root", r.GPT.Partitions[1].Name)
	}

	require.NoError(t, results[3].Err)
	require.Equal(t, disk.NoPartitionTable, results[3].Table)
	require.Zero(t, results[3].Partitions())
}

func TestInspectAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sio := disk.NewSectorIO(imageOpener(testImages()), nil)
	results := inspect.New(sio, 1, nil).InspectAll(ctx, []string{"gpt", "mbr"})
	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestInspectParseFailure(t *testing.T) {
	images := testImages()
	corrupt := append([]byte(nil), images["gpt"]...)
	corrupt[0x1BE+4] = 0x83
	images["corrupt"] = corrupt

	r := inspect.New(disk.NewSectorIO(imageOpener(images), nil), 0, nil).Inspect("corrupt")
	require.Equal(t, disk.GPTTable, r.Table)
	require.ErrorIs(t, r.Err, disk.ErrParse)
	require.Nil(t, r.GPT)
}
