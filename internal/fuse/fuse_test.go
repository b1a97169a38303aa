//go:build linux

package fuse_test

import (
	"bytes"
	"testing"

	"github.com/ostafen/diskprobe/internal/fuse"
	"github.com/stretchr/testify/require"
)

func TestPartitionFS(t *testing.T) {
	data, info := testDisk(t)
	pfs := fuse.NewPartitionFS(bytes.NewReader(data), fuse.PartitionEntries(info, uint64(len(data)), nil))

	require.Equal(t, []string{"01-EFI_boot.img", "04-partition.img", "06-swap.img"}, pfs.Names())

	_, ok := pfs.Lookup("missing.img")
	require.False(t, ok)

	f, ok := pfs.Lookup("04-partition.img")
	require.True(t, ok)

	got, err := f.ReadRange(0, 512)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{50}, 512), got)

	got, err = f.ReadRange(9*512+500, 100)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{59}, 12), got)

	got, err = f.ReadRange(10*512, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
