//go:build linux

package enumerate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/diskprobe/internal/enumerate"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestSysfsPlatform(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"sdb", "loop0", "nvme0n1", "ram1", "zram0", "sda", "sr0"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name, "device"), 0o755))
	}
	for _, name := range []string{"dm-0", "md127", "nbd0"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}

	var opened []string
	open := func(path string) (fs.Device, error) {
		opened = append(opened, path)
		return fs.NewMemDevice(make([]byte, 1024), 512), nil
	}

	list, err := enumerate.New(enumerate.NewSysfs(root, open), nil).Enumerate()
	require.NoError(t, err)
	defer list.Close()

	require.Equal(t, []string{"/dev/nvme0n1", "/dev/sda", "/dev/sdb"}, list.Paths())
	require.Equal(t, list.Paths(), opened)

	// In-memory devices carry no SCSI target, so INQUIRY fails and the
	// descriptor stays absent.
	for _, d := range list {
		require.True(t, d.Opened())
		require.Nil(t, d.Descriptor)
		require.Equal(t, enumerate.FormatSCSIInquiry, d.Format)
	}
}

func TestSysfsPlatformMissingRoot(t *testing.T) {
	_, err := enumerate.New(enumerate.NewSysfs(filepath.Join(t.TempDir(), "missing"), fs.Open), nil).Enumerate()
	require.Error(t, err)
}
