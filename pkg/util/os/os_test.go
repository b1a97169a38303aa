package os_test

import (
	"os"
	"path/filepath"
	"testing"

	utilos "github.com/ostafen/diskprobe/pkg/util/os"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()

	dir := filepath.Join(root, "mnt")
	created, err := utilos.EnsureDir(dir, true)
	require.NoError(t, err)
	require.True(t, created)

	created, err = utilos.EnsureDir(dir, true)
	require.NoError(t, err)
	require.False(t, created)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0o644))

	_, err = utilos.EnsureDir(dir, true)
	require.ErrorContains(t, err, "not empty")

	created, err = utilos.EnsureDir(dir, false)
	require.NoError(t, err)
	require.False(t, created)

	_, err = utilos.EnsureDir(filepath.Join(dir, "f"), false)
	require.ErrorContains(t, err, "not a directory")

	_, err = utilos.EnsureDir(filepath.Join(root, "missing", "deep"), false)
	require.Error(t, err)
}

func TestIsDirEmpty(t *testing.T) {
	dir := t.TempDir()

	empty, err := utilos.IsDirEmpty(dir)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	empty, err = utilos.IsDirEmpty(dir)
	require.NoError(t, err)
	require.False(t, empty)

	_, err = utilos.IsDirEmpty(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
