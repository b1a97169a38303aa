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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/fuse"
	"github.com/ostafen/diskprobe/pkg/dfxml"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <device>",
		Short: "Expose the GPT partitions of a device as read-only image files",
		Long: `The 'mount' command serves every partition of a device as a file of a read-only FUSE file system.
Partitions are taken from the GPT of the device, or from a report written by the 'report' command.
The file system stays mounted until the process receives an interrupt.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "directory where the partitions are exposed (default: <device>_parts)")
	cmd.Flags().StringP("report", "r", "", "read partitions from a DFXML report instead of the partition table")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeDevicePath(args[0])

	dev, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	size, err := dev.Size()
	if err != nil {
		return fmt.Errorf("failed to get size of %s: %w", path, err)
	}

	reportPath, _ := cmd.Flags().GetString("report")

	var entries []fuse.FileEntry
	if reportPath != "" {
		entries, err = reportEntries(reportPath, uint64(size))
	} else {
		entries, err = gptEntries(path, uint64(size))
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no partitions to expose on %s", path)
	}

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(path)
	}

	printf(cmd.ErrOrStderr(), "exposing %d partitions of @C{%s} at @C{%s}\n", len(entries), path, mountpoint)
	return fuse.Mount(mountpoint, dev, entries, log)
}

func gptEntries(path string, size uint64) ([]fuse.FileEntry, error) {
	info, err := disk.NewSectorIO(nil, log).ParseGPT(path)
	if err != nil {
		return nil, err
	}
	return fuse.PartitionEntries(info, size, log), nil
}

func reportEntries(reportPath string, size uint64) ([]fuse.FileEntry, error) {
	f, err := os.Open(reportPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	volumes, err := dfxml.ReadVolumes(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", reportPath, err)
	}
	return fuse.VolumeEntries(volumes, size, log), nil
}

func getMountpoint(path string) string {
	name := strings.TrimSuffix(filepath.Base(filepath.ToSlash(path)), filepath.Ext(path))
	name = strings.Trim(strings.NewReplacer(":", "", `\`, "_").Replace(name), "._")
	if name == "" {
		name = "disk"
	}
	abs, err := filepath.Abs(name + "_parts")
	if err != nil {
		return name + "_parts"
	}
	return abs
}
