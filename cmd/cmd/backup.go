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
	"os"

	"github.com/ostafen/diskprobe/internal/backup"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup <device> <file>",
		Short: "Save the GPT sectors of a device to a compressed file",
		Long: `The 'backup' command copies the protective MBR, the primary GPT header and the partition entry array
of a device into a zstd compressed file. The device is only read.
Use 'backup show <file>' to list the partitions stored in a backup.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunBackup,
	}
	cmd.AddCommand(defineBackupShowCommand())
	return cmd
}

func RunBackup(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeDevicePath(args[0])

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := backup.NewWriter(nil, log).Write(path, f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(args[1])
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printf(cmd.ErrOrStderr(), "@G{✓} %d sectors of @C{%s} saved to @C{%s} (%s)\n",
		m.Count, path, args[1], format.FormatBytes(m.BytesWritten))
	return nil
}

func defineBackupShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "show <file>",
		Short:        "List the partitions stored in a backup file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunBackupShow,
	}
	addOutputFlag(cmd)
	return cmd
}

func RunBackupShow(cmd *cobra.Command, args []string) error {
	outFmt, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	h, opener, err := backup.Open(f)
	if err != nil {
		return err
	}

	info, err := disk.NewSectorIO(opener, log).ParseGPT(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ok, err := encode(out, outFmt, info); ok {
		return err
	}

	printf(out, "backup version %d, created @Y{%s}, %d sectors\n",
		h.Version, h.Created.Format("2006-01-02 15:04:05 MST"), h.Count)
	printGPT(out, info)
	return nil
}
