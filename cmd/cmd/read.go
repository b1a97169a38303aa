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
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/spf13/cobra"
)

func DefineReadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "read <device> <lba>",
		Short:        "Dump one sector of a device",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunRead,
	}
	cmd.Flags().Bool("raw", false, "write the sector bytes instead of a hex dump")
	return cmd
}

func RunRead(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeDevicePath(args[0])

	lba, err := strconv.ParseInt(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid LBA %q: %w", args[1], err)
	}
	raw, _ := cmd.Flags().GetBool("raw")

	sio := disk.NewSectorIO(nil, log)

	size, err := sio.QuerySectorSize(path)
	if err != nil {
		return err
	}

	buf := make([]byte, size)
	n, err := sio.ReadSector(path, lba, buf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if raw {
		_, err := out.Write(buf[:n])
		return err
	}

	printf(cmd.ErrOrStderr(), "@C{%s} LBA @Y{%d} (%d bytes)\n", path, lba, n)
	d := hex.Dumper(out)
	if _, err := d.Write(buf[:n]); err != nil {
		return err
	}
	return d.Close()
}
