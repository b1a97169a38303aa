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
	"io"
	"strings"

	"github.com/jhunt/go-table"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/ostafen/diskprobe/internal/inspect"
	"github.com/ostafen/diskprobe/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefinePartsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "parts <device>",
		Short:        "List the partitions of a GPT or MBR disk",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunParts,
	}
	addOutputFlag(cmd)
	cmd.Flags().BoolP("verbose", "v", false, "also dump the raw MBR slots of MBR disks")
	return cmd
}

func RunParts(cmd *cobra.Command, args []string) error {
	outFmt, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	path := fs.NormalizeDevicePath(args[0])
	res := inspect.New(nil, 1, log).Inspect(path)
	if res.Err != nil {
		return res.Err
	}

	out := cmd.OutOrStdout()
	if ok, err := encode(out, outFmt, res); ok {
		return err
	}

	switch res.Table {
	case disk.GPTTable:
		printGPT(out, res.GPT)
	case disk.MBRTable:
		sio := disk.NewSectorIO(nil, log)
		ss, err := sio.QuerySectorSize(path)
		if err != nil {
			return err
		}
		printMBR(out, path, ss, res.MBR)

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			mbr, err := sio.ParseMBR(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", mbr.Describe(ss))
		}
	default:
		printf(out, "@C{%s}: no partition table\n", path)
	}
	return nil
}

func printGPT(w io.Writer, info *disk.DiskInfo) {
	printf(w, "@C{%s}: @G{GPT} disk @Y{%s}\n", info.Path, info.GUID.String())
	printf(w, "  sector size %d, usable LBA %d-%d, backup header at LBA %d\n",
		info.SectorSize, info.FirstUsableLBA, info.LastUsableLBA, info.BackupHeaderLBA)
	printf(w, "  %d entries of %d bytes at LBA %d, header CRC %s, entry array CRC %s\n\n",
		info.EntryCount, info.EntrySize, info.EntryArrayLBA,
		crcStatus(info.HeaderCRCValid), crcStatus(info.EntryArrayCRCValid))

	tbl := table.NewTable("#", "Name", "Type", "First LBA", "Last LBA", "Size", "Attributes", "Unique GUID")
	for _, p := range info.Partitions {
		tbl.Row(p,
			p.Index+1,
			p.Label,
			p.TypeName,
			p.FirstLBA,
			p.LastLBA,
			format.FormatSectors(p.Sectors(), info.SectorSize),
			strings.Join(p.AttributeNames(), ","),
			p.UniqueGUID.String(),
		)
	}
	tbl.Output(w)
}

func printMBR(w io.Writer, path string, sectorSize uint32, parts []disk.MBRPartitionInfo) {
	printf(w, "@C{%s}: @G{MBR} disk, sector size %d\n\n", path, sectorSize)

	tbl := table.NewTable("#", "Boot", "Type", "Start LBA", "Sectors", "Size")
	for _, p := range parts {
		boot := ""
		if p.Bootable {
			boot = "*"
		}
		tbl.Row(p,
			p.Index,
			boot,
			fmt.Sprintf("%s (0x%02X)", p.TypeName, p.Type),
			p.StartLBA,
			p.Sectors,
			format.FormatSectors(uint64(p.Sectors), sectorSize),
		)
	}
	tbl.Output(w)
}

