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
	"github.com/jhunt/go-table"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/spf13/cobra"
)

func DefineClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "classify <device>...",
		Short:        "Report the partition table type of devices",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunClassify,
	}
	addOutputFlag(cmd)
	return cmd
}

type classifyRow struct {
	Path       string         `json:"path" yaml:"path"`
	SectorSize uint32         `json:"sectorSize,omitempty" yaml:"sectorSize,omitempty"`
	Table      disk.TableType `json:"table" yaml:"table"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func RunClassify(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	sio := disk.NewSectorIO(nil, log)

	var failed error
	rows := make([]classifyRow, len(args))
	for i, arg := range args {
		path := fs.NormalizeDevicePath(arg)
		rows[i].Path = path

		typ, err := sio.Classify(path)
		if err != nil {
			rows[i].Error = err.Error()
			failed = err
			continue
		}
		rows[i].Table = typ
		rows[i].SectorSize, _ = sio.QuerySectorSize(path)
	}

	if ok, err := encode(cmd.OutOrStdout(), format, rows); ok {
		if err != nil {
			return err
		}
		return failed
	}

	tbl := table.NewTable("Path", "Sector Size", "Table", "Error")
	for _, r := range rows {
		tbl.Row(r, r.Path, r.SectorSize, r.Table.String(), r.Error)
	}
	tbl.Output(cmd.OutOrStdout())
	return failed
}
