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
	"context"
	"os"
	"os/signal"

	"github.com/jhunt/go-table"
	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/enumerate"
	"github.com/ostafen/diskprobe/internal/inspect"
	"github.com/ostafen/diskprobe/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineDisksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "disks",
		Short:        "List the physical disks attached to the system",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunDisks,
	}

	cmd.Flags().BoolP("inspect", "i", false, "classify and parse the partition table of every disk")
	cmd.Flags().Int("workers", 0, "number of disks inspected concurrently (0 = number of CPUs)")
	addOutputFlag(cmd)
	return cmd
}

type diskRow struct {
	Path       string                `json:"path" yaml:"path"`
	Size       int64                 `json:"size,omitempty" yaml:"size,omitempty"`
	Properties *enumerate.Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Table      *disk.TableType       `json:"table,omitempty" yaml:"table,omitempty"`
	Partitions *int                  `json:"partitions,omitempty" yaml:"partitions,omitempty"`
	Error      string                `json:"error,omitempty" yaml:"error,omitempty"`
}

func RunDisks(cmd *cobra.Command, args []string) error {
	outFmt, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	doInspect, _ := cmd.Flags().GetBool("inspect")
	workers, _ := cmd.Flags().GetInt("workers")

	list, err := enumerate.New(nil, log).Enumerate()
	if err != nil {
		return err
	}
	// Handles are only needed for the descriptors.
	defer list.Close()

	rows := make([]diskRow, len(list))
	for i, d := range list {
		rows[i].Path = d.Path
		if size, err := d.Size(); err == nil {
			rows[i].Size = size
		} else {
			log.Debug("disk size unavailable", "path", d.Path, "error", err)
		}
		if props, err := d.Properties(); err == nil {
			rows[i].Properties = &props
		} else {
			log.Debug("no device descriptor", "path", d.Path, "error", err)
		}
	}

	if doInspect {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		results := inspect.New(nil, workers, log).InspectAll(ctx, list.Paths())
		for i := range results {
			r := &results[i]
			if r.Err != nil {
				rows[i].Error = r.Err.Error()
				continue
			}
			n := r.Partitions()
			rows[i].Table, rows[i].Partitions = &r.Table, &n
		}
	}

	if ok, err := encode(cmd.OutOrStdout(), outFmt, rows); ok {
		return err
	}

	headers := []string{"Path", "Size", "Vendor", "Model", "Serial", "Bus", "Removable"}
	if doInspect {
		headers = append(headers, "Table", "Partitions")
	}

	tbl := table.NewTable(headers...)
	for _, r := range rows {
		var p enumerate.Properties
		if r.Properties != nil {
			p = *r.Properties
		}
		size := "-"
		if r.Size > 0 {
			size = format.FormatBytes(r.Size)
		}
		cols := []interface{}{r.Path, size, p.Vendor, p.Product, p.Serial, p.Bus, yesNo(p.Removable)}
		if doInspect {
			switch {
			case r.Error != "":
				cols = append(cols, "error", r.Error)
			default:
				cols = append(cols, r.Table.String(), *r.Partitions)
			}
		}
		tbl.Row(r, cols...)
	}
	tbl.Output(cmd.OutOrStdout())
	return nil
}
