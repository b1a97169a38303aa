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
	"github.com/ostafen/diskprobe/internal/report"
	"github.com/spf13/cobra"
)

func DefineReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <device>",
		Short: "Write a DFXML report of the GPT partitions of a device",
		Long: `The 'report' command parses the GPT of a device and describes every partition as a DFXML volume.
The report can later be passed to 'mount --report' to expose the partitions without parsing the table again.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunReport,
	}
	cmd.Flags().StringP("output", "o", "", "path of the report file (default: report_<device>.xml, '-' for stdout)")
	return cmd
}

func RunReport(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeDevicePath(args[0])

	info, size, err := parseGPTWithSize(path)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "-" {
		return report.Write(cmd.OutOrStdout(), info, size)
	}
	if outPath == "" {
		outPath = defaultReportName(path)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.Write(f, info, size); err != nil {
		return err
	}
	printf(cmd.ErrOrStderr(), "@G{✓} report of %d partitions written to @C{%s}\n", len(info.Partitions), outPath)
	return f.Close()
}

// parseGPTWithSize parses the GPT of path and returns the capacity of the
// device in bytes.
func parseGPTWithSize(path string) (*disk.DiskInfo, uint64, error) {
	info, err := disk.NewSectorIO(nil, log).ParseGPT(path)
	if err != nil {
		return nil, 0, err
	}

	dev, err := fs.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer dev.Close()

	size, err := dev.Size()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get size of %s: %w", path, err)
	}
	return info, uint64(size), nil
}

func defaultReportName(path string) string {
	name := strings.TrimLeft(filepath.Base(filepath.ToSlash(path)), `\.`)
	name = strings.NewReplacer(":", "", `\`, "_").Replace(name)
	if name == "" {
		name = "disk"
	}
	return fmt.Sprintf("report_%s.xml", name)
}
