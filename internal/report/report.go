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

// Package report describes a GPT as a DFXML partition report.
package report

import (
	"fmt"
	"io"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/env"
	"github.com/ostafen/diskprobe/pkg/dfxml"
)

// Volumes converts the partitions of info to DFXML volumes with a single
// byte run each.
func Volumes(info *disk.DiskInfo) []dfxml.Volume {
	vols := make([]dfxml.Volume, 0, len(info.Partitions))
	for _, p := range info.Partitions {
		off, size, ok := p.Extent(info.SectorSize)
		v := dfxml.Volume{
			Offset:     off,
			Index:      p.Index,
			Filename:   p.FileName(),
			Label:      p.Label,
			TypeGUID:   p.TypeGUID.String(),
			TypeName:   p.TypeName,
			UniqueGUID: p.UniqueGUID.String(),
			BlockSize:  info.SectorSize,
			FirstBlock: p.FirstLBA,
			LastBlock:  p.LastLBA,
		}
		// Volumes whose extent overflows carry no byte run.
		if ok {
			v.ByteRuns.Runs = []dfxml.ByteRun{{ImgOffset: off, Length: size}}
		}
		vols = append(vols, v)
	}
	return vols
}

// Write streams the report of info to w. deviceSize is the capacity of the
// device in bytes.
func Write(w io.Writer, info *disk.DiskInfo, deviceSize uint64) error {
	dw := dfxml.NewDFXMLWriter(w)

	err := dw.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename:  info.Path,
			SectorSize:     int(info.SectorSize),
			ImageSize:      deviceSize,
			PartitionTable: disk.GPTTable.String(),
			DiskGUID:       info.GUID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, v := range Volumes(info) {
		if err := dw.WriteVolume(v); err != nil {
			return fmt.Errorf("failed to write volume %s: %w", v.Filename, err)
		}
	}
	return dw.Close()
}
