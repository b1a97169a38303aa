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

// Package inspect classifies and parses several devices concurrently.
package inspect

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of inspecting one device. Err is set when the
// device could not be classified or its table could not be parsed.
type Result struct {
	Path  string                  `json:"path" yaml:"path"`
	Table disk.TableType          `json:"table" yaml:"table"`
	GPT   *disk.DiskInfo          `json:"gpt,omitempty" yaml:"gpt,omitempty"`
	MBR   []disk.MBRPartitionInfo `json:"mbr,omitempty" yaml:"mbr,omitempty"`
	Err   error                   `json:"-" yaml:"-"`
}

// Partitions returns the number of partitions found on the device.
func (r *Result) Partitions() int {
	if r.GPT != nil {
		return len(r.GPT.Partitions)
	}
	return len(r.MBR)
}

// Inspector runs the classifier and the matching parser on devices.
type Inspector struct {
	io      *disk.SectorIO
	workers int
	logger  *slog.Logger
}

// New returns an inspector using sio, running at most workers devices at
// once. workers <= 0 selects GOMAXPROCS.
func New(sio *disk.SectorIO, workers int, log *slog.Logger) *Inspector {
	if sio == nil {
		sio = disk.NewSectorIO(nil, log)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Inspector{io: sio, workers: workers, logger: logger.OrDiscard(log)}
}

// Inspect classifies path and decodes its partition table.
func (in *Inspector) Inspect(path string) Result {
	res := Result{Path: path}

	typ, err := in.io.Classify(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Table = typ

	switch typ {
	case disk.GPTTable:
		res.GPT, res.Err = in.io.ParseGPT(path)
	case disk.MBRTable:
		mbr, err := in.io.ParseMBR(path)
		if err != nil {
			res.Err = err
			break
		}
		res.MBR = mbr.Partitions()
	}
	return res
}

// InspectAll inspects every path, one goroutine per device, and returns the
// results in the order of paths. A failing device does not stop the others.
// Cancelling ctx skips devices not yet started; their result carries ctx.Err().
func (in *Inspector) InspectAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return nil
			}
			results[i] = in.Inspect(path)
			if results[i].Err != nil {
				in.logger.Warn("device inspection failed", "path", path, "error", results[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
