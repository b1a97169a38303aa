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

package fuse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/ostafen/diskprobe/internal/env"
	"github.com/ostafen/diskprobe/internal/logger"
	utilos "github.com/ostafen/diskprobe/pkg/util/os"
)

const maxUnmountRetries = 3

// Mount serves entries read from r at mountpoint, read-only, until the
// process receives SIGINT or SIGTERM. The mountpoint is created when
// missing and removed on return.
func Mount(mountpoint string, r io.ReaderAt, entries []FileEntry, log *slog.Logger) error {
	log = logger.OrDiscard(log)

	created, err := utilos.EnsureDir(mountpoint, true)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint,
		fuse.ReadOnly(),
		fuse.FSName(env.AppName),
		fuse.Subtype(env.AppName),
	)
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", mountpoint, err)
	}
	defer c.Close()

	pfs := NewPartitionFS(r, entries)
	log.Info("partitions mounted", "mountpoint", mountpoint, "files", len(entries))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- fusefs.New(c, nil).Serve(pfs)
	}()
	return waitForUmount(mountpoint, serveErr, log)
}

func waitForUmount(mountpoint string, serveErr <-chan error, log *slog.Logger) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	log.Info("waiting for termination signal")

	attempts := 0
	for {
		select {
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("fuse server stopped: %w", err)
			}
			log.Info("file system unmounted externally", "mountpoint", mountpoint)
			return nil
		case sig := <-sigc:
			log.Info("signal received", "signal", sig.String())

			attempts++
			err := fuse.Unmount(mountpoint)
			if err == nil {
				log.Info("unmounted successfully", "mountpoint", mountpoint)
				return nil
			}
			if attempts >= maxUnmountRetries {
				return errors.Join(
					fmt.Errorf("unable to unmount %s after %d attempts", mountpoint, attempts),
					err,
				)
			}
			log.Warn("unmount failed, send another signal to retry",
				"mountpoint", mountpoint, "error", err, "retries", maxUnmountRetries-attempts)
		}
	}
}
