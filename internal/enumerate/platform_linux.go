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

//go:build linux

package enumerate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unsafe"

	"github.com/ostafen/diskprobe/internal/fs"
	"golang.org/x/sys/unix"
)

const (
	sysBlockDir = "/sys/block"

	sgIO           = 0x2285
	sgDxferFromDev = -3
	sgInterfaceID  = 'S'
	sgTimeoutMs    = 5000

	scsiInquiry = 0x12
)

// Block devices that never back a fixed or removable disk. Optical and
// floppy drives have a device link but are not disks.
var excludedPrefixes = []string{"loop", "ram", "zram", "sr", "fd"}

// sgIOHdr mirrors struct sg_io_hdr from <scsi/sg.h>.
type sgIOHdr struct {
	InterfaceID    int32
	DxferDirection int32
	CmdLen         uint8
	MxSbLen        uint8
	IovecCount     uint16
	DxferLen       uint32
	Dxferp         uintptr
	Cmdp           uintptr
	Sbp            uintptr
	Timeout        uint32
	Flags          uint32
	PackID         int32
	UsrPtr         uintptr
	Status         uint8
	MaskedStatus   uint8
	MsgStatus      uint8
	SbLenWr        uint8
	HostStatus     uint16
	DriverStatus   uint16
	Resid          int32
	Duration       uint32
	Info           uint32
}

type sysfsPlatform struct {
	root string
	open fs.Opener
}

// Native returns the platform backed by /sys/block and SCSI INQUIRY.
func Native() Platform {
	return NewSysfs(sysBlockDir, fs.Open)
}

// NewSysfs returns a platform listing the block devices under root and
// opening them with open.
func NewSysfs(root string, open fs.Opener) Platform {
	return &sysfsPlatform{root: root, open: open}
}

type sysfsSource struct {
	names []string
}

func (s *sysfsSource) Next(i int) error {
	if i < 0 || i >= len(s.names) {
		return ErrNoMoreItems
	}
	return nil
}

func (s *sysfsSource) Path(i int) (string, error) {
	if i < 0 || i >= len(s.names) {
		return "", fmt.Errorf("interface %d out of range", i)
	}
	return filepath.Join("/dev", s.names[i]), nil
}

func (p *sysfsPlatform) Interfaces() (Source, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.root, err)
	}

	var names []string
	for _, e := range entries {
		if isExcluded(e.Name()) {
			continue
		}
		// dm-*, md* and nbd* have no backing hardware and thus no device link.
		if _, err := os.Stat(filepath.Join(p.root, e.Name(), "device")); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return &sysfsSource{names: names}, nil
}

func isExcluded(name string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (p *sysfsPlatform) Open(path string) (fs.Device, error) {
	return p.open(path)
}

func (p *sysfsPlatform) PropertySize(dev fs.Device) (int, error) {
	header := make([]byte, InquiryHeaderSize)
	n, err := inquiry(dev.Fd(), header)
	if err != nil {
		return 0, err
	}
	return InquiryLength(header[:n])
}

func (p *sysfsPlatform) Property(dev fs.Device, buf []byte) (int, error) {
	return inquiry(dev.Fd(), buf)
}

func (p *sysfsPlatform) Format() DescriptorFormat {
	return FormatSCSIInquiry
}

// inquiry issues a standard INQUIRY through SG_IO and returns the number of
// bytes transferred into buf.
func inquiry(fd uintptr, buf []byte) (int, error) {
	if len(buf) == 0 || len(buf) > 0xFFFF {
		return 0, fmt.Errorf("invalid INQUIRY allocation length %d", len(buf))
	}

	cdb := [6]byte{scsiInquiry, 0, 0, byte(len(buf) >> 8), byte(len(buf)), 0}
	var sense [32]byte

	hdr := sgIOHdr{
		InterfaceID:    sgInterfaceID,
		DxferDirection: sgDxferFromDev,
		CmdLen:         uint8(len(cdb)),
		MxSbLen:        uint8(len(sense)),
		DxferLen:       uint32(len(buf)),
		Dxferp:         uintptr(unsafe.Pointer(&buf[0])),
		Cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		Sbp:            uintptr(unsafe.Pointer(&sense[0])),
		Timeout:        sgTimeoutMs,
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(buf)
	runtime.KeepAlive(&cdb)
	runtime.KeepAlive(&sense)
	if errno != 0 {
		return 0, fmt.Errorf("SG_IO INQUIRY failed: %w", errno)
	}
	if hdr.Status != 0 || hdr.HostStatus != 0 || hdr.DriverStatus != 0 {
		return 0, fmt.Errorf("SG_IO INQUIRY failed: status=0x%02X host=0x%04X driver=0x%04X",
			hdr.Status, hdr.HostStatus, hdr.DriverStatus)
	}

	n := len(buf) - int(hdr.Resid)
	if n < 0 || n > len(buf) {
		n = len(buf)
	}
	return n, nil
}
