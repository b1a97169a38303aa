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

package enumerate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// DescriptorFormat identifies the layout of a device property descriptor.
type DescriptorFormat uint8

const (
	FormatNone DescriptorFormat = iota
	// FormatSCSIInquiry is standard SCSI INQUIRY data.
	FormatSCSIInquiry
	// FormatStorageDevice is a STORAGE_DEVICE_DESCRIPTOR.
	FormatStorageDevice
)

func (f DescriptorFormat) String() string {
	switch f {
	case FormatSCSIInquiry:
		return "scsi-inquiry"
	case FormatStorageDevice:
		return "storage-device-descriptor"
	default:
		return "none"
	}
}

var errNoDescriptor = errors.New("no device descriptor")

// Properties are the identification fields decoded from a descriptor.
type Properties struct {
	Vendor    string `json:"vendor" yaml:"vendor"`
	Product   string `json:"product" yaml:"product"`
	Revision  string `json:"revision" yaml:"revision"`
	Serial    string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Bus       string `json:"bus,omitempty" yaml:"bus,omitempty"`
	Removable bool   `json:"removable" yaml:"removable"`
}

// Model joins vendor and product.
func (p Properties) Model() string {
	return strings.TrimSpace(p.Vendor + " " + p.Product)
}

// Decode decodes a descriptor of the given format.
func Decode(format DescriptorFormat, b []byte) (Properties, error) {
	switch format {
	case FormatSCSIInquiry:
		return DecodeInquiry(b)
	case FormatStorageDevice:
		return DecodeStorageDescriptor(b)
	default:
		return Properties{}, errNoDescriptor
	}
}

// Standard INQUIRY data layout.
const (
	InquiryHeaderSize = 5
	InquiryStdSize    = 36

	inquiryVendorOffset   = 8
	inquiryProductOffset  = 16
	inquiryRevisionOffset = 32
)

// InquiryLength returns the full INQUIRY data length announced by its header.
func InquiryLength(header []byte) (int, error) {
	if len(header) < InquiryHeaderSize {
		return 0, fmt.Errorf("INQUIRY header too short: %d bytes", len(header))
	}
	return int(header[4]) + InquiryHeaderSize, nil
}

// DecodeInquiry decodes standard SCSI INQUIRY data. Fields missing from a
// short response are left empty.
func DecodeInquiry(b []byte) (Properties, error) {
	if len(b) < InquiryHeaderSize {
		return Properties{}, fmt.Errorf("INQUIRY data too short: %d bytes", len(b))
	}
	return Properties{
		Vendor:    asciiField(b, inquiryVendorOffset, inquiryProductOffset),
		Product:   asciiField(b, inquiryProductOffset, inquiryRevisionOffset),
		Revision:  asciiField(b, inquiryRevisionOffset, InquiryStdSize),
		Removable: b[1]&0x80 != 0,
	}, nil
}

func asciiField(b []byte, from, to int) string {
	if from >= len(b) {
		return ""
	}
	to = min(to, len(b))
	return strings.TrimSpace(string(bytes.TrimRight(b[from:to], "\x00")))
}

// STORAGE_DEVICE_DESCRIPTOR layout.
const (
	StorageHeaderSize     = 8
	storageDescriptorSize = 36

	storageRemovableOffset = 10
	storageVendorOffset    = 12
	storageProductOffset   = 16
	storageRevisionOffset  = 20
	storageSerialOffset    = 24
	storageBusTypeOffset   = 28
)

// StorageDescriptorSize returns the Size field of a STORAGE_DESCRIPTOR_HEADER.
func StorageDescriptorSize(header []byte) (int, error) {
	if len(header) < StorageHeaderSize {
		return 0, fmt.Errorf("descriptor header too short: %d bytes", len(header))
	}
	return int(binary.LittleEndian.Uint32(header[4:8])), nil
}

// DecodeStorageDescriptor decodes a STORAGE_DEVICE_DESCRIPTOR. Strings are
// NUL terminated and addressed by offsets from the start of the descriptor;
// a zero offset means absent.
func DecodeStorageDescriptor(b []byte) (Properties, error) {
	if len(b) < storageDescriptorSize {
		return Properties{}, fmt.Errorf("storage descriptor too short: %d bytes", len(b))
	}
	le := binary.LittleEndian
	return Properties{
		Vendor:    cString(b, le.Uint32(b[storageVendorOffset:])),
		Product:   cString(b, le.Uint32(b[storageProductOffset:])),
		Revision:  cString(b, le.Uint32(b[storageRevisionOffset:])),
		Serial:    cString(b, le.Uint32(b[storageSerialOffset:])),
		Bus:       BusType(le.Uint32(b[storageBusTypeOffset:])).String(),
		Removable: b[storageRemovableOffset] != 0,
	}, nil
}

func cString(b []byte, off uint32) string {
	if off == 0 || uint64(off) >= uint64(len(b)) {
		return ""
	}
	s := b[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(string(s))
}

// BusType is the STORAGE_BUS_TYPE of a device.
type BusType uint32

var busTypeNames = []string{
	"Unknown", "SCSI", "ATAPI", "ATA", "1394", "SSA", "Fibre", "USB", "RAID",
	"iSCSI", "SAS", "SATA", "SD", "MMC", "Virtual", "FileBackedVirtual",
	"Spaces", "NVMe", "SCM", "UFS",
}

func (t BusType) String() string {
	if int(t) < len(busTypeNames) {
		return busTypeNames[t]
	}
	return fmt.Sprintf("BusType(%d)", uint32(t))
}
