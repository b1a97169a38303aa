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

//go:build windows

package enumerate

import (
	"fmt"
	"unsafe"

	"github.com/ostafen/diskprobe/internal/fs"
	"golang.org/x/sys/windows"
)

const (
	methodBuffered    = 0
	fileAnyAccess     = 0
	ioctlStorageBase  = 0x0000002D
	storageDeviceProp = 0
	propStandardQuery = 0

	ioctlStorageQueryProperty = (ioctlStorageBase << 16) | (fileAnyAccess << 14) | (0x0500 << 2) | methodBuffered
)

// GUID_DEVINTERFACE_DISK
var guidDevInterfaceDisk = windows.GUID{
	Data1: 0x53F56307,
	Data2: 0xB6BF,
	Data3: 0x11D0,
	Data4: [8]byte{0x94, 0xF2, 0x00, 0xA0, 0xC9, 0x1E, 0xFB, 0x8B},
}

type storagePropertyQuery struct {
	PropertyID           uint32
	QueryType            uint32
	AdditionalParameters [4]byte
}

type cfgmgrPlatform struct{}

// Native returns the platform backed by the configuration manager and
// IOCTL_STORAGE_QUERY_PROPERTY.
func Native() Platform {
	return cfgmgrPlatform{}
}

type interfaceList []string

func (l interfaceList) Next(i int) error {
	if i < 0 || i >= len(l) {
		return ErrNoMoreItems
	}
	return nil
}

func (l interfaceList) Path(i int) (string, error) {
	if i < 0 || i >= len(l) {
		return "", fmt.Errorf("interface %d out of range", i)
	}
	return l[i], nil
}

func (cfgmgrPlatform) Interfaces() (Source, error) {
	paths, err := windows.CM_Get_Device_Interface_List("", &guidDevInterfaceDisk, windows.CM_GET_DEVICE_INTERFACE_LIST_PRESENT)
	if err != nil {
		return nil, fmt.Errorf("CM_Get_Device_Interface_List failed: %w", err)
	}
	return interfaceList(paths), nil
}

func (cfgmgrPlatform) Open(path string) (fs.Device, error) {
	return fs.Open(path)
}

func queryProperty(dev fs.Device, out []byte) (int, error) {
	query := storagePropertyQuery{PropertyID: storageDeviceProp, QueryType: propStandardQuery}
	var returned uint32
	err := windows.DeviceIoControl(
		windows.Handle(dev.Fd()),
		ioctlStorageQueryProperty,
		(*byte)(unsafe.Pointer(&query)),
		uint32(unsafe.Sizeof(query)),
		&out[0],
		uint32(len(out)),
		&returned,
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("DeviceIoControl(IOCTL_STORAGE_QUERY_PROPERTY) failed: %w", err)
	}
	return int(returned), nil
}

func (cfgmgrPlatform) PropertySize(dev fs.Device) (int, error) {
	header := make([]byte, StorageHeaderSize)
	n, err := queryProperty(dev, header)
	if err != nil {
		return 0, err
	}
	return StorageDescriptorSize(header[:n])
}

func (cfgmgrPlatform) Property(dev fs.Device, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("empty property buffer")
	}
	return queryProperty(dev, buf)
}

func (cfgmgrPlatform) Format() DescriptorFormat {
	return FormatStorageDevice
}
