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

//go:build !linux && !windows

package enumerate

import (
	"errors"

	"github.com/ostafen/diskprobe/internal/fs"
)

var errUnsupported = errors.New("physical disk enumeration is not supported on this platform")

type unsupportedPlatform struct{}

// Native returns a platform whose enumeration always fails.
func Native() Platform {
	return unsupportedPlatform{}
}

func (unsupportedPlatform) Interfaces() (Source, error) { return nil, errUnsupported }

func (unsupportedPlatform) Open(path string) (fs.Device, error) { return fs.Open(path) }

func (unsupportedPlatform) PropertySize(fs.Device) (int, error) { return 0, errUnsupported }

func (unsupportedPlatform) Property(fs.Device, []byte) (int, error) { return 0, errUnsupported }

func (unsupportedPlatform) Format() DescriptorFormat { return FormatNone }
