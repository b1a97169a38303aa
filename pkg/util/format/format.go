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

package format

import "fmt"

var units = []string{"KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders b with a binary unit, dropping the decimals of whole
// values: 1536 is "1.50KB", 1<<20 is "1MB".
func FormatBytes(b int64) string {
	if b < 1024 && b > -1024 {
		return fmt.Sprintf("%dB", b)
	}

	val := float64(b)
	unit := ""
	for _, u := range units {
		if val < 1024 && val > -1024 {
			break
		}
		val /= 1024
		unit = u
	}

	if val == float64(int64(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// FormatSectors renders the size of n sectors of sectorSize bytes.
func FormatSectors(n uint64, sectorSize uint32) string {
	return FormatBytes(int64(n * uint64(sectorSize)))
}
