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

package fs

import (
	"runtime"
	"strings"
	"unicode"
)

// NormalizeDevicePath expands short device names into the path the platform
// opener expects: "sda" becomes "/dev/sda" on Linux; "0", "PhysicalDrive0"
// and "C:" become "\\.\PhysicalDrive0" and "\\.\C:" on Windows.
func NormalizeDevicePath(path string) string {
	path = strings.TrimSpace(path)
	if runtime.GOOS == "windows" {
		return normalizeWindowsPath(path)
	}
	if runtime.GOOS == "linux" && path != "" && !strings.ContainsRune(path, '/') && isBlockName(path) {
		return "/dev/" + path
	}
	return path
}

func normalizeWindowsPath(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	upper := strings.ToUpper(path)

	if strings.HasPrefix(upper, `\\.\`) || strings.HasPrefix(upper, `\\?\`) {
		return path
	}

	if isDigits(path) {
		return `\\.\PhysicalDrive` + path
	}
	if strings.HasPrefix(upper, "PHYSICALDRIVE") && isDigits(path[len("PHYSICALDRIVE"):]) {
		return `\\.\PhysicalDrive` + path[len("PHYSICALDRIVE"):]
	}

	// "C:" or "C:\" (drive letter only)
	if (len(upper) == 2 || (len(upper) == 3 && upper[2] == '\\')) && upper[1] == ':' && unicode.IsLetter(rune(upper[0])) {
		return `\\.\` + string(upper[0]) + `:`
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isBlockName matches kernel block device names such as sda, vdb1, nvme0n1,
// mmcblk0 or dm-0.
func isBlockName(name string) bool {
	prefixes := []string{"sd", "vd", "hd", "xvd", "nvme", "mmcblk", "dm-", "md", "loop"}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
