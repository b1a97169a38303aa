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

package disk

import (
	"strings"

	"github.com/google/uuid"
)

// GUID is a GUID in its on-disk mixed-endian layout: the first three fields
// are little-endian, the last eight bytes are stored as is.
type GUID [16]byte

// mixedEndianOrder maps RFC 4122 byte positions to on-disk GUID positions.
var mixedEndianOrder = [16]int{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}

// UUID returns g in RFC 4122 byte order.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	for i, j := range mixedEndianOrder {
		u[i] = g[j]
	}
	return u
}

// String renders g as XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX in upper case.
func (g GUID) String() string {
	return strings.ToUpper(g.UUID().String())
}

// IsZero reports whether all sixteen bytes are zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// MarshalText renders the GUID in its canonical text form.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// GUIDFromUUID converts an RFC 4122 UUID to the on-disk layout.
func GUIDFromUUID(u uuid.UUID) GUID {
	var g GUID
	for i, j := range mixedEndianOrder {
		g[j] = u[i]
	}
	return g
}

// ParseGUID parses the canonical text form of a GUID into its on-disk layout.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return GUIDFromUUID(u), nil
}

// MustParseGUID is like ParseGUID but panics on malformed input.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Well-known partition type GUIDs.
var (
	TypeEFISystem           = MustParseGUID("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	TypeBIOSBoot            = MustParseGUID("21686148-6449-6E6F-744E-656564454649")
	TypeMicrosoftReserved   = MustParseGUID("E3C9E316-0B5C-4DB8-817D-F92DF00215AE")
	TypeMicrosoftBasicData  = MustParseGUID("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	TypeWindowsRecovery     = MustParseGUID("DE94BBA4-06D1-4D40-A16A-BFD50179D6AC")
	TypeLinuxFilesystem     = MustParseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	TypeLinuxSwap           = MustParseGUID("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	TypeLinuxLVM            = MustParseGUID("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	TypeLinuxRAID           = MustParseGUID("A19D880F-05FC-4D3B-A006-743F0F84911E")
	TypeLinuxHome           = MustParseGUID("933AC7E1-2EB4-4F13-B844-0E14E2AEF915")
	TypeLinuxRootX86_64     = MustParseGUID("4F68BCE3-E8CD-4DB1-96E7-FBCAF984B709")
	TypeAppleHFSPlus        = MustParseGUID("48465300-0000-11AA-AA11-00306543ECAC")
	TypeAppleAPFS           = MustParseGUID("7C3457EF-0000-11AA-AA11-00306543ECAC")
	TypeFreeBSDUFS          = MustParseGUID("516E7CB6-6ECF-11D6-8FF8-00022D09712B")
	TypeMicrosoftLDMMeta    = MustParseGUID("5808C8AA-7E8F-42E0-85D2-E1E90434CFB3")
	TypeMicrosoftLDMData    = MustParseGUID("AF9B60A0-1431-4F62-BC68-3311714A69AD")
	TypeChromeOSKernel      = MustParseGUID("FE3A2A5D-4F32-41A7-B725-ACCC3285A309")
	TypeChromeOSRoot        = MustParseGUID("3CB8E202-3B7E-47DD-8A3C-7FF2A13CFCEC")
	TypeLinuxDMCrypt        = MustParseGUID("7FFEC5C9-2D00-49B7-8941-3EA10A5586B7")
	TypeLinuxLUKS           = MustParseGUID("CA7D7CCB-63ED-4C53-861C-1742536059CC")
	TypeLinuxReserved       = MustParseGUID("8DA63339-0007-60C0-C436-083AC8230908")
	TypeLinuxServerData     = MustParseGUID("3B8F8425-20E0-4F3B-907F-1A25A76F98E8")
	TypeMicrosoftStorageSpc = MustParseGUID("E75CAF8F-F680-4CEE-AFA3-B001E56EFC2D")
)

var typeNames = map[GUID]string{
	TypeEFISystem:           "EFI System",
	TypeBIOSBoot:            "BIOS boot",
	TypeMicrosoftReserved:   "Microsoft reserved",
	TypeMicrosoftBasicData:  "Microsoft basic data",
	TypeWindowsRecovery:     "Windows recovery environment",
	TypeLinuxFilesystem:     "Linux filesystem",
	TypeLinuxSwap:           "Linux swap",
	TypeLinuxLVM:            "Linux LVM",
	TypeLinuxRAID:           "Linux RAID",
	TypeLinuxHome:           "Linux home",
	TypeLinuxRootX86_64:     "Linux root (x86-64)",
	TypeAppleHFSPlus:        "Apple HFS/HFS+",
	TypeAppleAPFS:           "Apple APFS",
	TypeFreeBSDUFS:          "FreeBSD UFS",
	TypeMicrosoftLDMMeta:    "Microsoft LDM metadata",
	TypeMicrosoftLDMData:    "Microsoft LDM data",
	TypeChromeOSKernel:      "ChromeOS kernel",
	TypeChromeOSRoot:        "ChromeOS root",
	TypeLinuxDMCrypt:        "Linux dm-crypt",
	TypeLinuxLUKS:           "Linux LUKS",
	TypeLinuxReserved:       "Linux reserved",
	TypeLinuxServerData:     "Linux server data",
	TypeMicrosoftStorageSpc: "Microsoft storage spaces",
}

// TypeName returns a human-readable name for a partition type GUID, or
// "Unknown" when the type is not recognised.
func TypeName(g GUID) string {
	if name, ok := typeNames[g]; ok {
		return name
	}
	return "Unknown"
}
