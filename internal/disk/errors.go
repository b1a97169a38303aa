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
	"errors"
	"fmt"
)

// Kind classifies a failure of the sector, classification or parsing layer.
type Kind uint8

const (
	KindUnknown Kind = iota
	InvalidParameter
	OpenFailed
	GeometryQueryFailed
	SeekFailed
	ReadFailed
	InsufficientBuffer
	SectorSizeOutOfRange
	AllocationFailed
	OverflowError
	NoDevicesFound
	GetDiskCountFailed
	SignatureMismatch
	ParseError
	SectorSizeQueryFailed
	ReadLBA0Failed
	ReadLBA1Failed
)

func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "invalid parameter"
	case OpenFailed:
		return "open failed"
	case GeometryQueryFailed:
		return "geometry query failed"
	case SeekFailed:
		return "seek failed"
	case ReadFailed:
		return "read failed"
	case InsufficientBuffer:
		return "insufficient buffer"
	case SectorSizeOutOfRange:
		return "sector size out of range"
	case AllocationFailed:
		return "allocation failed"
	case OverflowError:
		return "offset overflow"
	case NoDevicesFound:
		return "no devices found"
	case GetDiskCountFailed:
		return "get disk count failed"
	case SignatureMismatch:
		return "signature mismatch"
	case ParseError:
		return "parse error"
	case SectorSizeQueryFailed:
		return "sector size query failed"
	case ReadLBA0Failed:
		return "read LBA0 failed"
	case ReadLBA1Failed:
		return "read LBA1 failed"
	default:
		return "unknown error"
	}
}

// Error is returned by every operation of this package. Required is only
// set for InsufficientBuffer and holds the buffer size the caller must supply.
type Error struct {
	Op       string
	Path     string
	Kind     Kind
	Required int
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Path)
	}
	if e.Kind == InsufficientBuffer && e.Required > 0 {
		msg = fmt.Sprintf("%s (need %d bytes)", msg, e.Required)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, disk.ErrReadFailed) works regardless of Op and Path.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidParameter      = &Error{Kind: InvalidParameter}
	ErrOpenFailed            = &Error{Kind: OpenFailed}
	ErrGeometryQueryFailed   = &Error{Kind: GeometryQueryFailed}
	ErrSeekFailed            = &Error{Kind: SeekFailed}
	ErrReadFailed            = &Error{Kind: ReadFailed}
	ErrInsufficientBuffer    = &Error{Kind: InsufficientBuffer}
	ErrSectorSizeOutOfRange  = &Error{Kind: SectorSizeOutOfRange}
	ErrAllocationFailed      = &Error{Kind: AllocationFailed}
	ErrOverflow              = &Error{Kind: OverflowError}
	ErrNoDevicesFound        = &Error{Kind: NoDevicesFound}
	ErrGetDiskCountFailed    = &Error{Kind: GetDiskCountFailed}
	ErrSignatureMismatch     = &Error{Kind: SignatureMismatch}
	ErrParse                 = &Error{Kind: ParseError}
	ErrSectorSizeQueryFailed = &Error{Kind: SectorSizeQueryFailed}
	ErrReadLBA0Failed        = &Error{Kind: ReadLBA0Failed}
	ErrReadLBA1Failed        = &Error{Kind: ReadLBA1Failed}
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RequiredSize returns the buffer size carried by an InsufficientBuffer error.
func RequiredSize(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == InsufficientBuffer {
		return e.Required, true
	}
	return 0, false
}

func newError(op, path string, kind Kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}
