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

package dfxml

import (
	"encoding/xml"
	"errors"
	"io"
)

// Report is a decoded partition report.
type Report struct {
	Source  Source
	Volumes []Volume
}

// ReadReport decodes the <source> and every <volume> element from r.
func ReadReport(r io.Reader) (*Report, error) {
	dec := xml.NewDecoder(r)
	rep := &Report{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "source":
			if err := dec.DecodeElement(&rep.Source, &start); err != nil {
				return nil, err
			}
		case "volume":
			var v Volume
			if err := dec.DecodeElement(&v, &start); err != nil {
				return nil, err
			}
			rep.Volumes = append(rep.Volumes, v)
		}
	}
	return rep, nil
}

// ReadVolumes parses and returns all <volume> elements from the reader.
func ReadVolumes(r io.Reader) ([]Volume, error) {
	rep, err := ReadReport(r)
	if err != nil {
		return nil, err
	}
	return rep.Volumes, nil
}
