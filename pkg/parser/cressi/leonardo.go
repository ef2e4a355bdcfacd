/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package cressi decodes dive logs from Cressi Leonardo family
// computers.
package cressi

import (
	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	leonardoHeaderSize = 82
	leonardoInterval   = 20
)

// LeonardoParser decodes the Leonardo fixed-layout format: an 82-byte
// header followed by 2-byte samples at a fixed 20-second interval.
type LeonardoParser struct {
	data []byte
}

func NewLeonardoParser() *LeonardoParser {
	return &LeonardoParser{}
}

func (p *LeonardoParser) Bind(data []byte) error {
	p.data = data
	return nil
}

func (p *LeonardoParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < leonardoHeaderSize {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	return ifc.DateTime{
		Year:     int(p.data[8]) + 2000,
		Month:    int(p.data[9]),
		Day:      int(p.data[10]),
		Hour:     int(p.data[11]),
		Minute:   int(p.data[12]),
		Timezone: ifc.TimezoneNone,
	}, nil
}

func (p *LeonardoParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if len(p.data) < leonardoHeaderSize {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	data := p.data
	switch t {
	case ifc.FieldDiveTime:
		return uint32(array.Uint16LE(data[0x06:])) * 20, nil
	case ifc.FieldMaxDepth:
		return float64(array.Uint16LE(data[0x20:])) / 10.0, nil
	case ifc.FieldGasMixCount:
		return uint32(1), nil
	case ifc.FieldGasMix:
		if index >= 1 {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		return ifc.NewGasMix(float64(data[0x19]), 0), nil
	case ifc.FieldTemperatureMinimum:
		return float64(data[0x22]), nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *LeonardoParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	time := uint32(0)

	offset := leonardoHeaderSize
	for offset+2 <= len(data) {
		value := array.Uint16LE(data[offset:])
		depth := value & 0x07ff
		ascent := (value & 0xc000) >> 14

		time += leonardoInterval
		if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) / 10.0}) {
			return nil
		}

		if ascent != 0 {
			s := ifc.Sample{Kind: ifc.SampleEvent}
			s.Event.Type = ifc.EventAscent
			s.Event.Value = uint32(ascent)
			if !cb(s) {
				return nil
			}
		}

		offset += 2
	}

	return nil
}
