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

// Package suunto decodes dive logs from Suunto computers: the older
// EON/Solution/Spyder byte-delta format, and the EON Steel with its
// self-describing tagged container format.
package suunto

import (
	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// EONParser decodes the EON/Solution format: a fixed header followed
// by one byte per sample. Bytes outside 0x7d..0x82 are signed depth
// deltas in feet, the rest are event markers, 0x80 ends the profile.
// The Spyder variant stores its datetime and temperature differently.
type EONParser struct {
	data   []byte
	spyder bool
	// Cached fields.
	cached   bool
	divetime uint32
	maxdepth uint32
	marker   int
	nitrox   bool
}

func NewEONParser(spyder bool) *EONParser {
	return &EONParser{spyder: spyder}
}

func (p *EONParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	p.marker = 0
	p.nitrox = false
	return nil
}

func (p *EONParser) cache() error {
	if p.cached {
		return nil
	}

	data := p.data
	size := len(data)
	if size < 13 {
		return ifc.ErrDataFormat{What: "header too small"}
	}

	// The Solution Nitrox/Vario stores nitrox data, not tank pressure.
	nitrox := !p.spyder && data[4]&0x80 != 0

	interval := uint32(data[3])
	nsamples := uint32(0)
	depth, maxdepth := int32(0), int32(0)
	offset := 11
	for offset < size && data[offset] != 0x80 {
		value := data[offset]
		offset++
		if value < 0x7d || value > 0x82 {
			depth += int32(int8(value))
			if depth > maxdepth {
				maxdepth = depth
			}
			nsamples++
		}
	}

	marker := offset
	if marker+2 >= size || data[marker] != 0x80 {
		return ifc.ErrDataFormat{What: "no valid end marker found"}
	}

	p.divetime = nsamples * interval
	p.maxdepth = uint32(maxdepth)
	p.marker = marker
	p.nitrox = nitrox
	p.cached = true
	return nil
}

func (p *EONParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 6+5 {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	d := p.data[6:]
	dt := ifc.DateTime{Timezone: ifc.TimezoneNone}
	if p.spyder {
		dt.Year = int(d[0])
		if d[0] < 90 {
			dt.Year += 2000
		} else {
			dt.Year += 1900
		}
		dt.Month = int(d[1])
		dt.Day = int(d[2])
		dt.Hour = int(d[3])
		dt.Minute = int(d[4])
	} else {
		year := int(array.BCD2Dec(d[0]))
		if year < 85 {
			year += 2000
		} else {
			year += 1900
		}
		dt.Year = year
		dt.Month = int(array.BCD2Dec(d[1]))
		dt.Day = int(array.BCD2Dec(d[2]))
		dt.Hour = int(array.BCD2Dec(d[3]))
		dt.Minute = int(array.BCD2Dec(d[4]))
	}
	return dt, nil
}

func (p *EONParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if err := p.cache(); err != nil {
		return nil, err
	}

	data := p.data

	oxygen := 21.0
	beginpressure, endpressure := 0.0, 0.0
	if p.nitrox {
		oxygen = float64(data[0x05])
	} else {
		beginpressure = float64(data[5]) * 2
		endpressure = float64(data[p.marker+2]) * 2
	}

	switch t {
	case ifc.FieldDiveTime:
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		return float64(p.maxdepth) * ifc.Feet, nil
	case ifc.FieldGasMixCount:
		return uint32(1), nil
	case ifc.FieldGasMix:
		if index >= 1 {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		return ifc.NewGasMix(oxygen, 0), nil
	case ifc.FieldTankCount:
		if beginpressure == 0 && endpressure == 0 {
			return uint32(0), nil
		}
		return uint32(1), nil
	case ifc.FieldTank:
		return ifc.Tank{
			Type:          ifc.TankVolumeNone,
			GasMix:        0,
			BeginPressure: beginpressure,
			EndPressure:   endpressure,
		}, nil
	case ifc.FieldTemperatureMinimum:
		if p.spyder {
			return float64(int8(data[p.marker+1])), nil
		}
		return float64(data[p.marker+1]) - 40, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *EONParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}
	if err := p.cache(); err != nil {
		return err
	}

	data := p.data
	size := len(data)

	// The dive starts and ends at the surface.
	if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: 0}) {
		return nil
	}
	if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: 0}) {
		return nil
	}

	depth := int32(0)
	time := uint32(0)
	interval := uint32(data[3])
	complete := true
	offset := 11
	for offset < size && data[offset] != 0x80 {
		value := data[offset]
		offset++

		if complete {
			time += interval
			if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
				return nil
			}
			complete = false
		}

		if value < 0x7d || value > 0x82 {
			depth += int32(int8(value))
			if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) * ifc.Feet}) {
				return nil
			}
			complete = true
		} else {
			var et ifc.EventType
			switch value {
			case 0x7d: // Surface
				et = ifc.EventSurface
			case 0x7e: // Deco, ASC
				et = ifc.EventDecoStop
			case 0x7f: // Ceiling, ERR
				et = ifc.EventCeiling
			case 0x81: // Slow
				et = ifc.EventAscent
			default:
				et = ifc.EventNone
			}
			if et != ifc.EventNone {
				s := ifc.Sample{Kind: ifc.SampleEvent}
				s.Event.Type = et
				if !cb(s) {
					return nil
				}
			}
		}
	}

	if complete {
		time += interval
		if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
			return nil
		}
	}
	if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: 0}) {
		return nil
	}

	return nil
}
