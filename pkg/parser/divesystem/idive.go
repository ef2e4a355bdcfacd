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

// Package divesystem decodes dive logs from Divesystem (Ratio) iDive
// and iX3M computers.
package divesystem

import (
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	headerSize = 0x32
	sampleSize = 0x2A

	maxGasMixes = 8

	// Timestamps count seconds since 2008-01-01 00:00:00.
	epoch = 1199145600
)

// IDiveParser decodes iDive dives: a fixed header followed by
// fixed-size samples carrying absolute timestamps. The gas mix list
// is built from the mixes actually breathed during the dive.
type IDiveParser struct {
	data []byte
	// Cached fields.
	cached   bool
	divetime uint32
	maxdepth uint32
	oxygen   []byte
	helium   []byte
}

func NewIDiveParser() *IDiveParser {
	return &IDiveParser{}
}

func (p *IDiveParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	p.oxygen = nil
	p.helium = nil
	return nil
}

func (p *IDiveParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < headerSize {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	ticks := int64(array.Uint32LE(p.data[7:])) + epoch
	return ifc.NewDateTime(time.Unix(ticks, 0)), nil
}

func (p *IDiveParser) cache() error {
	if p.cached {
		return nil
	}
	return p.Samples(nil)
}

func (p *IDiveParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if len(p.data) < headerSize {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	if err := p.cache(); err != nil {
		return nil, err
	}

	switch t {
	case ifc.FieldDiveTime:
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		return float64(p.maxdepth) / 10.0, nil
	case ifc.FieldGasMixCount:
		return uint32(len(p.oxygen)), nil
	case ifc.FieldGasMix:
		if index >= uint(len(p.oxygen)) {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		return ifc.NewGasMix(float64(p.oxygen[index]), float64(p.helium[index])), nil
	case ifc.FieldAtmospheric:
		return float64(array.Uint16LE(p.data[11:])) / 1000.0, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *IDiveParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)

	var oxygen, helium []byte
	o2Previous, hePrevious := -1, -1

	time := uint32(0)
	maxdepth := uint32(0)

	offset := headerSize
	for offset+sampleSize <= size {
		// Time (seconds). Samples store absolute timestamps, which
		// must be strictly increasing.
		timestamp := array.Uint32LE(data[offset+2:])
		if timestamp <= time {
			return ifc.ErrDataFormat{What: "timestamp moved backwards"}
		}
		time = timestamp
		if cb != nil && !cb(ifc.Sample{Kind: ifc.SampleTime, Time: timestamp}) {
			return nil
		}

		// Depth (1/10 m).
		depth := uint32(array.Uint16LE(data[offset+6:]))
		if depth > maxdepth {
			maxdepth = depth
		}
		if cb != nil && !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) / 10.0}) {
			return nil
		}

		temperature := int16(array.Uint16LE(data[offset+8:]))
		if cb != nil && !cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: float64(temperature) / 10.0}) {
			return nil
		}

		// Gas change.
		o2 := data[offset+10]
		he := data[offset+11]
		if int(o2) != o2Previous || int(he) != hePrevious {
			// Find the mix in the list, adding it if new.
			i := 0
			for i < len(oxygen) {
				if o2 == oxygen[i] && he == helium[i] {
					break
				}
				i++
			}
			if i >= len(oxygen) {
				if i >= maxGasMixes {
					return ifc.ErrDataFormat{What: "too many gas mixes"}
				}
				oxygen = append(oxygen, o2)
				helium = append(helium, he)
			}

			s := ifc.Sample{Kind: ifc.SampleEvent}
			s.Event.Type = ifc.EventGasChange2
			s.Event.Value = uint32(o2) | uint32(he)<<16
			if cb != nil && !cb(s) {
				return nil
			}
			o2Previous, hePrevious = int(o2), int(he)
		}

		// Deco stop / NDL.
		deco := array.Uint16LE(data[offset+21:])
		tts := array.Uint16LE(data[offset+23:])
		if tts != 0xFFFF {
			s := ifc.Sample{Kind: ifc.SampleDeco}
			if deco != 0 {
				s.Deco.Kind = ifc.DecoDecoStop
				s.Deco.Depth = float64(deco) / 10.0
			} else {
				s.Deco.Kind = ifc.DecoNDL
			}
			s.Deco.Time = uint32(tts)
			if cb != nil && !cb(s) {
				return nil
			}
		}

		cns := array.Uint16LE(data[offset+29:])
		if cb != nil && !cb(ifc.Sample{Kind: ifc.SampleCNS, CNS: float64(cns) / 100.0}) {
			return nil
		}

		offset += sampleSize
	}

	// Cache the data for later use.
	p.oxygen = oxygen
	p.helium = helium
	p.maxdepth = maxdepth
	p.divetime = time
	p.cached = true

	return nil
}
