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

// Package uwatec decodes dive logs from Uwatec and Scubapro
// computers: the Memomouse interface for the Aladin series, and the
// Smart/Galileo family with its variable-width bitstream samples.
package uwatec

import (
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// Aladin vendor blob sample type.
const VendorAladin = 0

// MemomouseParser decodes Aladin dive records transferred through
// the Memomouse interface. The model nibble selects the air, nitrox
// or oxygen layout variant.
type MemomouseParser struct {
	data []byte
	// Clock synchronization. The Aladin clock ticks at 2 Hz.
	devtime uint32
	systime int64
}

func NewMemomouseParser(devtime uint32, systime int64) *MemomouseParser {
	return &MemomouseParser{
		devtime: devtime,
		systime: systime,
	}
}

func (p *MemomouseParser) Bind(data []byte) error {
	p.data = data
	return nil
}

func (p *MemomouseParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 11+4 {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	timestamp := array.Uint32LE(p.data[11:])
	ticks := p.systime - int64(p.devtime-timestamp)/2
	return ifc.NewDateTime(time.Unix(ticks, 0)), nil
}

type memomouseLayout struct {
	nitrox bool
	oxygen bool
	air    bool
	header int
}

func memomouseLayoutFor(model byte) memomouseLayout {
	l := memomouseLayout{header: 22}
	switch {
	case model&0xf0 == 0xf0:
		l.nitrox = true
		l.header += 2
	case model&0xf0 == 0xa0:
		l.oxygen = true
		l.header += 3
	}
	if (model&0xf0)%4 == 0 {
		l.air = true
	}
	return l
}

func (p *MemomouseParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	data := p.data
	if len(data) < 18 {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	layout := memomouseLayoutFor(data[3])

	switch t {
	case ifc.FieldDiveTime:
		hundreds := uint32(0)
		if data[4]&0x04 != 0 {
			hundreds = 100
		}
		return (hundreds + array.BCD2Dec(data[5])) * 60, nil
	case ifc.FieldMaxDepth:
		return float64((array.Uint16BE(data[6:])&0xffc0)>>6) * 10.0 / 64.0, nil
	case ifc.FieldGasMixCount:
		return uint32(1), nil
	case ifc.FieldGasMix:
		if index >= 1 {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		o2 := 21.0
		if len(data) >= layout.header+18 {
			// The gas byte sits inside the extended header, so it
			// only exists on the oxygen and nitrox models.
			switch {
			case layout.oxygen:
				o2 = float64(data[18+23])
			case layout.nitrox:
				if v := data[18+23] & 0x0f; v != 0 {
					o2 = 20.0 + 2.0*float64(v)
				}
			}
		}
		return ifc.NewGasMix(o2, 0), nil
	case ifc.FieldTemperatureMinimum:
		return float64(int8(data[15])) / 4.0, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *MemomouseParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}
	data := p.data
	size := len(data)
	if size < 18 {
		return ifc.ErrDataFormat{What: "header too small"}
	}

	layout := memomouseLayoutFor(data[3])

	time := uint32(20)

	offset := layout.header + 18
	for offset+2 <= size {
		value := array.Uint16BE(data[offset:])
		depth := (value & 0xffc0) >> 6
		warnings := value & 0x3f
		offset += 2

		if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) * 10.0 / 64.0}) {
			return nil
		}

		events := []ifc.EventType{
			ifc.EventDecoStop,
			ifc.EventRBT,
			ifc.EventAscent,
			ifc.EventCeiling,
			ifc.EventWorkload,
			ifc.EventTransmitter,
		}
		for i, et := range events {
			if warnings&(1<<uint(i)) == 0 {
				continue
			}
			s := ifc.Sample{Kind: ifc.SampleEvent}
			s.Event.Type = et
			if !cb(s) {
				return nil
			}
		}

		// Once a minute the stream carries a decompression blob,
		// with an extra oxygen byte on the O2 series.
		if time%60 == 0 {
			blob := 1
			if layout.oxygen {
				blob++
			}
			if offset+blob > size {
				return ifc.ErrDataFormat{What: "truncated vendor block"}
			}
			s := ifc.Sample{Kind: ifc.SampleVendor}
			s.Vendor.Type = VendorAladin
			s.Vendor.Data = data[offset : offset+blob]
			offset += blob
			if !cb(s) {
				return nil
			}
		}

		time += 20
	}

	return nil
}
