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

package oceanic

import (
	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// VTProParser decodes the first generation VT Pro / Versa Pro log
// format. Samples carry their own minute:second timestamp, so the
// stream is validated for monotonic time while decoding.
type VTProParser struct {
	data []byte
	// Cached fields.
	cached   bool
	divetime uint32
	maxdepth float64
}

func NewVTProParser() *VTProParser {
	return &VTProParser{}
}

func (p *VTProParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	return nil
}

func (p *VTProParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 8 {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	d := p.data
	dt := ifc.DateTime{Timezone: ifc.TimezoneNone}

	// The logbook entry stores only the last digit of the year, but
	// the full year is also available in the dive header.
	if len(p.data) < 40 {
		dt.Year = int(array.BCD2Dec(d[4]&0x0F)) + 2000
	} else {
		dt.Year = int(array.BCD2Dec(((d[32+3]&0xC0)>>2)+((d[32+2]&0xF0)>>4))) + 2000
	}
	dt.Month = int(d[4]&0xF0) >> 4
	dt.Day = int(array.BCD2Dec(d[3]))
	dt.Hour = int(array.BCD2Dec(d[1] & 0x7F))
	dt.Minute = int(array.BCD2Dec(d[0]))

	// Convert to a 24-hour clock.
	dt.Hour %= 12
	if d[1]&0x80 != 0 {
		dt.Hour += 12
	}

	return dt, nil
}

func (p *VTProParser) cache() error {
	if p.cached {
		return nil
	}

	var stats ifc.Statistics
	if err := p.Samples(stats.Sample); err != nil {
		return err
	}

	p.divetime = stats.DiveTime
	p.maxdepth = stats.MaxDepth
	p.cached = true
	return nil
}

func (p *VTProParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)
	if size < 7*pageSize/2 {
		return nil, ifc.ErrDataFormat{What: "dive too small"}
	}

	if err := p.cache(); err != nil {
		return nil, err
	}

	footer := size - pageSize

	switch t {
	case ifc.FieldDiveTime:
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		return float64(int(data[footer])|int(data[footer+1]&0x0F)<<8) * ifc.Feet, nil
	case ifc.FieldGasMixCount:
		return uint32(1), nil
	case ifc.FieldGasMix:
		if index >= 1 {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		oxygen := float64(data[footer+3])
		if oxygen == 0 {
			oxygen = 21
		}
		return ifc.NewGasMix(oxygen, 0), nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *VTProParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)
	if size < 7*pageSize/2 {
		return ifc.ErrDataFormat{What: "dive too small"}
	}

	interval := 0
	switch (data[0x27] >> 4) & 0x07 {
	case 0:
		interval = 2
	case 1:
		interval = 15
	case 2:
		interval = 30
	case 3:
		interval = 60
	}

	// State for the timestamp processing.
	timestamp, count, i := 0, 0, 0

	time := 0
	offset := 5 * pageSize / 2
	for offset+pageSize/2 <= size-pageSize {
		// Ignore empty samples.
		if array.IsEqual(data[offset:offset+pageSize/2], 0x00) {
			offset += pageSize / 2
			continue
		}

		current := int(array.BCD2Dec(data[offset+1]&0x0F))*60 + int(array.BCD2Dec(data[offset]))
		if current < timestamp {
			return ifc.ErrDataFormat{What: "timestamp moved backwards"}
		}

		if current != timestamp || count == 0 {
			// A sample with a new timestamp.
			i = 0
			if interval != 0 {
				// With a time based sample interval, the maximum
				// number of samples per timestamp is fixed.
				count = 60 / interval
			} else {
				// With a depth based sample interval, the number of
				// samples per timestamp needs to be counted.
				count = 1
				idx := offset + pageSize/2
				for idx+pageSize/2 <= size-pageSize {
					if array.IsEqual(data[idx:idx+pageSize/2], 0x00) {
						idx += pageSize / 2
						continue
					}
					next := int(array.BCD2Dec(data[idx+1]&0x0F))*60 + int(array.BCD2Dec(data[idx]))
					if next != current {
						break
					}
					idx += pageSize / 2
					count++
				}
			}
		} else {
			// Another sample with the same timestamp.
			i++
		}

		if interval != 0 {
			if current > timestamp+1 {
				return ifc.ErrDataFormat{What: "unexpected timestamp jump"}
			}
			if i >= count {
				offset += pageSize / 2
				continue
			}
		}

		timestamp = current

		if interval != 0 {
			time += interval
		} else {
			time = timestamp*60 + int(float64((i+1)*60)/float64(count)+0.5)
		}
		if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: uint32(time)}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SampleVendor, Vendor: ifc.Vendor{Type: VendorVTPro, Data: data[offset : offset+pageSize/2]}}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(data[offset+3]) * ifc.Feet}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: ifc.FahrenheitToCelsius(float64(data[offset+6]))}) {
			return nil
		}

		offset += pageSize / 2
	}

	return nil
}
