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

package reefnet

import (
	"bytes"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// SensusUltraParser decodes the Sensus Ultra format: a 16-byte
// header, 4-byte samples carrying temperature (0.01 K) and absolute
// pressure (millibar), terminated by 0xFFFFFFFF. Samples shallower
// than the configured dive threshold do not count towards the dive
// time and maximum depth.
type SensusUltraParser struct {
	data        []byte
	atmospheric float64
	hydrostatic float64
	// Clock synchronization.
	devtime uint32
	systime int64
	// Cached fields.
	cached   bool
	divetime uint32
	maxdepth uint32
}

// NewSensusUltraParser synchronizes the device clock against the
// host: devtime is the device timestamp observed at Unix time systime.
func NewSensusUltraParser(devtime uint32, systime int64) *SensusUltraParser {
	return &SensusUltraParser{
		atmospheric: ifc.Atm,
		hydrostatic: ifc.DensitySalt * ifc.Gravity,
		devtime:     devtime,
		systime:     systime,
	}
}

// SetCalibration overrides the atmospheric pressure (Pa) and the
// hydrostatic gradient (Pa/m) used for depth conversion.
func (p *SensusUltraParser) SetCalibration(atmospheric, hydrostatic float64) {
	p.atmospheric = atmospheric
	p.hydrostatic = hydrostatic
}

func (p *SensusUltraParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	return nil
}

func (p *SensusUltraParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 4+4 {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	timestamp := array.Uint32LE(p.data[4:])
	ticks := p.systime - int64(p.devtime-timestamp)
	return ifc.NewDateTime(time.Unix(ticks, 0)), nil
}

func (p *SensusUltraParser) cache() {
	if p.cached {
		return
	}

	data := p.data
	interval := array.Uint16LE(data[8:])
	threshold := array.Uint16LE(data[10:])

	maxdepth := uint32(0)
	nsamples := uint32(0)
	offset := 16
	for offset+4 <= len(data) && !bytes.Equal(data[offset:offset+4], []byte{0xff, 0xff, 0xff, 0xff}) {
		depth := uint32(array.Uint16LE(data[offset+2:]))
		if depth >= uint32(threshold) {
			if depth > maxdepth {
				maxdepth = depth
			}
			nsamples++
		}
		offset += 4
	}

	p.cached = true
	p.divetime = nsamples * uint32(interval)
	p.maxdepth = maxdepth
}

func (p *SensusUltraParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if len(p.data) < 20 {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	p.cache()

	switch t {
	case ifc.FieldDiveTime:
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		return (float64(p.maxdepth)*ifc.Bar/1000.0 - p.atmospheric) / p.hydrostatic, nil
	case ifc.FieldGasMixCount:
		return uint32(0), nil
	case ifc.FieldDiveMode:
		return ifc.DiveModeGauge, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *SensusUltraParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)

	offset := 0
	for offset+4 <= size {
		if !array.IsEqual(data[offset:offset+4], 0x00) {
			offset++
			continue
		}
		if offset+16 > size {
			return ifc.ErrDataFormat{What: "truncated dive header"}
		}

		time := uint32(0)
		interval := array.Uint16LE(data[offset+8:])

		offset += 16
		for offset+4 <= size && !bytes.Equal(data[offset:offset+4], []byte{0xff, 0xff, 0xff, 0xff}) {
			time += uint32(interval)
			if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
				return nil
			}

			temperature := array.Uint16LE(data[offset:])
			if !cb(ifc.Sample{
				Kind:        ifc.SampleTemperature,
				Temperature: float64(temperature)/100.0 - 273.15,
			}) {
				return nil
			}

			depth := array.Uint16LE(data[offset+2:])
			if !cb(ifc.Sample{
				Kind:  ifc.SampleDepth,
				Depth: (float64(depth)*ifc.Bar/1000.0 - p.atmospheric) / p.hydrostatic,
			}) {
				return nil
			}

			offset += 4
		}
		break
	}

	return nil
}
