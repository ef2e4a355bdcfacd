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

// Package reefnet decodes dive logs from ReefNet Sensus data loggers.
// Both models record absolute pressure: depth is derived with the
// parser's atmospheric/hydrostatic calibration.
package reefnet

import (
	"bytes"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// SensusProParser decodes the Sensus Pro format: a 10-byte header,
// 2-byte samples packing depth (fsw) and temperature (degrees F),
// terminated by 0xFFFF.
type SensusProParser struct {
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

// NewSensusProParser synchronizes the device clock against the host:
// devtime is the device timestamp observed at Unix time systime.
func NewSensusProParser(devtime uint32, systime int64) *SensusProParser {
	return &SensusProParser{
		atmospheric: ifc.Atm,
		hydrostatic: ifc.DensitySalt * ifc.Gravity,
		devtime:     devtime,
		systime:     systime,
	}
}

// SetCalibration overrides the atmospheric pressure (Pa) and the
// hydrostatic gradient (Pa/m) used for depth conversion.
func (p *SensusProParser) SetCalibration(atmospheric, hydrostatic float64) {
	p.atmospheric = atmospheric
	p.hydrostatic = hydrostatic
}

func (p *SensusProParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	return nil
}

func (p *SensusProParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 6+4 {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	timestamp := array.Uint32LE(p.data[6:])
	ticks := p.systime - int64(p.devtime-timestamp)
	return ifc.NewDateTime(time.Unix(ticks, 0)), nil
}

func (p *SensusProParser) cache() error {
	if p.cached {
		return nil
	}

	data := p.data
	interval := array.Uint16LE(data[4:])

	maxdepth := uint32(0)
	nsamples := uint32(0)
	offset := 10
	for offset+2 <= len(data) && !bytes.Equal(data[offset:offset+2], []byte{0xff, 0xff}) {
		value := array.Uint16LE(data[offset:])
		depth := uint32(value & 0x01ff)
		if depth > maxdepth {
			maxdepth = depth
		}
		nsamples++
		offset += 2
	}

	p.cached = true
	p.divetime = nsamples * uint32(interval)
	p.maxdepth = maxdepth
	return nil
}

func (p *SensusProParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if len(p.data) < 12 {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	if err := p.cache(); err != nil {
		return nil, err
	}

	switch t {
	case ifc.FieldDiveTime:
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		return (float64(p.maxdepth)*ifc.FSW - p.atmospheric) / p.hydrostatic, nil
	case ifc.FieldGasMixCount:
		return uint32(0), nil
	case ifc.FieldDiveMode:
		return ifc.DiveModeGauge, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *SensusProParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)

	// Scan for the all-zero dive header, then decode until the
	// 0xFFFF footer.
	offset := 0
	for offset+4 <= size {
		if !array.IsEqual(data[offset:offset+4], 0x00) {
			offset++
			continue
		}
		if offset+10 > size {
			return ifc.ErrDataFormat{What: "truncated dive header"}
		}

		time := uint32(0)
		interval := array.Uint16LE(data[offset+4:])

		offset += 10
		for offset+2 <= size && !bytes.Equal(data[offset:offset+2], []byte{0xff, 0xff}) {
			value := array.Uint16LE(data[offset:])
			depth := value & 0x01ff
			temperature := (value & 0xfe00) >> 9

			time += uint32(interval)
			if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
				return nil
			}

			if !cb(ifc.Sample{
				Kind:        ifc.SampleTemperature,
				Temperature: ifc.FahrenheitToCelsius(float64(temperature)),
			}) {
				return nil
			}

			if !cb(ifc.Sample{
				Kind:  ifc.SampleDepth,
				Depth: (float64(depth)*ifc.FSW - p.atmospheric) / p.hydrostatic,
			}) {
				return nil
			}

			offset += 2
		}
		break
	}

	return nil
}
