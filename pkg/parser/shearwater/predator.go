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

// Package shearwater decodes dive logs from Shearwater rebreather
// computers. The Predator and Petrel share one block-oriented format
// with different sample sizes.
package shearwater

import (
	"fmt"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	blockSize      = 0x80
	samplePredator = 0x10
	samplePetrel   = 0x20
	maxGasMixes    = 10
	unitsImperial  = 1
)

// PredatorParser decodes Predator dives. With petrel set it decodes
// the Petrel variant: larger samples, a CNS column and an extra
// footer block.
type PredatorParser struct {
	data   []byte
	petrel bool
	serial uint32
	// Cached fields.
	cached bool
	oxygen []byte
	helium []byte
}

func NewPredatorParser(serial uint32) *PredatorParser {
	return &PredatorParser{serial: serial}
}

func NewPetrelParser(serial uint32) *PredatorParser {
	return &PredatorParser{serial: serial, petrel: true}
}

func (p *PredatorParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.oxygen = nil
	p.helium = nil
	return nil
}

// footerOffset locates the summary block at the end of the dive. The
// Petrel appends a final block after it, and so do newer Predator
// firmwares, recognizable by the 0xFFFD end-of-dive marker.
func (p *PredatorParser) footerOffset() (int, error) {
	size := len(p.data)
	if size < 2*blockSize {
		return 0, ifc.ErrDataFormat{What: "dive too small"}
	}

	footer := size - blockSize
	if p.petrel || array.Uint16BE(p.data[footer:]) == 0xFFFD {
		if size < 3*blockSize {
			return 0, ifc.ErrDataFormat{What: "dive too small"}
		}
		footer -= blockSize
	}
	return footer, nil
}

func (p *PredatorParser) cache() {
	if p.cached {
		return
	}

	// Collect the configured gas mixes, skipping empty slots.
	for i := 0; i < maxGasMixes; i++ {
		o2 := p.data[20+i]
		he := p.data[30+i]
		if o2 == 0 && he == 0 {
			continue
		}
		p.oxygen = append(p.oxygen, o2)
		p.helium = append(p.helium, he)
	}
	p.cached = true
}

func (p *PredatorParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 2*blockSize {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "dive too small"}
	}

	ticks := array.Uint32BE(p.data[12:])
	dt := ifc.NewDateTime(time.Unix(int64(ticks), 0).UTC())
	dt.Timezone = ifc.TimezoneNone
	return dt, nil
}

func (p *PredatorParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}

	footer, err := p.footerOffset()
	if err != nil {
		return nil, err
	}

	data := p.data
	imperial := data[8] == unitsImperial

	p.cache()

	switch t {
	case ifc.FieldDiveTime:
		return uint32(array.Uint16BE(data[footer+6:])) * 60, nil
	case ifc.FieldMaxDepth:
		depth := float64(array.Uint16BE(data[footer+4:]))
		if imperial {
			depth *= ifc.Feet
		}
		return depth, nil
	case ifc.FieldGasMixCount:
		return uint32(len(p.oxygen)), nil
	case ifc.FieldGasMix:
		if index >= uint(len(p.oxygen)) {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		return ifc.NewGasMix(float64(p.oxygen[index]), float64(p.helium[index])), nil
	case ifc.FieldSalinity:
		density := array.Uint16BE(data[83:])
		water := ifc.Salinity{Density: float64(density)}
		if density == 1000 {
			water.Type = ifc.WaterFresh
		} else {
			water.Type = ifc.WaterSalt
		}
		return water, nil
	case ifc.FieldAtmospheric:
		return float64(array.Uint16BE(data[47:])) / 1000.0, nil
	case ifc.FieldString:
		switch index {
		case 0:
			return ifc.String{Desc: "Battery at end", Value: fmt.Sprintf("%.1f", float64(data[9])/10.0)}, nil
		case 1:
			return ifc.String{Desc: "Serial", Value: fmt.Sprintf("%08x", p.serial)}, nil
		case 2:
			return ifc.String{Desc: "FW Version", Value: fmt.Sprintf("%2x", data[19])}, nil
		}
		return nil, ifc.ErrUnsupported{What: "string index out of range"}
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *PredatorParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	footer, err := p.footerOffset()
	if err != nil {
		return err
	}

	data := p.data
	imperial := data[8] == unitsImperial

	samplesize := samplePredator
	if p.petrel {
		samplesize = samplePetrel
	}

	// Previous gas mix.
	o2Previous, hePrevious := byte(0), byte(0)

	time := uint32(0)
	offset := blockSize
	for offset < footer {
		// Ignore empty samples.
		if array.IsEqual(data[offset:offset+samplesize], 0x00) {
			offset += samplesize
			continue
		}

		time += 10
		if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
			return nil
		}

		// Depth (1/10 m or ft).
		depth := float64(array.Uint16BE(data[offset:])) / 10.0
		if imperial {
			depth *= ifc.Feet
		}
		if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: depth}) {
			return nil
		}

		temperature := float64(data[offset+13])
		if imperial {
			temperature = ifc.FahrenheitToCelsius(temperature)
		}
		if !cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: temperature}) {
			return nil
		}

		if !cb(ifc.Sample{Kind: ifc.SamplePPO2, PPO2: float64(data[offset+6]) / 100.0}) {
			return nil
		}

		if p.petrel {
			if !cb(ifc.Sample{Kind: ifc.SampleCNS, CNS: float64(data[offset+22]) / 100.0}) {
				return nil
			}
		}

		// Gas change.
		o2 := data[offset+7]
		he := data[offset+8]
		if o2 != o2Previous || he != hePrevious {
			s := ifc.Sample{Kind: ifc.SampleEvent}
			s.Event.Type = ifc.EventGasChange2
			s.Event.Value = uint32(o2) | uint32(he)<<16
			if !cb(s) {
				return nil
			}
			o2Previous, hePrevious = o2, he
		}

		// Deco stop / NDL.
		s := ifc.Sample{Kind: ifc.SampleDeco}
		if decostop := array.Uint16BE(data[offset+2:]); decostop != 0 {
			s.Deco.Kind = ifc.DecoDecoStop
			s.Deco.Depth = float64(decostop)
			if imperial {
				s.Deco.Depth *= ifc.Feet
			}
		} else {
			s.Deco.Kind = ifc.DecoNDL
		}
		s.Deco.Time = uint32(data[offset+9]) * 60
		if !cb(s) {
			return nil
		}

		offset += samplesize
	}

	return nil
}
