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

// Package oceanic decodes dive logs from Oceanic and Aeris computers.
// The formats are page-oriented: a fixed-size header, half-page or
// full-page samples, and a footer. Layouts vary widely per model, so
// the parsers are driven by the model number.
package oceanic

import (
	"fmt"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const pageSize = 16

// Vendor sample types.
const (
	VendorAtom2 = 2
	VendorVTPro = 3
)

// Model numbers, as reported by the version command.
const (
	ModelAtom1     = 0x4250
	ModelEpicA     = 0x4257
	ModelVT3       = 0x4258
	ModelT3A       = 0x4259
	ModelAtom2     = 0x4342
	ModelGeo       = 0x4344
	ModelManta     = 0x4345
	ModelDatamask  = 0x4347
	ModelCompumask = 0x4348
	ModelF10       = 0x434D
	ModelOC1A      = 0x434E
	ModelWisdom2   = 0x4350
	ModelInsight2  = 0x4353
	ModelElement2  = 0x4357
	ModelVeo20     = 0x4359
	ModelVeo30     = 0x435A
	ModelZen       = 0x4441
	ModelZenAir    = 0x4442
	ModelAtmosAI2  = 0x4443
	ModelProPlus21 = 0x4444
	ModelGeo20     = 0x4446
	ModelVT4       = 0x4447
	ModelOC1B      = 0x4449
	ModelVoyager2G = 0x444B
	ModelAtom3     = 0x444C
	ModelDG03      = 0x444D
	ModelOCS       = 0x4450
	ModelOC1C      = 0x4451
	ModelVT41      = 0x4452
	ModelEpicB     = 0x4453
	ModelT3B       = 0x4455
	ModelAtom31    = 0x4456
	ModelA300AI    = 0x4457
	ModelWisdom3   = 0x4458
	ModelA300      = 0x445A
	ModelTX1       = 0x4542
	ModelAmphos    = 0x4545
	ModelAmphosAir = 0x4546
	ModelProPlus3  = 0x4548
	ModelF11       = 0x4549
	ModelOCI       = 0x454B
	ModelA300CS    = 0x454C
	ModelVTX       = 0x4557
)

const (
	modeNormal   = 0
	modeGauge    = 1
	modeFreedive = 2
)

// Atom2Parser decodes the second generation Oceanic log format,
// shared by a large family of models with per-model layout quirks.
type Atom2Parser struct {
	data       []byte
	model      uint32
	serial     uint32
	headersize int
	footersize int
	// Cached fields.
	cached   bool
	divetime uint32
	maxdepth float64

	now func() time.Time
}

func NewAtom2Parser(model, serial uint32) *Atom2Parser {
	p := &Atom2Parser{
		model:      model,
		serial:     serial,
		headersize: 9 * pageSize / 2,
		footersize: 2 * pageSize / 2,
		now:        time.Now,
	}

	switch model {
	case ModelDatamask, ModelCompumask, ModelGeo, ModelGeo20,
		ModelVeo20, ModelVeo30, ModelOCS, ModelProPlus3,
		ModelA300, ModelManta, ModelInsight2, ModelZen:
		p.headersize -= pageSize
	case ModelVT4, ModelVT41:
		p.headersize += pageSize
	case ModelTX1:
		p.headersize += 2 * pageSize
	case ModelAtom1:
		p.headersize -= 2 * pageSize
	case ModelF10:
		p.headersize = 3 * pageSize
		p.footersize = pageSize / 2
	case ModelF11:
		p.headersize = 5 * pageSize
		p.footersize = pageSize / 2
	case ModelA300CS, ModelVTX:
		p.headersize = 5 * pageSize
	}

	return p
}

func (p *Atom2Parser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.divetime = 0
	p.maxdepth = 0
	return nil
}

// headerOffset is the offset of the header sample holding the initial
// temperature, tank pressure and gas mixes.
func (p *Atom2Parser) headerOffset() int {
	if p.model == ModelVT4 || p.model == ModelVT41 || p.model == ModelA300AI {
		return 3 * pageSize
	}
	return p.headersize - pageSize/2
}

func (p *Atom2Parser) diveMode() int {
	switch p.model {
	case ModelF10, ModelF11:
		return modeFreedive
	case ModelT3B, ModelVT3, ModelDG03:
		return int(p.data[2]&0xC0) >> 6
	case ModelVeo20, ModelVeo30:
		return int(p.data[1]&0x60) >> 5
	}
	return modeNormal
}

func (p *Atom2Parser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}

	header := 8
	if p.model == ModelF10 || p.model == ModelF11 {
		header = 32
	}
	if len(p.data) < header {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	d := p.data
	dt := ifc.DateTime{Timezone: ifc.TimezoneNone}

	// AM/PM bit of the 12-hour clock.
	pm := d[1]&0x80 != 0

	switch p.model {
	case ModelOC1A, ModelOC1B, ModelOC1C, ModelOCS, ModelVT4,
		ModelVT41, ModelAtom3, ModelAtom31, ModelA300AI, ModelOCI:
		dt.Year = int((d[5]&0xE0)>>5) + int((d[7]&0xE0)>>2) + 2000
		dt.Month = int(d[3] & 0x0F)
		dt.Day = int((d[0]&0x80)>>3) + int((d[3]&0xF0)>>4)
		dt.Hour = int(array.BCD2Dec(d[1] & 0x1F))
		dt.Minute = int(array.BCD2Dec(d[0] & 0x7F))
	case ModelVT3, ModelVeo20, ModelVeo30, ModelDG03:
		dt.Year = int((d[3]&0xE0)>>1) + int(d[4]&0x0F) + 2000
		dt.Month = int(d[4]&0xF0) >> 4
		dt.Day = int(d[3] & 0x1F)
		dt.Hour = int(array.BCD2Dec(d[1] & 0x1F))
		dt.Minute = int(array.BCD2Dec(d[0]))
	case ModelZenAir, ModelAmphos, ModelAmphosAir, ModelVoyager2G:
		dt.Year = int(d[3]&0x0F) + 2000
		dt.Month = int(d[7]&0xF0) >> 4
		dt.Day = int((d[3]&0x80)>>3) + int((d[5]&0xF0)>>4)
		dt.Hour = int(array.BCD2Dec(d[1] & 0x1F))
		dt.Minute = int(array.BCD2Dec(d[0]))
	case ModelF10, ModelF11:
		dt.Year = int(array.BCD2Dec(d[6])) + 2000
		dt.Month = int(array.BCD2Dec(d[7]))
		dt.Day = int(array.BCD2Dec(d[8]))
		dt.Hour = int(array.BCD2Dec(d[13] & 0x7F))
		dt.Minute = int(array.BCD2Dec(d[12]))
		pm = d[13]&0x80 != 0
	case ModelTX1:
		dt.Year = int(array.BCD2Dec(d[13])) + 2000
		dt.Month = int(array.BCD2Dec(d[14]))
		dt.Day = int(array.BCD2Dec(d[15]))
		dt.Hour = int(d[11])
		dt.Minute = int(d[10])
	case ModelA300CS, ModelVTX:
		dt.Year = int(d[10]) + 2000
		dt.Month = int(d[8])
		dt.Day = int(d[9])
		dt.Hour = int(array.BCD2Dec(d[1] & 0x1F))
		dt.Minute = int(array.BCD2Dec(d[0]))
	default:
		dt.Year = int(array.BCD2Dec(((d[3]&0xC0)>>2)+(d[4]&0x0F))) + 2000
		dt.Month = int(d[4]&0xF0) >> 4
		if p.model == ModelT3A || p.model == ModelT3B ||
			p.model == ModelGeo20 || p.model == ModelProPlus3 {
			dt.Day = int(d[3] & 0x3F)
		} else {
			dt.Day = int(array.BCD2Dec(d[3] & 0x3F))
		}
		dt.Hour = int(array.BCD2Dec(d[1] & 0x1F))
		dt.Minute = int(array.BCD2Dec(d[0]))
	}

	// Convert to a 24-hour clock.
	dt.Hour %= 12
	if pm {
		dt.Hour += 12
	}

	// Some models store only the last digit of the year. Guess the
	// decade from the current year, unless the year was actually
	// stored with more bits.
	if dt.Year < 2010 {
		if now := p.now().Year(); now >= 2010 {
			decade := (now / 10) * 10
			if dt.Year%10 > now%10 {
				decade -= 10
			}
			dt.Year += decade - 2000
		}
	}

	return dt, nil
}

func (p *Atom2Parser) cache() error {
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

func (p *Atom2Parser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)
	if size < p.headersize+p.footersize {
		return nil, ifc.ErrDataFormat{What: "dive too small"}
	}

	header := p.headerOffset()
	footer := size - p.footersize
	mode := p.diveMode()

	if err := p.cache(); err != nil {
		return nil, err
	}

	switch t {
	case ifc.FieldDiveTime:
		if p.model == ModelF10 || p.model == ModelF11 {
			return array.BCD2Dec(data[2]) + array.BCD2Dec(data[3])*60 + array.BCD2Dec(data[1])*3600, nil
		}
		return p.divetime, nil
	case ifc.FieldMaxDepth:
		if p.model == ModelF10 || p.model == ModelF11 {
			return float64(array.Uint16LE(data[4:])) / 16.0 * ifc.Feet, nil
		}
		return float64(array.Uint16LE(data[footer+4:])) / 16.0 * ifc.Feet, nil
	case ifc.FieldGasMixCount:
		return p.gasMixCount(mode), nil
	case ifc.FieldGasMix:
		if index >= uint(p.gasMixCount(mode)) {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		oxygen, helium := 0.0, 0.0
		switch p.model {
		case ModelDatamask, ModelCompumask:
			oxygen = float64(data[header+3])
		case ModelOCI:
			oxygen = float64(data[0x28+index])
		case ModelA300CS, ModelVTX:
			oxygen = float64(data[0x2A+index])
		case ModelTX1:
			oxygen = float64(data[0x3E+index])
			helium = float64(data[0x48+index])
		default:
			oxygen = float64(data[header+4+int(index)])
		}
		if oxygen == 0 {
			oxygen = 21
		}
		return ifc.NewGasMix(oxygen, helium), nil
	case ifc.FieldSalinity:
		if p.model != ModelA300CS && p.model != ModelVTX {
			return nil, ifc.ErrUnsupported{What: "field not recorded"}
		}
		if data[0x18]&0x80 != 0 {
			return ifc.Salinity{Type: ifc.WaterFresh}, nil
		}
		return ifc.Salinity{Type: ifc.WaterSalt}, nil
	case ifc.FieldDiveMode:
		switch mode {
		case modeNormal:
			return ifc.DiveModeOpenCircuit, nil
		case modeGauge:
			return ifc.DiveModeGauge, nil
		case modeFreedive:
			return ifc.DiveModeFreedive, nil
		}
		return nil, ifc.ErrDataFormat{What: "unknown dive mode"}
	case ifc.FieldString:
		if index != 0 {
			return nil, ifc.ErrUnsupported{What: "string index out of range"}
		}
		return ifc.String{Desc: "Serial", Value: fmt.Sprintf("%06d", p.serial)}, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *Atom2Parser) gasMixCount(mode int) uint32 {
	switch {
	case mode == modeFreedive:
		return 0
	case p.model == ModelDatamask || p.model == ModelCompumask:
		return 1
	case p.model == ModelVT4 || p.model == ModelVT41 ||
		p.model == ModelOCI || p.model == ModelA300AI:
		return 4
	case p.model == ModelTX1:
		return 6
	case p.model == ModelA300CS || p.model == ModelVTX:
		switch {
		case p.data[0x39]&0x04 != 0:
			return 1
		case p.data[0x39]&0x08 != 0:
			return 2
		case p.data[0x39]&0x10 != 0:
			return 3
		}
		return 4
	}
	return 3
}

func (p *Atom2Parser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	data := p.data
	size := len(data)
	if size < p.headersize+p.footersize {
		return ifc.ErrDataFormat{What: "dive too small"}
	}

	header := p.headerOffset()
	mode := p.diveMode()

	interval := 1
	if mode != modeFreedive {
		idx := 0x17
		if p.model == ModelA300CS || p.model == ModelVTX {
			idx = 0x1f
		}
		switch data[idx] & 0x03 {
		case 0:
			interval = 2
		case 1:
			interval = 15
		case 2:
			interval = 30
		case 3:
			interval = 60
		}
	}

	samplesize := pageSize / 2
	if mode == modeFreedive {
		if p.model == ModelF10 || p.model == ModelF11 {
			samplesize = 2
		} else {
			samplesize = 4
		}
	} else if p.model == ModelOC1A || p.model == ModelOC1B ||
		p.model == ModelOC1C || p.model == ModelOCI ||
		p.model == ModelTX1 || p.model == ModelA300CS ||
		p.model == ModelVTX {
		samplesize = pageSize
	}

	haveTemperature, havePressure := true, true
	if mode == modeFreedive {
		haveTemperature = false
		havePressure = false
	} else if p.model == ModelVeo30 || p.model == ModelOCS ||
		p.model == ModelElement2 || p.model == ModelVeo20 ||
		p.model == ModelA300 || p.model == ModelZen ||
		p.model == ModelGeo || p.model == ModelGeo20 ||
		p.model == ModelManta {
		havePressure = false
	}

	// Initial temperature.
	temperature := 0
	if haveTemperature {
		temperature = int(data[header+7])
	}

	// Initial tank pressure.
	tank := uint(0)
	pressure := 0
	if havePressure {
		idx := 2
		if p.model == ModelA300CS || p.model == ModelVTX {
			idx = 16
		}
		pressure = int(data[header+idx]) | int(data[header+idx+1])<<8
		if pressure == 10000 {
			havePressure = false
		}
	}

	time := 0
	complete := true
	offset := p.headersize
	for offset+samplesize <= size-p.footersize {
		// Ignore empty samples.
		if array.IsEqual(data[offset:offset+samplesize], 0x00) ||
			array.IsEqual(data[offset:offset+samplesize], 0xFF) {
			offset += samplesize
			continue
		}

		if complete {
			time += interval
			if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: uint32(time)}) {
				return nil
			}
			complete = false
		}

		sampletype := data[offset]
		if mode == modeFreedive {
			sampletype = 0
		}

		// Surface interval samples span a full page.
		length := samplesize
		if sampletype == 0xBB {
			length = pageSize
			if offset+length > size-pageSize {
				return ifc.ErrDataFormat{What: "truncated surface sample"}
			}
		}

		if !cb(ifc.Sample{Kind: ifc.SampleVendor, Vendor: ifc.Vendor{Type: VendorAtom2, Data: data[offset : offset+length]}}) {
			return nil
		}

		switch sampletype {
		case 0xAA: // tank switch
			switch p.model {
			case ModelDatamask, ModelCompumask:
				tank = 0
				pressure = (int(data[offset+7])<<8 | int(data[offset+6])) & 0x0FFF
			case ModelA300CS, ModelVTX:
				tank = uint(data[offset+1]&0x03) - 1
				pressure = (int(data[offset+7])<<8 | int(data[offset+6])) & 0x0FFF
			default:
				tank = uint(data[offset+1]&0x03) - 1
				if p.model == ModelAtom2 || p.model == ModelEpicA || p.model == ModelEpicB {
					pressure = ((int(data[offset+3])<<8 | int(data[offset+4])) & 0x0FFF) * 2
				} else {
					pressure = ((int(data[offset+4])<<8 | int(data[offset+5])) & 0x0FFF) * 2
				}
			}
		case 0xBB:
			// The surface time is not always a nice multiple of the
			// samplerate. The number of inserted surface samples is
			// rounded down to keep the timestamps aligned.
			surftime := 60*int(array.BCD2Dec(data[offset+1])) + int(array.BCD2Dec(data[offset+2]))
			nsamples := surftime / interval

			for i := 0; i < nsamples; i++ {
				if complete {
					time += interval
					if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: uint32(time)}) {
						return nil
					}
				}
				if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: 0}) {
					return nil
				}
				complete = true
			}
		default:
			if haveTemperature {
				temperature = p.sampleTemperature(data, offset, temperature)
				if !cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: ifc.FahrenheitToCelsius(float64(temperature))}) {
					return nil
				}
			}

			if havePressure {
				pressure = p.samplePressure(data, offset, pressure)
				s := ifc.Sample{Kind: ifc.SamplePressure}
				s.Pressure.Tank = tank
				s.Pressure.Value = float64(pressure) * ifc.PSI
				if !cb(s) {
					return nil
				}
			}

			// Depth (1/16 ft).
			var depth int
			switch {
			case mode == modeFreedive:
				depth = int(array.Uint16LE(data[offset:]))
			case p.model == ModelGeo20 || p.model == ModelVeo20 ||
				p.model == ModelVeo30 || p.model == ModelOC1A ||
				p.model == ModelOC1B || p.model == ModelOC1C ||
				p.model == ModelOCI || p.model == ModelA300:
				depth = (int(data[offset+4]) | int(data[offset+5])<<8) & 0x0FFF
			case p.model == ModelAtom1:
				depth = int(data[offset+3]) * 16
			default:
				depth = (int(data[offset+2]) | int(data[offset+3])<<8) & 0x0FFF
			}
			if !cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) / 16.0 * ifc.Feet}) {
				return nil
			}

			if p.model == ModelA300CS || p.model == ModelVTX {
				s := ifc.Sample{Kind: ifc.SampleDeco}
				if deco := (data[offset+15] & 0x70) >> 4; deco != 0 {
					s.Deco.Kind = ifc.DecoDecoStop
					s.Deco.Depth = float64(deco) * 10 * ifc.Feet
				} else {
					s.Deco.Kind = ifc.DecoNDL
				}
				s.Deco.Time = uint32(array.Uint16LE(data[offset+6:]) & 0x03FF)
				if !cb(s) {
					return nil
				}
			}

			complete = true
		}

		offset += length
	}

	return nil
}

func (p *Atom2Parser) sampleTemperature(data []byte, offset, temperature int) int {
	switch p.model {
	case ModelGeo, ModelAtom1, ModelElement2:
		return int(data[offset+6])
	case ModelGeo20, ModelVeo20, ModelVeo30, ModelOC1A,
		ModelOC1B, ModelOC1C, ModelOCI, ModelA300:
		return int(data[offset+3])
	case ModelOCS, ModelTX1:
		return int(data[offset+1])
	case ModelVT4, ModelVT41, ModelAtom3, ModelAtom31, ModelA300AI:
		return int((data[offset+7]&0xF0)>>4) | int((data[offset+7]&0x0C)<<2) | int((data[offset+5]&0x0C)<<4)
	case ModelA300CS, ModelVTX:
		return int(data[offset+11])
	}

	var sign byte
	switch p.model {
	case ModelDG03, ModelProPlus3:
		sign = (^data[offset+5] & 0x04) >> 2
	case ModelVoyager2G, ModelAmphos, ModelAmphosAir:
		sign = (data[offset+5] & 0x04) >> 2
	case ModelAtom2, ModelProPlus21, ModelEpicA, ModelEpicB,
		ModelAtmosAI2, ModelWisdom2, ModelWisdom3:
		sign = (data[offset] & 0x80) >> 7
	default:
		sign = (^data[offset] & 0x80) >> 7
	}
	delta := int(data[offset+7]&0x0C) >> 2
	if sign != 0 {
		return temperature - delta
	}
	return temperature + delta
}

func (p *Atom2Parser) samplePressure(data []byte, offset, pressure int) int {
	switch p.model {
	case ModelOC1A, ModelOC1B, ModelOC1C, ModelOCI:
		return (int(data[offset+10]) | int(data[offset+11])<<8) & 0x0FFF
	case ModelVT4, ModelVT41, ModelAtom3, ModelAtom31, ModelZenAir,
		ModelA300AI, ModelDG03, ModelProPlus3, ModelAmphosAir:
		return (int(data[offset]&0x03)<<8 + int(data[offset+1])) * 5
	case ModelTX1, ModelA300CS, ModelVTX:
		return int(array.Uint16LE(data[offset+4:]))
	}
	return pressure - int(data[offset+1])
}
