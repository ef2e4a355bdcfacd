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

package uwatec

import (
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	// Smart alarm blob sample type.
	VendorSmart = 1

	smartNGasMixes = 3
	smartInterval  = 4

	waterFresh = 1.000
	waterSalt  = 1.025
)

type smartTank struct {
	beginpressure uint16
	endpressure   uint16
}

// SmartParser decodes dive records of the Smart and Galileo series.
// The profile is a delta-compressed bitstream: each sample starts
// with a variable-length type tag selecting an entry of the model's
// type table, followed by the value bits. Absolute samples reset the
// running accumulators, delta samples adjust them.
type SmartParser struct {
	data    []byte
	model   uint32
	devtime uint32
	systime int64

	header     smartHeader
	samples    []smartSample
	headersize int

	// Cached fields.
	cached    bool
	trimix    bool
	oxygen    []uint32
	tanks     []smartTank
	watertype ifc.WaterType
}

// NewSmartParser selects the layout tables for the given model.
// devtime/systime synchronize the half-second device clock against
// host Unix time.
func NewSmartParser(model uint32, devtime uint32, systime int64) (*SmartParser, error) {
	p := &SmartParser{
		model:   model,
		devtime: devtime,
		systime: systime,
	}

	switch model {
	case ModelSmartPro:
		p.headersize = 92
		p.header = smartProHeader
		p.samples = smartProSamples
	case ModelGalileo, ModelGalileoTrimix, ModelAladin2G, ModelMeridian, ModelChromis:
		p.headersize = 152
		p.header = smartGalileoHeader
		p.samples = smartGalileoSamples
	case ModelAladinTec:
		p.headersize = 108
		p.header = smartAladinTecHeader
		p.samples = smartAladinSamples
	case ModelAladinTec2G:
		p.headersize = 116
		p.header = smartAladinTec2GHeader
		p.samples = smartAladinSamples
	case ModelSmartCom:
		p.headersize = 100
		p.header = smartComHeader
		p.samples = smartComSamples
	case ModelSmartTec, ModelSmartZ:
		p.headersize = 132
		p.header = smartTecHeader
		p.samples = smartTecSamples
	default:
		return nil, ifc.ErrInvalidArgs{What: "unknown model"}
	}

	return p, nil
}

func (p *SmartParser) isGalileo() bool {
	switch p.model {
	case ModelGalileo, ModelGalileoTrimix, ModelAladin2G, ModelMeridian, ModelChromis:
		return true
	}
	return false
}

func (p *SmartParser) Bind(data []byte) error {
	p.data = data
	p.cached = false
	p.trimix = false
	p.oxygen = nil
	p.tanks = nil
	p.watertype = ifc.WaterFresh
	return nil
}

func (p *SmartParser) cache() error {
	if p.cached {
		return nil
	}

	data := p.data
	header := p.header

	trimix := false
	if p.model == ModelGalileo || p.model == ModelGalileoTrimix {
		if len(data) < 44 {
			return ifc.ErrDataFormat{What: "header too small"}
		}
		trimix = data[43]&0x80 != 0
	}

	var oxygen []uint32
	if !trimix {
		for i := 0; i < header.ngases; i++ {
			o2 := data[header.gasmix+i*2]
			if o2 == 0 {
				break // Skip disabled gas mixes.
			}
			oxygen = append(oxygen, uint32(o2))
		}
	}

	var tanks []smartTank
	if !trimix && header.tankpressure != unsupported {
		for i := 0; i < header.ngases; i++ {
			var begin, end uint16
			if p.isGalileo() {
				idx := header.tankpressure + 2*i
				end = array.Uint16LE(data[idx:])
				begin = array.Uint16LE(data[idx+2*header.ngases:])
			} else {
				idx := header.tankpressure + 4*i
				begin = array.Uint16LE(data[idx:])
				end = array.Uint16LE(data[idx+2:])
			}
			if begin == 0 && end == 0 {
				break // Skip unused tanks.
			}
			tanks = append(tanks, smartTank{beginpressure: begin, endpressure: end})
		}
	}

	watertype := ifc.WaterFresh
	if header.salinity != unsupported && data[header.salinity]&0x10 != 0 {
		watertype = ifc.WaterSalt
	}

	p.trimix = trimix
	p.oxygen = oxygen
	p.tanks = tanks
	p.watertype = watertype
	p.cached = true
	return nil
}

func (p *SmartParser) salinity() float64 {
	if p.watertype == ifc.WaterSalt {
		return waterSalt
	}
	return waterFresh
}

func (p *SmartParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < p.headersize {
		return ifc.DateTime{}, ifc.ErrDataFormat{What: "header too small"}
	}

	timestamp := array.Uint32LE(p.data[8:])
	ticks := p.systime - int64(p.devtime-timestamp)/2

	if p.header.timezone != unsupported {
		// The device stores its UTC offset in units of 15 minutes.
		utcOffset := int(int8(p.data[p.header.timezone]))
		ticks += int64(utcOffset) * 900
		dt := ifc.NewDateTime(time.Unix(ticks, 0).UTC())
		dt.Timezone = utcOffset * 900
		return dt, nil
	}

	return ifc.NewDateTime(time.Unix(ticks, 0)), nil
}

func (p *SmartParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if len(p.data) < p.headersize {
		return nil, ifc.ErrDataFormat{What: "header too small"}
	}

	if err := p.cache(); err != nil {
		return nil, err
	}

	data := p.data
	header := p.header
	salinity := p.salinity()

	switch t {
	case ifc.FieldDiveTime:
		return uint32(array.Uint16LE(data[header.divetime:])) * 60, nil
	case ifc.FieldMaxDepth:
		return float64(array.Uint16LE(data[header.maxdepth:])) / 100.0 * salinity, nil
	case ifc.FieldGasMixCount:
		if p.trimix {
			return nil, ifc.ErrUnsupported{What: "gas mixes on trimix dives"}
		}
		return uint32(len(p.oxygen)), nil
	case ifc.FieldGasMix:
		if p.trimix {
			return nil, ifc.ErrUnsupported{What: "gas mixes on trimix dives"}
		}
		if index >= uint(len(p.oxygen)) {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		return ifc.NewGasMix(float64(p.oxygen[index]), 0), nil
	case ifc.FieldTankCount:
		if p.trimix || header.tankpressure == unsupported {
			return nil, ifc.ErrUnsupported{What: "tank pressures"}
		}
		return uint32(len(p.tanks)), nil
	case ifc.FieldTank:
		if p.trimix || header.tankpressure == unsupported {
			return nil, ifc.ErrUnsupported{What: "tank pressures"}
		}
		if index >= uint(len(p.tanks)) {
			return nil, ifc.ErrInvalidArgs{What: "tank index out of range"}
		}
		return ifc.Tank{
			GasMix:        index,
			Type:          ifc.TankVolumeNone,
			BeginPressure: float64(p.tanks[index].beginpressure) / 128.0,
			EndPressure:   float64(p.tanks[index].endpressure) / 128.0,
		}, nil
	case ifc.FieldTemperatureMinimum:
		return float64(int16(array.Uint16LE(data[header.tempMinimum:]))) / 10.0, nil
	case ifc.FieldTemperatureMaximum:
		if header.tempMaximum == unsupported {
			return nil, ifc.ErrUnsupported{What: "maximum temperature"}
		}
		return float64(int16(array.Uint16LE(data[header.tempMaximum:]))) / 10.0, nil
	case ifc.FieldTemperatureSurface:
		if header.tempSurface == unsupported {
			return nil, ifc.ErrUnsupported{What: "surface temperature"}
		}
		return float64(int16(array.Uint16LE(data[header.tempSurface:]))) / 10.0, nil
	case ifc.FieldDiveMode:
		if p.trimix {
			return nil, ifc.ErrUnsupported{What: "dive mode on trimix dives"}
		}
		if len(p.oxygen) > 0 {
			return ifc.DiveModeOpenCircuit, nil
		}
		return ifc.DiveModeGauge, nil
	case ifc.FieldSalinity:
		if header.salinity == unsupported {
			return nil, ifc.ErrUnsupported{What: "salinity"}
		}
		return ifc.Salinity{Type: p.watertype, Density: salinity * 1000.0}, nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

// smartIdentify counts the leading one bits across the buffer, which
// is the type table index on the Smart series.
func smartIdentify(data []byte) int {
	count := 0
	for _, value := range data {
		for j := 0; j < 8; j++ {
			mask := byte(1) << uint(7-j)
			if value&mask == 0 {
				return count
			}
			count++
		}
	}
	return -1
}

// galileoIdentify maps the first sample byte to a type table index.
// The Galileo packs its type tags into at most one byte.
func galileoIdentify(value byte) int {
	// Bits: 0ddd dddd
	if value&0x80 == 0 {
		return 0
	}
	// Bits: 100d dddd
	if value&0xe0 == 0x80 {
		return 1
	}
	// Bits: 1XXX dddd
	if value&0xf0 != 0xf0 {
		return int(value&0x70) >> 4
	}
	// Bits: 1111 XXXX
	return int(value&0x0f) + 7
}

func (p *SmartParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}
	if len(p.data) < p.headersize {
		return ifc.ErrDataFormat{What: "header too small"}
	}

	if err := p.cache(); err != nil {
		return err
	}

	data := p.data
	size := len(data)
	table := p.samples
	header := p.headersize
	if p.trimix {
		header = 0xb1
	}

	// Size of the alarm vendor blob.
	nalarms := 0
	for _, entry := range table {
		if entry.typ == sampleAlarms && entry.index >= nalarms {
			nalarms = entry.index + 1
		}
	}

	complete := uint32(0)
	calibrated := false

	time := uint32(0)
	rbt := uint32(99)
	tank := uint32(0)
	gasmix := uint32(0)
	var depth, depthCalibration float64
	var temperature float64
	var pressure float64
	heartrate := uint32(0)
	bearing := uint32(0)
	alarms := make([]byte, 3)

	// Previous gas mix, initialized with an impossible value.
	gasmixPrevious := uint32(0xffffffff)

	salinity := p.salinity()

	var haveDepth, haveTemperature, havePressure, haveRBT,
		haveHeartrate, haveAlarms, haveBearing bool

	offset := header
	for offset < size {
		var id int
		if p.isGalileo() {
			id = galileoIdentify(data[offset])
		} else {
			id = smartIdentify(data[offset:])
		}
		if id < 0 || id >= len(table) {
			return ifc.ErrDataFormat{What: "invalid sample type bits"}
		}
		entry := table[id]

		// Skip the whole type bytes.
		offset += int(entry.ntypebits / 8)

		// The remaining bits of the last type byte carry data.
		nbits := uint(0)
		value := uint32(0)
		if n := entry.ntypebits % 8; n > 0 {
			nbits = 8 - n
			value = uint32(data[offset] & (0xff >> n))
			if entry.ignoretype {
				nbits = 0
				value = 0
			}
			offset++
		}

		if offset+entry.extrabytes > size {
			return ifc.ErrDataFormat{What: "incomplete sample data"}
		}

		for i := 0; i < entry.extrabytes; i++ {
			nbits += 8
			value = value<<8 + uint32(data[offset])
			offset++
		}

		svalue := array.SignExtend(value, nbits)

		switch entry.typ {
		case samplePressureDepth:
			pressure += float64(int8((svalue>>8)&0xff)) / 4.0
			depth += float64(int8(svalue&0xff)) / 50.0
			complete = 1
		case sampleRBT:
			if entry.absolute {
				rbt = value
				haveRBT = true
			} else {
				rbt += uint32(svalue)
			}
		case sampleTemperature:
			if entry.absolute {
				temperature = float64(svalue) / 2.5
				haveTemperature = true
			} else {
				temperature += float64(svalue) / 2.5
			}
		case samplePressure:
			if entry.absolute {
				if p.trimix {
					tank = (value & 0xf000) >> 24
					pressure = float64(value&0x0fff) / 4.0
				} else {
					tank = uint32(entry.index)
					pressure = float64(value) / 4.0
				}
				havePressure = true
				gasmix = tank
			} else {
				pressure += float64(svalue) / 4.0
			}
		case sampleDepth:
			if entry.absolute {
				depth = float64(value) / 50.0
				if !calibrated {
					calibrated = true
					depthCalibration = depth
				}
				haveDepth = true
			} else {
				depth += float64(svalue) / 50.0
			}
			complete = 1
		case sampleHeartrate:
			if entry.absolute {
				heartrate = value
				haveHeartrate = true
			} else {
				heartrate += uint32(svalue)
			}
		case sampleBearing:
			bearing = value
			haveBearing = true
		case sampleAlarms:
			alarms[entry.index] = byte(value)
			haveAlarms = true
			if entry.index == 1 {
				if p.model != ModelMeridian && p.model != ModelChromis {
					gasmix = (value & 0x30) >> 4
				}
			}
		case sampleTime:
			// The value is the number of intervals to repeat the
			// current state for.
			complete = value
		case sampleUnknown1:
			if offset+8 > size {
				return ifc.ErrDataFormat{What: "incomplete sample data"}
			}
			offset += 8
		case sampleUnknown2:
			if value < 1 || offset+int(value)-1 > size {
				return ifc.ErrDataFormat{What: "incomplete sample data"}
			}
			offset += int(value) - 1
		}

		for complete > 0 {
			if !cb(ifc.Sample{Kind: ifc.SampleTime, Time: time}) {
				return nil
			}

			if len(p.oxygen) > 0 && gasmix != gasmixPrevious {
				if gasmix >= uint32(len(p.oxygen)) {
					return ifc.ErrDataFormat{What: "invalid gas mix index"}
				}
				s := ifc.Sample{Kind: ifc.SampleEvent}
				s.Event.Type = ifc.EventGasChange
				s.Event.Value = p.oxygen[gasmix]
				if !cb(s) {
					return nil
				}
				gasmixPrevious = gasmix
			}

			if haveTemperature {
				if !cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: temperature}) {
					return nil
				}
			}

			if haveAlarms {
				s := ifc.Sample{Kind: ifc.SampleVendor}
				s.Vendor.Type = VendorSmart
				s.Vendor.Data = append([]byte(nil), alarms[:nalarms]...)
				if !cb(s) {
					return nil
				}
				for i := range alarms {
					alarms[i] = 0
				}
				haveAlarms = false
			}

			if haveRBT || havePressure {
				if !cb(ifc.Sample{Kind: ifc.SampleRBT, RBT: rbt}) {
					return nil
				}
			}

			if havePressure {
				if !cb(ifc.Sample{
					Kind:     ifc.SamplePressure,
					Pressure: ifc.Pressure{Tank: uint(tank), Value: pressure},
				}) {
					return nil
				}
			}

			if haveHeartrate {
				if !cb(ifc.Sample{Kind: ifc.SampleHeartbeat, Heartbeat: heartrate}) {
					return nil
				}
			}

			if haveBearing {
				if !cb(ifc.Sample{Kind: ifc.SampleBearing, Bearing: bearing}) {
					return nil
				}
				haveBearing = false
			}

			if haveDepth {
				if !cb(ifc.Sample{
					Kind:  ifc.SampleDepth,
					Depth: (depth - depthCalibration) * salinity,
				}) {
					return nil
				}
			}

			time += smartInterval
			complete--
		}
	}

	return nil
}
