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

// Package ifc defines the contract every dive log parser implements,
// together with the value types fields and samples are expressed in.
package ifc

import (
	"math"
	"time"
)

// TimezoneNone marks a DateTime whose UTC offset is unknown. Such
// timestamps are interpreted in device-local time.
const TimezoneNone = math.MinInt32

// DateTime is a broken-down dive timestamp. Timezone is the UTC
// offset in seconds east, or TimezoneNone.
type DateTime struct {
	Year     int
	Month    int
	Day      int
	Hour     int
	Minute   int
	Second   int
	Timezone int
}

// NewDateTime converts a time.Time into a broken-down timestamp with
// its zone offset preserved.
func NewDateTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		Year:     t.Year(),
		Month:    int(t.Month()),
		Day:      t.Day(),
		Hour:     t.Hour(),
		Minute:   t.Minute(),
		Second:   t.Second(),
		Timezone: offset,
	}
}

// FieldType selects a dive summary field.
type FieldType int

const (
	FieldDiveTime FieldType = iota
	FieldMaxDepth
	FieldAvgDepth
	FieldGasMixCount
	FieldGasMix
	FieldSalinity
	FieldAtmospheric
	FieldTemperatureSurface
	FieldTemperatureMinimum
	FieldTemperatureMaximum
	FieldTankCount
	FieldTank
	FieldDiveMode
	FieldString
)

// DiveMode describes how the dive was conducted.
type DiveMode int

const (
	DiveModeFreedive DiveMode = iota
	DiveModeGauge
	DiveModeOpenCircuit
	DiveModeClosedCircuit
	DiveModeSemiClosedCircuit
)

func (m DiveMode) String() string {
	switch m {
	case DiveModeFreedive:
		return "freedive"
	case DiveModeGauge:
		return "gauge"
	case DiveModeOpenCircuit:
		return "opencircuit"
	case DiveModeClosedCircuit:
		return "closedcircuit"
	case DiveModeSemiClosedCircuit:
		return "semiclosedcircuit"
	}
	return "unknown"
}

// GasMix gives the composition of one breathing gas as fractions
// that sum to one.
type GasMix struct {
	Helium   float64 `json:"helium"`
	Oxygen   float64 `json:"oxygen"`
	Nitrogen float64 `json:"nitrogen"`
}

// NewGasMix builds a mix from oxygen and helium percentages, with
// nitrogen as the remainder.
func NewGasMix(o2, he float64) GasMix {
	return GasMix{
		Helium:   he / 100.0,
		Oxygen:   o2 / 100.0,
		Nitrogen: (100.0 - o2 - he) / 100.0,
	}
}

// WaterType distinguishes fresh from salt water density.
type WaterType int

const (
	WaterFresh WaterType = iota
	WaterSalt
)

// Salinity carries the water type and density in kg/m3.
type Salinity struct {
	Type    WaterType `json:"type"`
	Density float64   `json:"density"`
}

// TankVolume describes how a tank size is reported.
type TankVolume int

const (
	TankVolumeNone TankVolume = iota
	TankVolumeMetric
	TankVolumeImperial
)

// Tank describes one cylinder: its gas mix index, size, and the
// measured begin/end pressures in bar.
type Tank struct {
	GasMix        uint       `json:"gasmix"`
	Type          TankVolume `json:"type"`
	Volume        float64    `json:"volume"`
	WorkPressure  float64    `json:"workPressure"`
	BeginPressure float64    `json:"beginPressure"`
	EndPressure   float64    `json:"endPressure"`
}

// String is a named free-form field, e.g. a serial number or a
// firmware version.
type String struct {
	Desc  string `json:"desc"`
	Value string `json:"value"`
}

// Parser decodes one dive record. Bind attaches the raw data and
// resets any memoized state; the accessors below may only be called
// after a successful Bind.
//
// Field returns a value whose dynamic type depends on the FieldType:
//
//	FieldDiveTime                        uint32 (seconds)
//	FieldMaxDepth, FieldAvgDepth         float64 (metres)
//	FieldGasMixCount, FieldTankCount     uint32
//	FieldGasMix                          GasMix
//	FieldSalinity                        Salinity
//	FieldAtmospheric                     float64 (bar)
//	FieldTemperature*                    float64 (degrees Celsius)
//	FieldTank                            Tank
//	FieldDiveMode                        DiveMode
//	FieldString                          String
//
// A field the device does not record yields ErrUnsupported.
type Parser interface {
	Bind(data []byte) error
	DateTime() (DateTime, error)
	Field(t FieldType, index uint) (interface{}, error)
	Samples(cb SampleCallback) error
}

// Statistics accumulates dive time and maximum depth from a sample
// stream. Parsers whose formats lack summary fields in the header
// derive them from a full sample pass.
type Statistics struct {
	DiveTime uint32
	MaxDepth float64
}

// Sample is a SampleCallback feeding the accumulator.
func (s *Statistics) Sample(sample Sample) bool {
	switch sample.Kind {
	case SampleTime:
		s.DiveTime = sample.Time
	case SampleDepth:
		if sample.Depth > s.MaxDepth {
			s.MaxDepth = sample.Depth
		}
	}
	return true
}
