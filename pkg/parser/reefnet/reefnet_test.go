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
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

func sensusProDive(timestamp uint32, interval uint16, depths []uint16) []byte {
	data := make([]byte, 10)
	binary.LittleEndian.PutUint16(data[4:], interval)
	binary.LittleEndian.PutUint32(data[6:], timestamp)
	for _, d := range depths {
		data = binary.LittleEndian.AppendUint16(data, d)
	}
	return binary.LittleEndian.AppendUint16(data, 0xffff)
}

func TestSensusProClockSync(t *testing.T) {
	// Device clock read 5000 at host time 1700000000; the dive
	// started at device time 4000, i.e. 1000 seconds earlier.
	p := NewSensusProParser(5000, 1700000000)
	if err := p.Bind(sensusProDive(4000, 10, nil)); err != nil {
		t.Fatal(err)
	}

	dt, err := p.DateTime()
	if err != nil {
		t.Fatal(err)
	}
	want := ifc.NewDateTime(time.Unix(1700000000-1000, 0))
	if dt != want {
		t.Errorf("got %+v, want %+v", dt, want)
	}
}

func TestSensusProFields(t *testing.T) {
	// Depth values are absolute pressure in fsw; 33 fsw of water
	// column on top of 1 atm is very close to 10 m of sea water.
	p := NewSensusProParser(0, 0)
	if err := p.Bind(sensusProDive(0, 15, []uint16{33 + 33, 33 + 66, 33 + 33})); err != nil {
		t.Fatal(err)
	}

	divetime, err := p.Field(ifc.FieldDiveTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if divetime.(uint32) != 45 {
		t.Errorf("dive time: got %d, want 45", divetime)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantDepth := (99*ifc.FSW - ifc.Atm) / (ifc.DensitySalt * ifc.Gravity)
	if math.Abs(maxdepth.(float64)-wantDepth) > 1e-9 {
		t.Errorf("max depth: got %v, want %v", maxdepth, wantDepth)
	}

	mode, err := p.Field(ifc.FieldDiveMode, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mode.(ifc.DiveMode) != ifc.DiveModeGauge {
		t.Errorf("dive mode: got %v", mode)
	}
}

func sensusUltraDive(interval, threshold uint16, samples [][2]uint16) []byte {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint16(data[8:], interval)
	binary.LittleEndian.PutUint16(data[10:], threshold)
	for _, s := range samples {
		data = binary.LittleEndian.AppendUint16(data, s[0]) // temperature
		data = binary.LittleEndian.AppendUint16(data, s[1]) // pressure
	}
	return append(data, 0xff, 0xff, 0xff, 0xff)
}

func TestSensusUltraThreshold(t *testing.T) {
	// Two of the four samples are above the 1300 mbar dive
	// threshold; only those count towards the summary.
	p := NewSensusUltraParser(0, 0)
	dive := sensusUltraDive(10, 1300, [][2]uint16{
		{28815, 1013},
		{28815, 2013},
		{28765, 3013},
		{28815, 1013},
	})
	if err := p.Bind(dive); err != nil {
		t.Fatal(err)
	}

	divetime, err := p.Field(ifc.FieldDiveTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if divetime.(uint32) != 20 {
		t.Errorf("dive time: got %d, want 20", divetime)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantDepth := (3013*ifc.Bar/1000.0 - ifc.Atm) / (ifc.DensitySalt * ifc.Gravity)
	if math.Abs(maxdepth.(float64)-wantDepth) > 1e-9 {
		t.Errorf("max depth: got %v, want %v", maxdepth, wantDepth)
	}
}

func TestSensusUltraSamples(t *testing.T) {
	p := NewSensusUltraParser(0, 0)
	dive := sensusUltraDive(10, 1300, [][2]uint16{
		{28815, 2013}, // 15.0 C
	})
	if err := p.Bind(dive); err != nil {
		t.Fatal(err)
	}

	var times []uint32
	var temps, depths []float64
	if err := p.Samples(func(s ifc.Sample) bool {
		switch s.Kind {
		case ifc.SampleTime:
			times = append(times, s.Time)
		case ifc.SampleTemperature:
			temps = append(temps, s.Temperature)
		case ifc.SampleDepth:
			depths = append(depths, s.Depth)
		}
		return true
	}); err != nil {
		t.Fatal(err)
	}

	if len(times) != 1 || times[0] != 10 {
		t.Errorf("times: got %v", times)
	}
	if len(temps) != 1 || math.Abs(temps[0]-15.0) > 1e-9 {
		t.Errorf("temperatures: got %v", temps)
	}
	wantDepth := (2013*ifc.Bar/1000.0 - ifc.Atm) / (ifc.DensitySalt * ifc.Gravity)
	if len(depths) != 1 || math.Abs(depths[0]-wantDepth) > 1e-9 {
		t.Errorf("depths: got %v, want %v", depths, wantDepth)
	}
}

func TestSensusUltraCalibration(t *testing.T) {
	// Fresh water calibration changes the derived depth.
	p := NewSensusUltraParser(0, 0)
	p.SetCalibration(100000.0, ifc.DensityFresh*ifc.Gravity)
	dive := sensusUltraDive(10, 0, [][2]uint16{{28815, 2000}})
	if err := p.Bind(dive); err != nil {
		t.Fatal(err)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := (2000*ifc.Bar/1000.0 - 100000.0) / (ifc.DensityFresh * ifc.Gravity)
	if math.Abs(maxdepth.(float64)-want) > 1e-9 {
		t.Errorf("max depth: got %v, want %v", maxdepth, want)
	}
}
