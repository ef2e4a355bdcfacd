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

package suunto

import (
	"errors"
	"math"
	"testing"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

func eonDive() []byte {
	data := make([]byte, 11)
	data[3] = 20   // interval
	data[4] = 0x80 // nitrox
	data[5] = 32   // EAN32
	data[6] = 0x23 // BCD 2023
	data[7] = 0x07
	data[8] = 0x15
	data[9] = 0x10
	data[10] = 0x30
	// Profile: +10 ft, +5 ft, deco event, -15 ft, end marker.
	data = append(data, 10, 5, 0x7e, 0xf1, 0x80)
	// Trailer: temperature and end pressure.
	data = append(data, 55, 100)
	return data
}

func TestEONDateTime(t *testing.T) {
	p := NewEONParser(false)
	if err := p.Bind(eonDive()); err != nil {
		t.Fatal(err)
	}

	dt, err := p.DateTime()
	if err != nil {
		t.Fatal(err)
	}
	if dt.Year != 2023 || dt.Month != 7 || dt.Day != 15 || dt.Hour != 10 || dt.Minute != 30 {
		t.Errorf("unexpected datetime: %+v", dt)
	}
}

func TestEONFields(t *testing.T) {
	p := NewEONParser(false)
	if err := p.Bind(eonDive()); err != nil {
		t.Fatal(err)
	}

	divetime, err := p.Field(ifc.FieldDiveTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if divetime.(uint32) != 60 {
		t.Errorf("dive time: got %d, want 60", divetime)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(maxdepth.(float64)-15*ifc.Feet) > 1e-9 {
		t.Errorf("max depth: got %v, want %v", maxdepth, 15*ifc.Feet)
	}

	mix, err := p.Field(ifc.FieldGasMix, 0)
	if err != nil {
		t.Fatal(err)
	}
	if gm := mix.(ifc.GasMix); math.Abs(gm.Oxygen-0.32) > 1e-9 {
		t.Errorf("oxygen: got %v, want 0.32", gm.Oxygen)
	}

	tmin, err := p.Field(ifc.FieldTemperatureMinimum, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tmin.(float64) != 15.0 {
		t.Errorf("min temperature: got %v, want 15", tmin)
	}
}

func TestEONSamples(t *testing.T) {
	p := NewEONParser(false)
	if err := p.Bind(eonDive()); err != nil {
		t.Fatal(err)
	}

	var depths []float64
	var events []ifc.EventType
	if err := p.Samples(func(s ifc.Sample) bool {
		switch s.Kind {
		case ifc.SampleDepth:
			depths = append(depths, s.Depth)
		case ifc.SampleEvent:
			events = append(events, s.Event.Type)
		}
		return true
	}); err != nil {
		t.Fatal(err)
	}

	// Surface, three deltas, surface again.
	want := []float64{0, 10 * ifc.Feet, 15 * ifc.Feet, 0, 0}
	if len(depths) != len(want) {
		t.Fatalf("got %d depths, want %d: %v", len(depths), len(want), depths)
	}
	for i := range want {
		if math.Abs(depths[i]-want[i]) > 1e-9 {
			t.Errorf("depth %d: got %v, want %v", i, depths[i], want[i])
		}
	}

	if len(events) != 1 || events[0] != ifc.EventDecoStop {
		t.Errorf("events: got %v", events)
	}
}

func TestEONMissingEndMarker(t *testing.T) {
	data := eonDive()
	data = data[:12] // cut before the marker

	p := NewEONParser(false)
	if err := p.Bind(data); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Field(ifc.FieldDiveTime, 0); !errors.As(err, &ifc.ErrDataFormat{}) {
		t.Fatalf("expected ErrDataFormat, got %v", err)
	}
}

func TestEONSpyderDateTime(t *testing.T) {
	data := eonDive()
	data[4] = 0 // no nitrox flag on the Spyder
	data[6] = 99
	data[7] = 12
	data[8] = 31
	data[9] = 23
	data[10] = 59

	p := NewEONParser(true)
	if err := p.Bind(data); err != nil {
		t.Fatal(err)
	}

	dt, err := p.DateTime()
	if err != nil {
		t.Fatal(err)
	}
	if dt.Year != 1999 || dt.Month != 12 || dt.Day != 31 {
		t.Errorf("unexpected datetime: %+v", dt)
	}
}
