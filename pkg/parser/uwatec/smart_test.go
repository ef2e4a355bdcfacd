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
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

func smartProHeaderBytes() []byte {
	data := make([]byte, 92)
	binary.LittleEndian.PutUint32(data[8:], 1000)   // timestamp
	binary.LittleEndian.PutUint16(data[18:], 2540)  // max depth 25.40 m
	binary.LittleEndian.PutUint16(data[20:], 38)    // dive time 38 min
	binary.LittleEndian.PutUint16(data[22:], 0xffc4) // min temp -6.0 C
	data[24] = 21                                   // air
	return data
}

func TestSmartIdentify(t *testing.T) {
	for _, tc := range []struct {
		data []byte
		want int
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 0},
		{[]byte{0x80}, 1},
		{[]byte{0xc1}, 2},
		{[]byte{0xe0}, 3},
		{[]byte{0xfc, 0x00}, 6},
		{[]byte{0xfe, 0x00}, 7},
		{[]byte{0xff, 0x80}, 9},
	} {
		if got := smartIdentify(tc.data); got != tc.want {
			t.Errorf("smartIdentify(%x): got %d, want %d", tc.data, got, tc.want)
		}
	}
	if got := smartIdentify([]byte{0xff, 0xff}); got != -1 {
		t.Errorf("all ones: got %d, want -1", got)
	}
}

func TestGalileoIdentify(t *testing.T) {
	for _, tc := range []struct {
		value byte
		want  int
	}{
		{0x00, 0}, // depth delta
		{0x85, 1}, // rbt delta
		{0xa0, 2}, // pressure delta
		{0xb0, 3}, // temperature delta
		{0xc5, 4}, // time
		{0xd0, 5}, // heartrate delta
		{0xe0, 6}, // alarms
		{0xf0, 7},
		{0xf1, 8},
		{0xfb, 18},
	} {
		if got := galileoIdentify(tc.value); got != tc.want {
			t.Errorf("galileoIdentify(0x%02x): got %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestSmartFields(t *testing.T) {
	p, err := NewSmartParser(ModelSmartPro, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(smartProHeaderBytes()); err != nil {
		t.Fatal(err)
	}

	divetime, err := p.Field(ifc.FieldDiveTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if divetime.(uint32) != 38*60 {
		t.Errorf("dive time: got %d, want %d", divetime, 38*60)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(maxdepth.(float64)-25.40) > 1e-9 {
		t.Errorf("max depth: got %v, want 25.40", maxdepth)
	}

	tmin, err := p.Field(ifc.FieldTemperatureMinimum, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(tmin.(float64)-(-6.0)) > 1e-9 {
		t.Errorf("min temperature: got %v, want -6.0", tmin)
	}

	count, err := p.Field(ifc.FieldGasMixCount, 0)
	if err != nil {
		t.Fatal(err)
	}
	if count.(uint32) != 1 {
		t.Errorf("gas mix count: got %d, want 1", count)
	}

	mix, err := p.Field(ifc.FieldGasMix, 0)
	if err != nil {
		t.Fatal(err)
	}
	gm := mix.(ifc.GasMix)
	if math.Abs(gm.Oxygen-0.21) > 1e-9 {
		t.Errorf("oxygen: got %v, want 0.21", gm.Oxygen)
	}

	if _, err := p.Field(ifc.FieldTemperatureMaximum, 0); !errors.As(err, &ifc.ErrUnsupported{}) {
		t.Errorf("expected ErrUnsupported for max temperature, got %v", err)
	}
	if _, err := p.Field(ifc.FieldSalinity, 0); !errors.As(err, &ifc.ErrUnsupported{}) {
		t.Errorf("expected ErrUnsupported for salinity, got %v", err)
	}
}

// The absolute depth establishes the calibration offset, delta
// samples adjust the accumulator, and a time sample repeats the
// current state.
func TestSmartBitstream(t *testing.T) {
	data := smartProHeaderBytes()
	data = append(data,
		0xfc, 0x01, 0xf4, // absolute depth 500 -> 10.00 m, calibration
		0x7e,       // delta depth -2 -> -0.04 m
		0xc1,       // time, repeat 1
	)

	p, err := NewSmartParser(ModelSmartPro, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(data); err != nil {
		t.Fatal(err)
	}

	type td struct {
		time  uint32
		depth float64
	}
	var got []td
	var cur td
	var gaschanges []uint32
	if err := p.Samples(func(s ifc.Sample) bool {
		switch s.Kind {
		case ifc.SampleTime:
			cur.time = s.Time
		case ifc.SampleDepth:
			cur.depth = s.Depth
			got = append(got, cur)
		case ifc.SampleEvent:
			if s.Event.Type == ifc.EventGasChange {
				gaschanges = append(gaschanges, s.Event.Value)
			}
		}
		return true
	}); err != nil {
		t.Fatal(err)
	}

	want := []td{
		{0, 0.0},
		{4, -0.04},
		{8, -0.04},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d depth samples, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].time != want[i].time || math.Abs(got[i].depth-want[i].depth) > 1e-9 {
			t.Errorf("sample %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if len(gaschanges) != 1 || gaschanges[0] != 21 {
		t.Errorf("gas changes: got %v, want [21]", gaschanges)
	}
}

func TestSmartTruncatedBitstream(t *testing.T) {
	data := smartProHeaderBytes()
	data = append(data, 0xfc, 0x01) // absolute depth missing its second byte

	p, err := NewSmartParser(ModelSmartPro, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(data); err != nil {
		t.Fatal(err)
	}

	err = p.Samples(func(s ifc.Sample) bool { return true })
	if !errors.As(err, &ifc.ErrDataFormat{}) {
		t.Fatalf("expected ErrDataFormat, got %v", err)
	}
}

func TestSmartTruncatedHeader(t *testing.T) {
	p, err := NewSmartParser(ModelSmartPro, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(make([]byte, 10)); err != nil {
		t.Fatal(err)
	}

	err = p.Samples(func(s ifc.Sample) bool { return true })
	if !errors.As(err, &ifc.ErrDataFormat{}) {
		t.Fatalf("expected ErrDataFormat, got %v", err)
	}
}

func TestSmartUnknownModel(t *testing.T) {
	if _, err := NewSmartParser(0x99, 0, 0); !errors.As(err, &ifc.ErrInvalidArgs{}) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}
