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

package divesystem

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

func idiveSample(timestamp uint32, depth uint16, temp int16, o2, he byte, deco, tts, cns uint16) []byte {
	s := make([]byte, sampleSize)
	binary.LittleEndian.PutUint32(s[2:], timestamp)
	binary.LittleEndian.PutUint16(s[6:], depth)
	binary.LittleEndian.PutUint16(s[8:], uint16(temp))
	s[10] = o2
	s[11] = he
	binary.LittleEndian.PutUint16(s[21:], deco)
	binary.LittleEndian.PutUint16(s[23:], tts)
	binary.LittleEndian.PutUint16(s[29:], cns)
	return s
}

func idiveDive() []byte {
	data := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(data[7:], 300000000)
	binary.LittleEndian.PutUint16(data[11:], 1013)

	data = append(data, idiveSample(10, 215, 194, 21, 0, 0, 45, 3)...)
	data = append(data, idiveSample(20, 215, 192, 18, 45, 0, 0xFFFF, 5)...)
	data = append(data, idiveSample(30, 180, 191, 21, 0, 30, 120, 8)...)
	return data
}

func TestIDiveDateTime(t *testing.T) {
	p := NewIDiveParser()
	if err := p.Bind(idiveDive()); err != nil {
		t.Fatal(err)
	}

	dt, err := p.DateTime()
	if err != nil {
		t.Fatal(err)
	}
	want := ifc.NewDateTime(time.Unix(300000000+epoch, 0))
	if dt != want {
		t.Errorf("got %+v, want %+v", dt, want)
	}
}

func TestIDiveFields(t *testing.T) {
	p := NewIDiveParser()
	if err := p.Bind(idiveDive()); err != nil {
		t.Fatal(err)
	}

	divetime, err := p.Field(ifc.FieldDiveTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if divetime.(uint32) != 30 {
		t.Errorf("dive time: got %d, want 30", divetime)
	}

	maxdepth, err := p.Field(ifc.FieldMaxDepth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if maxdepth.(float64) != 21.5 {
		t.Errorf("max depth: got %v, want 21.5", maxdepth)
	}

	// Air was breathed twice but is listed once.
	count, err := p.Field(ifc.FieldGasMixCount, 0)
	if err != nil {
		t.Fatal(err)
	}
	if count.(uint32) != 2 {
		t.Fatalf("gas mix count: got %d, want 2", count)
	}
	mix, err := p.Field(ifc.FieldGasMix, 1)
	if err != nil {
		t.Fatal(err)
	}
	if gm := mix.(ifc.GasMix); math.Abs(gm.Oxygen-0.18) > 1e-9 || math.Abs(gm.Helium-0.45) > 1e-9 {
		t.Errorf("gas mix: got %+v", gm)
	}

	atm, err := p.Field(ifc.FieldAtmospheric, 0)
	if err != nil {
		t.Fatal(err)
	}
	if atm.(float64) != 1.013 {
		t.Errorf("atmospheric: got %v, want 1.013", atm)
	}
}

func TestIDiveSamples(t *testing.T) {
	p := NewIDiveParser()
	if err := p.Bind(idiveDive()); err != nil {
		t.Fatal(err)
	}

	var samples []ifc.Sample
	if err := p.Samples(func(s ifc.Sample) bool {
		samples = append(samples, s)
		return true
	}); err != nil {
		t.Fatal(err)
	}

	air := ifc.Sample{Kind: ifc.SampleEvent}
	air.Event.Type = ifc.EventGasChange2
	air.Event.Value = 21

	trimix := ifc.Sample{Kind: ifc.SampleEvent}
	trimix.Event.Type = ifc.EventGasChange2
	trimix.Event.Value = 18 | 45<<16

	ndl := ifc.Sample{Kind: ifc.SampleDeco}
	ndl.Deco.Kind = ifc.DecoNDL
	ndl.Deco.Time = 45

	deco := ifc.Sample{Kind: ifc.SampleDeco}
	deco.Deco.Kind = ifc.DecoDecoStop
	deco.Deco.Depth = 3.0
	deco.Deco.Time = 120

	want := []ifc.Sample{
		{Kind: ifc.SampleTime, Time: 10},
		{Kind: ifc.SampleDepth, Depth: 21.5},
		{Kind: ifc.SampleTemperature, Temperature: 19.4},
		air,
		ndl,
		{Kind: ifc.SampleCNS, CNS: 0.03},
		{Kind: ifc.SampleTime, Time: 20},
		{Kind: ifc.SampleDepth, Depth: 21.5},
		{Kind: ifc.SampleTemperature, Temperature: 19.2},
		trimix,
		// The deco record is absent while the time to surface reads 0xFFFF.
		{Kind: ifc.SampleCNS, CNS: 0.05},
		{Kind: ifc.SampleTime, Time: 30},
		{Kind: ifc.SampleDepth, Depth: 18.0},
		{Kind: ifc.SampleTemperature, Temperature: 19.1},
		air,
		deco,
		{Kind: ifc.SampleCNS, CNS: 0.08},
	}

	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d: %+v", len(samples), len(want), samples)
	}
	for i := range want {
		if !reflect.DeepEqual(samples[i], want[i]) {
			t.Errorf("sample %d: got %+v, want %+v", i, samples[i], want[i])
		}
	}
}

func TestIDiveTimestampBackwards(t *testing.T) {
	data := make([]byte, headerSize)
	data = append(data, idiveSample(10, 100, 200, 21, 0, 0, 45, 1)...)
	data = append(data, idiveSample(10, 110, 200, 21, 0, 0, 45, 1)...)

	p := NewIDiveParser()
	if err := p.Bind(data); err != nil {
		t.Fatal(err)
	}
	err := p.Samples(func(ifc.Sample) bool { return true })
	if !errors.As(err, &ifc.ErrDataFormat{}) {
		t.Fatalf("expected ErrDataFormat, got %v", err)
	}
}
