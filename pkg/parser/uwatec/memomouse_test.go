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
	"math"
	"testing"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// memomouseRecord builds a record of the given size for a model. Only
// the bytes Field touches are filled in.
func memomouseRecord(model byte, size int) []byte {
	data := make([]byte, size)
	data[3] = model
	return data
}

func TestMemomouseGasMix(t *testing.T) {
	tests := []struct {
		name   string
		model  byte
		size   int
		gas    byte
		oxygen float64
	}{
		// An air record barely covering its own header must not
		// reach into the extended-header gas byte.
		{"air minimal", 0x00, 41, 0, 0.21},
		{"air", 0x00, 60, 0, 0.21},
		{"nitrox", 0xf4, 42, 0x05, 0.30},
		{"nitrox default", 0xf4, 42, 0x00, 0.21},
		{"oxygen", 0xa4, 43, 80, 0.80},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := memomouseRecord(test.model, test.size)
			if test.size > 41 {
				data[41] = test.gas
			}

			p := NewMemomouseParser(1000, 0)
			if err := p.Bind(data); err != nil {
				t.Fatal(err)
			}

			mix, err := p.Field(ifc.FieldGasMix, 0)
			if err != nil {
				t.Fatal(err)
			}
			gm := mix.(ifc.GasMix)
			if math.Abs(gm.Oxygen-test.oxygen) > 1e-9 {
				t.Errorf("oxygen: got %v, want %v", gm.Oxygen, test.oxygen)
			}
			if sum := gm.Oxygen + gm.Helium + gm.Nitrogen; math.Abs(sum-1.0) > 1e-6 {
				t.Errorf("fractions sum to %v, want 1.0", sum)
			}
		})
	}
}
