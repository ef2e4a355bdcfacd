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

package array

import (
	"testing"
)

func TestExtract(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78}

	if got := Uint16LE(data); got != 0x3412 {
		t.Errorf("Uint16LE: got 0x%04x, want 0x3412", got)
	}
	if got := Uint16BE(data); got != 0x1234 {
		t.Errorf("Uint16BE: got 0x%04x, want 0x1234", got)
	}
	if got := Uint24LE(data); got != 0x563412 {
		t.Errorf("Uint24LE: got 0x%06x, want 0x563412", got)
	}
	if got := Uint24BE(data); got != 0x123456 {
		t.Errorf("Uint24BE: got 0x%06x, want 0x123456", got)
	}
	if got := Uint32LE(data); got != 0x78563412 {
		t.Errorf("Uint32LE: got 0x%08x, want 0x78563412", got)
	}
	if got := Uint32BE(data); got != 0x12345678 {
		t.Errorf("Uint32BE: got 0x%08x, want 0x12345678", got)
	}
}

func TestIsEqual(t *testing.T) {
	for _, tc := range []struct {
		name  string
		data  []byte
		value byte
		want  bool
	}{
		{"all zero", []byte{0, 0, 0}, 0x00, true},
		{"all ff", []byte{0xff, 0xff}, 0xff, true},
		{"mixed", []byte{0xff, 0x00}, 0xff, false},
		{"empty", nil, 0x00, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEqual(tc.data, tc.value); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBCD2Dec(t *testing.T) {
	for _, tc := range []struct {
		in   byte
		want uint32
	}{
		{0x00, 0},
		{0x09, 9},
		{0x10, 10},
		{0x59, 59},
		{0x99, 99},
	} {
		if got := BCD2Dec(tc.in); got != tc.want {
			t.Errorf("BCD2Dec(0x%02x): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSignExtend(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value uint32
		nbits uint
		want  int32
	}{
		{"5-bit negative", 0x13, 5, -13},
		{"5-bit positive", 0x0b, 5, 11},
		{"8-bit negative", 0xff, 8, -1},
		{"8-bit positive", 0x7f, 8, 127},
		{"16-bit negative", 0x8000, 16, -32768},
		{"32-bit passthrough", 0xfffffffe, 32, -2},
		{"zero width", 0x13, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := SignExtend(tc.value, tc.nbits); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
