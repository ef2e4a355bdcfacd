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

package parser

import (
	"errors"
	"testing"

	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

func TestNewAllFamilies(t *testing.T) {
	for _, family := range Families() {
		t.Run(string(family), func(t *testing.T) {
			p, err := New(family, Params{Model: 0x10, Serial: 1234})
			if err != nil {
				t.Fatal(err)
			}
			if p == nil {
				t.Fatal("nil parser")
			}
			// A fresh parser has no data bound yet.
			if _, err := p.DateTime(); !errors.As(err, &ifc.ErrNotBound{}) {
				t.Errorf("expected ErrNotBound, got %v", err)
			}
		})
	}
}

func TestNewUnknownFamily(t *testing.T) {
	if _, err := New("acme-depthotron", Params{}); !errors.As(err, &ifc.ErrInvalidArgs{}) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}
