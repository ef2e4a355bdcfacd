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

package ifc

import (
	"fmt"
)

// ErrDataFormat returned when the dive data violates the expected on-device layout
type ErrDataFormat struct {
	What string
}

func (e ErrDataFormat) Error() string {
	return fmt.Sprintf("Data format error: %s", e.What)
}

// ErrUnsupported returned when the device does not record the requested field
type ErrUnsupported struct {
	What string
}

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("Unsupported: %s", e.What)
}

// ErrInvalidArgs returned when a request is outside the valid range, e.g. a gas mix index
type ErrInvalidArgs struct {
	What string
}

func (e ErrInvalidArgs) Error() string {
	return fmt.Sprintf("Invalid arguments: %s", e.What)
}

// ErrNotBound returned when an accessor is called before Bind
type ErrNotBound struct{}

func (e ErrNotBound) Error() string {
	return "No dive data bound to the parser"
}
