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

// ErrProtocol returned when the device answers with a malformed or
// unexpected packet
type ErrProtocol struct {
	What string
}

func (e ErrProtocol) Error() string {
	return fmt.Sprintf("Protocol error: %s", e.What)
}

// ErrTimeout returned when the device stops answering within the
// transport timeout
type ErrTimeout struct{}

func (e ErrTimeout) Error() string {
	return "Timeout while waiting for the device"
}

// ErrIO returned when the transport itself fails
type ErrIO struct {
	What string
}

func (e ErrIO) Error() string {
	return fmt.Sprintf("I/O error: %s", e.What)
}
