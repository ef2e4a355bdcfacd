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

// Package ifc declares the contracts between download protocols and the
// transports they run over. A Transport moves bytes to and from a dive
// computer; a Device speaks one vendor protocol on top of a Transport
// and enumerates the dives stored on the unit.
package ifc

import (
	"time"
)

// Transport is a byte pipe to a dive computer, typically a serial port.
// Read blocks until at least one byte arrives or the configured timeout
// expires; a timeout is reported as a short read, not an error.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// SetTimeout bounds every subsequent Read.
	SetTimeout(timeout time.Duration) error
	// Flush discards unread input buffered by the transport.
	Flush() error
	Close() error
}

// DevInfo identifies the connected unit.
type DevInfo struct {
	Model    uint32
	Firmware uint32
	Serial   uint32
}

// DiveCallback receives one downloaded dive, newest first. The data
// slice is the raw dive (header plus samples) in the layout expected by
// the matching parser family, and fingerprint identifies the dive for
// incremental downloads. Returning false stops the enumeration without
// an error.
type DiveCallback func(data []byte, fingerprint []byte) bool

// Device is a dive computer being downloaded over some Transport.
type Device interface {
	// Info reports the identity of the unit the device handshaked with.
	Info() DevInfo
	// SetFingerprint arms incremental downloads: Foreach stops before
	// delivering the dive whose fingerprint matches.
	SetFingerprint(fp []byte)
	// Foreach downloads the dives stored on the unit, newest first,
	// and hands each one to cb.
	Foreach(cb DiveCallback) error
	Close() error
}
