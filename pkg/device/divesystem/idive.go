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

// Package divesystem downloads dives from Divesystem iDive computers.
// The protocol is a simple command/response exchange over 115200 8N1:
// every frame carries a start byte, a payload length, the payload and a
// CRC-CCITT trailer. The unit answers each command with an echo of the
// command byte, the requested data and an ACK, or a NAK with an error
// code when it cannot serve the request yet.
package divesystem

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/gopacket"

	"github.com/claudiuolteanu/libdc/pkg/device/ifc"
	"github.com/claudiuolteanu/libdc/pkg/layers"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	maxRetries = 9
	// busyDelay is the pause before retrying a command the unit
	// answered with a BUSY NAK.
	busyDelay = 100 * time.Millisecond

	ack     = 0x06
	nak     = 0x15
	errBusy = 0x60

	cmdID     = 0x10
	cmdRange  = 0x98
	cmdHeader = 0xA0
	cmdSample = 0xA8

	szID     = 0x0A
	szRange  = 0x04
	szHeader = 0x32
	szSample = 0x2A

	fingerprintSize = 4
)

// IDiveDevice downloads the dive log of an iDive unit, newest dive
// first. Dive headers are fetched one by one and each dive's samples
// are pulled with indexed sample commands, then concatenated behind the
// header in the layout the matching parser expects.
type IDiveDevice struct {
	transport   ifc.Transport
	info        ifc.DevInfo
	fingerprint [fingerprintSize]byte
}

var _ ifc.Device = &IDiveDevice{}

// NewIDiveDevice queries the identity of the unit behind the transport.
func NewIDiveDevice(transport ifc.Transport) (*IDiveDevice, error) {
	d := &IDiveDevice{transport: transport}

	id, err := d.transfer([]byte{cmdID, 0xED}, szID)
	if err != nil {
		return nil, err
	}
	d.info = ifc.DevInfo{
		Model:  uint32(binary.LittleEndian.Uint16(id)),
		Serial: binary.LittleEndian.Uint32(id[6:]),
	}
	return d, nil
}

func (d *IDiveDevice) Info() ifc.DevInfo {
	return d.info
}

func (d *IDiveDevice) SetFingerprint(fp []byte) {
	var zero [fingerprintSize]byte
	d.fingerprint = zero
	copy(d.fingerprint[:], fp)
}

func (d *IDiveDevice) Close() error {
	return d.transport.Close()
}

// Foreach walks the recorded dives from the newest to the oldest and
// stops early when it reaches the dive matching the armed fingerprint.
func (d *IDiveDevice) Foreach(cb ifc.DiveCallback) error {
	rng, err := d.transfer([]byte{cmdRange, 0x8D}, szRange)
	if err != nil {
		return err
	}

	first := binary.LittleEndian.Uint16(rng)
	last := binary.LittleEndian.Uint16(rng[2:])
	if first > last {
		return parserifc.ErrDataFormat{What: "invalid dive number range"}
	}
	ndives := int(last-first) + 1

	for i := 0; i < ndives; i++ {
		number := last - uint16(i)
		header, err := d.transfer([]byte{cmdHeader, byte(number), byte(number >> 8)}, szHeader)
		if err != nil {
			return err
		}

		if bytes.Equal(header[7:7+fingerprintSize], d.fingerprint[:]) {
			break
		}

		nsamples := int(binary.LittleEndian.Uint16(header[1:]))
		dive := make([]byte, 0, szHeader+szSample*nsamples)
		dive = append(dive, header...)

		for j := 0; j < nsamples; j++ {
			idx := j + 1
			sample, err := d.transfer([]byte{cmdSample, byte(idx), byte(idx >> 8)}, szSample)
			if err != nil {
				return err
			}
			dive = append(dive, sample...)
		}

		if cb != nil && !cb(dive, dive[7:7+fingerprintSize]) {
			return nil
		}
	}

	return nil
}

// transfer sends one command and returns the answer payload with the
// command echo and the ACK byte stripped. A BUSY NAK is retried after a
// short delay.
func (d *IDiveDevice) transfer(command []byte, asize int) ([]byte, error) {
	for nretries := 0; ; nretries++ {
		if err := d.send(command); err != nil {
			return nil, err
		}

		packet, err := d.receive()
		if err != nil {
			return nil, err
		}

		if packet[0] != command[0] {
			return nil, ifc.ErrProtocol{What: "unexpected packet header"}
		}

		if packet[len(packet)-1] == ack {
			if len(packet)-2 != asize {
				return nil, ifc.ErrProtocol{What: "unexpected packet length"}
			}
			return packet[1 : len(packet)-1], nil
		}

		if packet[len(packet)-1] != nak {
			return nil, ifc.ErrProtocol{What: "unexpected ACK/NAK byte"}
		}
		if len(packet) != 3 {
			return nil, ifc.ErrProtocol{What: "unexpected NAK packet length"}
		}
		if packet[1] != errBusy {
			return nil, ifc.ErrProtocol{What: fmt.Sprintf("NAK with error code 0x%02x", packet[1])}
		}
		if nretries >= maxRetries {
			return nil, ifc.ErrProtocol{What: "device still busy"}
		}

		time.Sleep(busyDelay)
	}
}

func (d *IDiveDevice) send(command []byte) error {
	buf := gopacket.NewSerializeBuffer()
	payload, err := buf.AppendBytes(len(command))
	if err != nil {
		return ifc.ErrProtocol{What: err.Error()}
	}
	copy(payload, command)

	frame := &layers.IDiveLayer{}
	if err := frame.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		return ifc.ErrProtocol{What: err.Error()}
	}

	if _, err := d.transport.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// receive assembles one frame from the transport, skipping any noise in
// front of the start byte, and returns the verified payload.
func (d *IDiveDevice) receive() ([]byte, error) {
	var b [1]byte
	for {
		if err := d.readFull(b[:]); err != nil {
			return nil, err
		}
		if b[0] == layers.IDiveStart {
			break
		}
	}

	if err := d.readFull(b[:]); err != nil {
		return nil, err
	}
	length := int(b[0])
	if length < 2 || length > layers.IDiveMaxPayloadSize {
		return nil, ifc.ErrProtocol{What: "packet length out of range"}
	}

	frame := make([]byte, layers.IDiveHeaderSize+length+layers.IDiveCrcSize)
	frame[0] = layers.IDiveStart
	frame[1] = byte(length)
	if err := d.readFull(frame[layers.IDiveHeaderSize:]); err != nil {
		return nil, err
	}

	var l layers.IDiveLayer
	if err := l.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, ifc.ErrProtocol{What: err.Error()}
	}
	return l.Payload, nil
}

func (d *IDiveDevice) readFull(p []byte) error {
	for n := 0; n < len(p); {
		m, err := d.transport.Read(p[n:])
		if err != nil {
			return err
		}
		if m == 0 {
			return ifc.ErrTimeout{}
		}
		n += m
	}
	return nil
}
