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

// Package suunto downloads dives from Suunto dive computers that speak
// the serial memory protocol. Every packet starts with a command byte
// and ends with an XOR checksum over the preceding bytes; the answer
// echoes the command byte and carries the same checksum trailer. Dive
// profiles live in a ring buffer that is traversed backwards, newest
// dive first, following the previous/next pointers stored in front of
// each profile.
package suunto

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/claudiuolteanu/libdc/pkg/checksum"
	"github.com/claudiuolteanu/libdc/pkg/device/ifc"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	// A packet is occasionally lost or corrupted; the command is
	// repeated a couple of times before giving up.
	maxRetries = 2

	szVersion = 0x04
	szPacket  = 0x78
	// szMinimum is the smallest reliable read size; shorter reads are
	// padded and the extra bytes discarded.
	szMinimum = 8

	fingerprintSize = 7
)

// Layout locates the serial number, the profile ring buffer and the
// per-dive fingerprint for one device generation.
type Layout struct {
	MemSize int
	// Serial is the memory address of the serial number.
	Serial int
	// Fingerprint is the offset of the fingerprint inside a dive.
	Fingerprint    int
	RBProfileBegin int
	RBProfileEnd   int
}

func (l *Layout) rbSize() int {
	return l.RBProfileEnd - l.RBProfileBegin
}

// rbDistance is the number of bytes from a to b walking forward
// through the ring buffer. When both pointers coincide the buffer is
// either empty or completely full; full selects which.
func (l *Layout) rbDistance(a, b int, full bool) int {
	if a < b {
		return b - a
	}
	if a > b {
		return l.rbSize() - (a - b)
	}
	if full {
		return l.rbSize()
	}
	return 0
}

// LayoutD9 covers the D9 generation of the protocol.
var LayoutD9 = &Layout{
	MemSize:        0x8000,
	Serial:         0x0023,
	Fingerprint:    0x0011,
	RBProfileBegin: 0x019A,
	RBProfileEnd:   0x8000,
}

// SerialDevice downloads the dive log of a Suunto unit over the serial
// memory protocol.
type SerialDevice struct {
	transport   ifc.Transport
	layout      *Layout
	version     [szVersion]byte
	fingerprint [fingerprintSize]byte
	info        ifc.DevInfo
}

var _ ifc.Device = &SerialDevice{}

// NewSerialDevice queries the version and serial number of the unit
// behind the transport.
func NewSerialDevice(transport ifc.Transport, layout *Layout) (*SerialDevice, error) {
	d := &SerialDevice{transport: transport, layout: layout}

	version, err := d.Version()
	if err != nil {
		return nil, err
	}
	copy(d.version[:], version)

	serial := make([]byte, szMinimum)
	if err := d.Read(layout.Serial, serial); err != nil {
		return nil, err
	}

	var number uint32
	for i := 0; i < 4; i++ {
		number *= 100
		number += uint32(serial[i])
	}
	d.info = ifc.DevInfo{
		Model:    uint32(d.version[0]),
		Firmware: uint32(d.version[1])<<16 | uint32(d.version[2])<<8 | uint32(d.version[3]),
		Serial:   number,
	}
	return d, nil
}

func (d *SerialDevice) Info() ifc.DevInfo {
	return d.info
}

func (d *SerialDevice) SetFingerprint(fp []byte) {
	var zero [fingerprintSize]byte
	d.fingerprint = zero
	copy(d.fingerprint[:], fp)
}

func (d *SerialDevice) Close() error {
	return d.transport.Close()
}

// Version queries the firmware version of the unit.
func (d *SerialDevice) Version() ([]byte, error) {
	command := []byte{0x0F, 0x00, 0x00, 0x0F}
	answer, err := d.transfer(command, szVersion+4)
	if err != nil {
		return nil, err
	}
	return answer[3 : 3+szVersion], nil
}

// Read copies len(data) bytes of device memory starting at address,
// one packet at a time.
func (d *SerialDevice) Read(address int, data []byte) error {
	nbytes := 0
	for nbytes < len(data) {
		n := len(data) - nbytes
		if n > szPacket {
			n = szPacket
		}

		command := []byte{0x05, 0x00, 0x03,
			byte(address >> 8),
			byte(address),
			byte(n),
			0}
		command[6] = checksum.Xor8(command[:6], 0x00)

		answer, err := d.transfer(command, n+7)
		if err != nil {
			return err
		}
		copy(data[nbytes:], answer[6:6+n])

		nbytes += n
		address += n
	}
	return nil
}

// Write copies len(data) bytes into device memory starting at address.
func (d *SerialDevice) Write(address int, data []byte) error {
	nbytes := 0
	for nbytes < len(data) {
		n := len(data) - nbytes
		if n > szPacket {
			n = szPacket
		}

		command := make([]byte, n+7)
		command[0] = 0x06
		command[1] = 0x00
		command[2] = byte(n + 3)
		command[3] = byte(address >> 8)
		command[4] = byte(address)
		command[5] = byte(n)
		copy(command[6:], data[nbytes:nbytes+n])
		command[n+6] = checksum.Xor8(command[:n+6], 0x00)

		if _, err := d.transfer(command, 7); err != nil {
			return err
		}

		nbytes += n
		address += n
	}
	return nil
}

// Foreach walks the profile ring buffer backwards, newest dive first,
// and stops early when it reaches the dive matching the armed
// fingerprint. An incomplete dive at the write pointer is skipped; the
// remaining dives are still delivered and the format error is reported
// after the pass.
func (d *SerialDevice) Foreach(cb ifc.DiveCallback) error {
	layout := d.layout

	header := make([]byte, 8)
	if err := d.Read(0x0190, header); err != nil {
		return err
	}

	last := int(binary.LittleEndian.Uint16(header[0:]))
	count := int(binary.LittleEndian.Uint16(header[2:]))
	end := int(binary.LittleEndian.Uint16(header[4:]))
	begin := int(binary.LittleEndian.Uint16(header[6:]))
	if last < layout.RBProfileBegin || last >= layout.RBProfileEnd ||
		end < layout.RBProfileBegin || end >= layout.RBProfileEnd ||
		begin < layout.RBProfileBegin || begin >= layout.RBProfileEnd {
		return parserifc.ErrDataFormat{What: "invalid ringbuffer pointer"}
	}

	data := make([]byte, layout.rbSize()+szMinimum)
	remaining := layout.rbDistance(begin, end, count != 0)

	// The largest possible packets are read, so the last packet of a
	// dive can already contain bytes of the next (older) dive; those
	// carry over to the next iteration.
	available := 0

	// Deferred format error for incomplete dives.
	var status error

	current := last
	previous := end
	address := previous
	offset := remaining + szMinimum
	for remaining > 0 {
		size := layout.rbDistance(current, previous, true)
		if size < 4 || size > remaining {
			return parserifc.ErrDataFormat{What: "unexpected profile size"}
		}

		nbytes := available
		for nbytes < size {
			if address == layout.RBProfileBegin {
				address = layout.RBProfileEnd
			}

			n := szPacket
			if layout.RBProfileBegin+n > address {
				n = address - layout.RBProfileBegin
			}
			if nbytes+n > remaining {
				n = remaining - nbytes
			}

			offset -= n
			address -= n

			// Short reads are unreliable, pad them to the minimum and
			// let the extra bytes be overwritten by the next packet.
			extra := 0
			if n < szMinimum {
				extra = szMinimum - n
			}

			if err := d.Read(address-extra, data[offset-extra:offset+n]); err != nil {
				return err
			}

			nbytes += n
		}

		remaining -= size
		available = nbytes - size

		// The dive is preceded by its previous and next pointers.
		p := offset + available
		prev := int(binary.LittleEndian.Uint16(data[p:]))
		next := int(binary.LittleEndian.Uint16(data[p+2:]))
		if prev < layout.RBProfileBegin || prev >= layout.RBProfileEnd ||
			next < layout.RBProfileBegin || next >= layout.RBProfileEnd {
			return parserifc.ErrDataFormat{What: "invalid ringbuffer pointer"}
		}
		if next != previous && next != current {
			return parserifc.ErrDataFormat{What: "profiles are not continuous"}
		}

		if next != current {
			fp := p + 4 + layout.Fingerprint
			if bytes.Equal(data[fp:fp+fingerprintSize], d.fingerprint[:]) {
				return nil
			}
			if cb != nil && !cb(data[p+4:p+size], data[fp:fp+fingerprintSize]) {
				return nil
			}
		} else {
			// The write pointer is inside this dive, it is still being
			// recorded. Skip it but keep downloading the older dives.
			status = parserifc.ErrDataFormat{What: "incomplete dive"}
		}

		previous = current
		current = prev
	}

	return status
}

// transfer repeats a command until the unit answers it; corrupted
// packets and timeouts are retried, transport failures are not.
func (d *SerialDevice) transfer(command []byte, asize int) ([]byte, error) {
	nretries := 0
	for {
		answer, err := d.packet(command, asize)
		if err == nil {
			return answer, nil
		}

		var terr ifc.ErrTimeout
		var perr ifc.ErrProtocol
		if !errors.As(err, &terr) && !errors.As(err, &perr) {
			return nil, err
		}
		if nretries >= maxRetries {
			return nil, err
		}
		nretries++
	}
}

func (d *SerialDevice) packet(command []byte, asize int) ([]byte, error) {
	if err := d.transport.Flush(); err != nil {
		return nil, err
	}
	if _, err := d.transport.Write(command); err != nil {
		return nil, err
	}

	answer := make([]byte, asize)
	if err := d.readFull(answer); err != nil {
		return nil, err
	}

	if answer[0] != command[0] {
		return nil, ifc.ErrProtocol{What: "unexpected answer header"}
	}
	if crc := checksum.Xor8(answer[:asize-1], 0x00); crc != answer[asize-1] {
		return nil, ifc.ErrProtocol{What: "unexpected answer checksum"}
	}
	return answer, nil
}

func (d *SerialDevice) readFull(p []byte) error {
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
