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

package layers

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/claudiuolteanu/libdc/pkg/checksum"
)

const (
	// IDiveLayerNum identifies the layer
	IDiveLayerNum = 1999
	// IDiveStart is the first byte of every iDive frame in both directions
	IDiveStart = 0x55
	// IDiveHeaderSize is the start byte plus the payload length byte
	IDiveHeaderSize = 2
	// IDiveCrcSize is the CRC-CCITT trailer appended to each frame
	IDiveCrcSize = 2
	// IDiveMaxPayloadSize is the max payload an iDive frame can carry,
	// the length field is a single byte
	IDiveMaxPayloadSize = 0xFF
)

// IDiveLayer frames one iDive packet: a start byte, a one-byte payload
// length, the payload and a big-endian CRC-CCITT over everything before
// it (start and length bytes included).
type IDiveLayer struct {
	layers.BaseLayer
	Len byte
	Crc uint16
}

var IDiveLayerType = gopacket.RegisterLayerType(IDiveLayerNum,
	gopacket.LayerTypeMetadata{Name: "IDiveLayerType", Decoder: gopacket.DecodeFunc(decodeIDiveLayer)})

func (i *IDiveLayer) LayerType() gopacket.LayerType {
	return IDiveLayerType
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (i *IDiveLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payload := len(b.Bytes())
	if payload < 1 || payload > IDiveMaxPayloadSize {
		return fmt.Errorf("iDive payload size out of range: %d", payload)
	}

	headerBytes, err := b.PrependBytes(IDiveHeaderSize)
	if err != nil {
		return err
	}
	headerBytes[0] = IDiveStart
	headerBytes[1] = byte(payload)
	i.Len = byte(payload)

	i.Crc = checksum.CRCCCITT(b.Bytes())
	tailBytes, err := b.AppendBytes(IDiveCrcSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(tailBytes, i.Crc)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as an iDive frame
func (i *IDiveLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < IDiveHeaderSize+1+IDiveCrcSize {
		df.SetTruncated()
		return errors.New("iDive packet too short")
	}

	if data[0] != IDiveStart {
		return fmt.Errorf("Wrong iDive start byte: 0x%02x", data[0])
	}

	i.Len = data[1]
	end := IDiveHeaderSize + int(i.Len)
	if len(data) < end+IDiveCrcSize {
		df.SetTruncated()
		return errors.New("iDive packet shorter than its length field")
	}

	i.Crc = binary.BigEndian.Uint16(data[end : end+IDiveCrcSize])
	if crc := checksum.CRCCCITT(data[:end]); crc != i.Crc {
		return fmt.Errorf("Wrong iDive checksum: 0x%04x != 0x%04x", i.Crc, crc)
	}

	i.BaseLayer = layers.BaseLayer{
		Contents: data[:IDiveHeaderSize],
		Payload:  data[IDiveHeaderSize:end],
	}
	return nil
}

func (i *IDiveLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func decodeIDiveLayer(data []byte, p gopacket.PacketBuilder) error {
	i := &IDiveLayer{}
	if err := i.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(i)
	return p.NextDecoder(i.NextLayerType())
}
