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

// Package checksum implements the integrity primitives used by dive
// computer transfer protocols and on-device log formats.
package checksum

// Add4 returns the low nibble of the byte sum of data, seeded with init.
func Add4(data []byte, init byte) byte {
	return Add8(data, init) & 0x0f
}

// Add8 returns the 8-bit byte sum of data, seeded with init.
func Add8(data []byte, init byte) byte {
	crc := init
	for _, b := range data {
		crc += b
	}
	return crc
}

// Add16 returns the 16-bit byte sum of data, seeded with init.
func Add16(data []byte, init uint16) uint16 {
	crc := init
	for _, b := range data {
		crc += uint16(b)
	}
	return crc
}

// Xor8 returns the byte XOR of data, seeded with init.
func Xor8(data []byte, init byte) byte {
	crc := init
	for _, b := range data {
		crc ^= b
	}
	return crc
}

// CRCCCITT computes the CRC-CCITT of data: polynomial 0x1021,
// initial value 0xffff, no final XOR.
func CRCCCITT(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
