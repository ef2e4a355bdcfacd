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

// Package array provides multi-byte field extraction from raw dive
// computer memory dumps. Dive computers disagree on byte order, so
// both little- and big-endian variants are provided for every width.
package array

// Uint16LE extracts a 16-bit little-endian value starting at data[0].
func Uint16LE(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}

// Uint16BE extracts a 16-bit big-endian value starting at data[0].
func Uint16BE(data []byte) uint16 {
	return uint16(data[0])<<8 | uint16(data[1])
}

// Uint24LE extracts a 24-bit little-endian value starting at data[0].
func Uint24LE(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
}

// Uint24BE extracts a 24-bit big-endian value starting at data[0].
func Uint24BE(data []byte) uint32 {
	return uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
}

// Uint32LE extracts a 32-bit little-endian value starting at data[0].
func Uint32LE(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
}

// Uint32BE extracts a 32-bit big-endian value starting at data[0].
func Uint32BE(data []byte) uint32 {
	return uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
}

// IsEqual reports whether every byte of data equals value. Used to
// detect blank or erased memory pages.
func IsEqual(data []byte, value byte) bool {
	for _, b := range data {
		if b != value {
			return false
		}
	}
	return true
}

// BCD2Dec converts a binary-coded-decimal byte to its decimal value.
// Nibbles above 9 pass through undefined, as on the devices themselves.
func BCD2Dec(value byte) uint32 {
	return uint32(value>>4)*10 + uint32(value&0x0f)
}

// SignExtend interprets the low nbits of value as a two's-complement
// number and widens it to a signed 32-bit integer.
func SignExtend(value uint32, nbits uint) int32 {
	if nbits == 0 || nbits > 32 {
		return 0
	}
	signbit := uint32(1) << (nbits - 1)
	mask := signbit<<1 - 1
	value &= mask
	if value&signbit != 0 {
		return int32(value | ^mask)
	}
	return int32(value)
}
