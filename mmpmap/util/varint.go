// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package util

import "math/bits"

// Group varint (Stream VByte-like) encoding of integers:
// a control byte storing the byte lengths of a group of integers,
// followed by the big-endian significant bytes of each integer.

// PutUint64s encodes two uint64s into 2-16 bytes, and returns control byte
// and encoded byte length.
func PutUint64s(buf []byte, v1, v2 uint64) (ctrl byte, n int) {
	for _, v := range [2]uint64{v1, v2} {
		blen := ByteLengthUint64(v)
		ctrl = ctrl<<3 | byte(blen-1)
		for shift := int(blen-1) << 3; shift >= 0; shift -= 8 {
			buf[n] = byte(v >> shift)
			n++
		}
	}
	return
}

// Uint64s decodes two uint64s. n == 0 means the buffer is too short.
func Uint64s(ctrl byte, buf []byte) (v1, v2 uint64, n int) {
	blen1 := int(ctrl>>3&7) + 1
	blen2 := int(ctrl&7) + 1
	if len(buf) < blen1+blen2 {
		return 0, 0, 0
	}
	for j := 0; j < blen1; j++ {
		v1 = v1<<8 | uint64(buf[n])
		n++
	}
	for j := 0; j < blen2; j++ {
		v2 = v2<<8 | uint64(buf[n])
		n++
	}
	return
}

// PutUint32s encodes four uint32s into 4-16 bytes, and returns control byte
// and encoded byte length.
func PutUint32s(buf []byte, v1, v2, v3, v4 uint32) (ctrl byte, n int) {
	for _, v := range [4]uint32{v1, v2, v3, v4} {
		blen := ByteLengthUint32(v)
		ctrl = ctrl<<2 | byte(blen-1)
		for shift := int(blen-1) << 3; shift >= 0; shift -= 8 {
			buf[n] = byte(v >> shift)
			n++
		}
	}
	return
}

// Uint32s decodes four uint32s. n == 0 means the buffer is too short.
func Uint32s(ctrl byte, buf []byte) (v1, v2, v3, v4 uint32, n int) {
	if len(buf) < CtrlByte2ByteLengthsUint32(ctrl) {
		return 0, 0, 0, 0, 0
	}
	var vs [4]uint32
	for i := range vs {
		blen := int(ctrl>>((3-i)<<1)&3) + 1
		for j := 0; j < blen; j++ {
			vs[i] = vs[i]<<8 | uint32(buf[n])
			n++
		}
	}
	return vs[0], vs[1], vs[2], vs[3], n
}

// ByteLengthUint64 returns the minimum number of bytes to store an integer.
func ByteLengthUint64(n uint64) uint8 {
	if n == 0 {
		return 1
	}
	return uint8(bits.Len64(n)+7) >> 3
}

// ByteLengthUint32 returns the minimum number of bytes to store an integer.
func ByteLengthUint32(n uint32) uint8 {
	if n == 0 {
		return 1
	}
	return uint8(bits.Len32(n)+7) >> 3
}

// CtrlByte2ByteLengthsUint64 returns the byte length for a given control byte.
func CtrlByte2ByteLengthsUint64(ctrl byte) int {
	return int(ctrl>>3&7+ctrl&7) + 2
}

// CtrlByte2ByteLengthsUint32 returns the byte length for a given control byte.
func CtrlByte2ByteLengthsUint32(ctrl byte) int {
	return int(ctrl>>6&3+ctrl>>4&3+ctrl>>2&3+ctrl&3) + 4
}
