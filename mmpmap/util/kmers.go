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

// KmerMask returns the mask of a k-mer code with k bases.
func KmerMask(k uint8) uint64 {
	if k >= 32 {
		return ^uint64(0)
	}
	return 1<<(k<<1) - 1
}

// KmerExtendRight appends a base (2-bit code) to the right end of a k-mer
// and drops the leftmost one.
func KmerExtendRight(code uint64, base uint8, k uint8) uint64 {
	return (code<<2 | uint64(base&3)) & KmerMask(k)
}

// IsLowComplexityDust checks k-mer complexity with the DUST algorithm.
// The score is the sum of c*(c-1)/2 over counts c of all 3-mers, divided by
// (number of 3-mers - 1), and a k-mer with a score > 2 is of low complexity.
// k-mers shorter than 4 bases are not checked.
func IsLowComplexityDust(code uint64, k uint8) bool {
	if k < 4 {
		return false
	}
	var counts [64]uint16
	var i uint8
	n := k - 2 // number of 3-mers
	for i = 0; i < n; i++ {
		counts[code>>(i<<1)&63]++
	}

	var score int
	for _, c := range counts {
		if c > 1 {
			score += int(c) * int(c-1) >> 1
		}
	}
	return score > 2*(int(n)-1)
}
