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

package index

import "github.com/shenwei356/mmpmap/mmpmap/index/twobit"

// LCP returns the length of the longest common prefix of two sequences.
// 32 bases are compared at once, and the rest bases one by one.
func LCP(a, b *twobit.Seq) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}

	var i int
	for i+twobit.BasesPerWord <= n && a.Kmer(i, twobit.BasesPerWord) == b.Kmer(i, twobit.BasesPerWord) {
		i += twobit.BasesPerWord
	}
	for i < n && a.Base(i) == b.Base(i) {
		i++
	}
	return i
}
