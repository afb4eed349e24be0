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

import (
	"bytes"
	"math/rand"

	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
)

var bases = []byte("ACGT")

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = bases[r.Intn(4)]
	}
	return s
}

// randRepetitiveSeq returns a sequence with some copies of a few segments.
func randRepetitiveSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, 0, n)
	segments := [][]byte{randSeq(r, 50), randSeq(r, 120), bytes.Repeat([]byte("AC"), 40)}
	for len(s) < n {
		if r.Intn(3) == 0 {
			s = append(s, segments[r.Intn(len(segments))]...)
		} else {
			s = append(s, randSeq(r, 1+r.Intn(100))...)
		}
	}
	return s[:n]
}

func mustPack(s []byte) *twobit.Seq {
	seq, err := twobit.New(s)
	if err != nil {
		panic(err)
	}
	return seq
}

func naiveLCP(a, b []byte) int {
	var i int
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}

// naiveMMP checks all reference positions.
func naiveMMP(ref, query []byte, k int) (Match, bool) {
	var m Match
	var ok bool
	for o := 0; o+k <= len(ref); o++ {
		if !bytes.Equal(ref[o:o+k], query[:k]) {
			continue
		}
		l := uint32(k + naiveLCP(ref[o+k:], query[k:]))
		if l > m.Len {
			m = Match{Pos: uint32(o), Len: l}
			ok = true
		}
	}
	return m, ok
}
