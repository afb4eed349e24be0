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
	"math/rand"
	"testing"
)

func TestLCP(t *testing.T) {
	tests := []struct {
		a, b string
		n    int
	}{
		{"", "", 0},
		{"ACGT", "", 0},
		{"ACGT", "TCGT", 0},
		{"ACGT", "ACGT", 4},
		{"ACGTACGT", "ACGA", 3},
		{"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAC", 39},
		{"ACGTACGTACGTACGTACGTACGTACGTACGT", "ACGTACGTACGTACGTACGTACGTACGTACGTA", 32},
	}
	for _, test := range tests {
		a, b := mustPack([]byte(test.a)), mustPack([]byte(test.b))
		if n := LCP(a, b); n != test.n {
			t.Errorf("LCP(%s, %s) = %d, expected: %d", test.a, test.b, n, test.n)
		}
		if n := LCP(b, a); n != test.n {
			t.Errorf("LCP(%s, %s) = %d, expected: %d", test.b, test.a, n, test.n)
		}
	}
}

func TestLCPRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := randSeq(r, 500)
	seq := mustPack(s)

	if n := LCP(seq, seq); n != len(s) {
		t.Errorf("LCP with itself: %d, expected: %d", n, len(s))
	}

	for i := 0; i < 2000; i++ {
		// two unaligned views of the same sequence
		a0, b0 := r.Intn(len(s)), r.Intn(len(s))
		a1, b1 := a0+r.Intn(len(s)-a0+1), b0+r.Intn(len(s)-b0+1)
		n := LCP(seq.Slice(a0, a1), seq.Slice(b0, b1))
		if e := naiveLCP(s[a0:a1], s[b0:b1]); n != e {
			t.Errorf("LCP of [%d, %d) and [%d, %d): %d, expected: %d", a0, a1, b0, b1, n, e)
			return
		}
	}

	// long common prefixes with a mutation
	for i := 0; i < 200; i++ {
		l := 1 + r.Intn(300)
		a := randSeq(r, l)
		b := append([]byte{}, a...)
		j := r.Intn(l)
		b[j] = bases[(bytesIndex(b[j])+1+r.Intn(3))&3]
		if n := LCP(mustPack(a), mustPack(b)); n != j {
			t.Errorf("mutation at %d, LCP: %d", j, n)
		}
	}
}

func bytesIndex(c byte) int {
	for i, b := range bases {
		if b == c {
			return i
		}
	}
	return -1
}
