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

	"github.com/shenwei356/kmers"
	"github.com/shenwei356/lexichash/iterator"
)

func naiveMinimizer(s []byte, p int) uint64 {
	var min uint64
	for i := 0; i+p <= len(s); i++ {
		code, err := kmers.Encode(s[i : i+p])
		if err != nil {
			panic(err)
		}
		if i == 0 || code < min {
			min = code
		}
	}
	return min
}

func TestMinimizer(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, kp := range [][2]int{{32, 12}, {21, 9}, {15, 15}, {8, 1}, {1, 1}} {
		k, p := kp[0], kp[1]
		for i := 0; i < 200; i++ {
			s := randSeq(r, k)
			window := mustPack(s)

			m1 := Minimizer(window, p)
			m2 := Minimizer(window, p)
			if m1 != m2 {
				t.Errorf("k=%d, p=%d: minimizer not deterministic", k, p)
			}
			if m3 := naiveMinimizer(s, p); m1 != m3 {
				t.Errorf("k=%d, p=%d, %s: %s vs %s", k, p, s,
					kmers.MustDecode(m1, p), kmers.MustDecode(m3, p))
				return
			}
		}
	}

	// the first one is the smallest
	window := mustPack([]byte("AAAACCCCGGGGTTTT"))
	if m := Minimizer(window, 4); m != 0 {
		t.Errorf("minimizer of AAAACCCCGGGGTTTT: %s", kmers.MustDecode(m, 4))
	}
	// in the middle of a window
	window = mustPack([]byte("TTTTGACATTTT"))
	if m := kmers.MustDecode(Minimizer(window, 3), 3); string(m) != "ACA" {
		t.Errorf("minimizer of TTTTGACATTTT: %s", m)
	}
}

func TestScanMinimizers(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for _, kp := range [][2]int{{32, 12}, {21, 9}, {15, 15}, {8, 1}, {1, 1}, {32, 32}} {
		k, p := kp[0], kp[1]
		s := randRepetitiveSeq(r, 3000)
		seq := mustPack(s)
		n := len(s) - k + 1

		expected := 0
		scanMinimizers(seq, k, p, 0, n, func(start int, m uint64) {
			if start != expected {
				t.Errorf("k=%d, p=%d: window %d is skipped", k, p, expected)
			}
			expected++

			if m2 := Minimizer(seq.Slice(start, start+k), p); m != m2 {
				t.Errorf("k=%d, p=%d, window %d: %s vs %s", k, p, start,
					kmers.MustDecode(m, p), kmers.MustDecode(m2, p))
			}
		})
		if expected != n {
			t.Errorf("k=%d, p=%d: %d windows scanned, expected: %d", k, p, expected, n)
		}

		// starting from the middle
		scanMinimizers(seq, k, p, 1000, 1100, func(start int, m uint64) {
			if m2 := Minimizer(seq.Slice(start, start+k), p); m != m2 {
				t.Errorf("k=%d, p=%d, window %d (from 1000): %s vs %s", k, p, start,
					kmers.MustDecode(m, p), kmers.MustDecode(m2, p))
			}
		})
	}
}

// k-mers extracted from packed sequences should be the same as
// those from an independent k-mer iterator.
func TestKmerIterator(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	s := randSeq(r, 500)
	seq := mustPack(s)

	for _, k := range []int{5, 21, 31} {
		iter, err := iterator.NewKmerIterator(s, k)
		if err != nil {
			t.Error(err)
			return
		}
		var i int
		for {
			code, ok, err := iter.NextPositiveKmer()
			if err != nil {
				t.Error(err)
				return
			}
			if !ok {
				break
			}
			if code != seq.Kmer(i, k) {
				t.Errorf("k=%d, pos=%d: %s vs %s", k, i,
					kmers.MustDecode(seq.Kmer(i, k), k), kmers.MustDecode(code, k))
				return
			}
			i++
		}
		if i != len(s)-k+1 {
			t.Errorf("k=%d: %d k-mers, expected: %d", k, i, len(s)-k+1)
		}
	}
}
