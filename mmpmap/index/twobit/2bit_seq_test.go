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

package twobit

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/shenwei356/kmers"
)

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = bit2base[r.Intn(4)]
	}
	return s
}

func TestPackAndDecode(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, n := range []int{0, 1, 3, 4, 31, 32, 33, 63, 64, 65, 100, 1000} {
		s := randSeq(r, n)
		seq, err := New(s)
		if err != nil {
			t.Error(err)
			return
		}
		if seq.Len() != n {
			t.Errorf("length: %d, expected: %d", seq.Len(), n)
		}
		if !bytes.Equal(seq.Bytes(), s) {
			t.Errorf("decoded sequence mismatch for length %d", n)
		}

		seq2, err := NewFromWords(seq.Words(), n)
		if err != nil {
			t.Error(err)
			return
		}
		if seq2.String() != string(s) {
			t.Errorf("sequence from words mismatch for length %d", n)
		}
	}
}

func TestInvalidBase(t *testing.T) {
	for _, s := range []string{"ACGTN", "acgt", "ACG-T", "XXXX"} {
		_, err := New([]byte(s))
		if !errors.Is(err, ErrInvalidBase) {
			t.Errorf("%s: expected ErrInvalidBase, got: %v", s, err)
		}
	}

	if _, err := NewFromWords(make([]uint64, 3), 32); !errors.Is(err, ErrInvalidTwoBitData) {
		t.Errorf("expected ErrInvalidTwoBitData, got: %v", err)
	}
}

func TestKmer(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := randSeq(r, 300)
	seq, err := New(s)
	if err != nil {
		t.Error(err)
		return
	}

	var code uint64
	for _, k := range []int{1, 2, 11, 12, 21, 31, 32} {
		for i := 0; i+k <= len(s); i++ {
			code, err = kmers.Encode(s[i : i+k])
			if err != nil {
				t.Error(err)
				return
			}
			if seq.Kmer(i, k) != code {
				t.Errorf("k=%d, pos=%d: %s vs %s", k, i,
					kmers.MustDecode(seq.Kmer(i, k), k), s[i:i+k])
				return
			}
		}
	}

	for i := range s {
		if bit2base[seq.Base(i)] != s[i] {
			t.Errorf("base at %d: %c vs %c", i, bit2base[seq.Base(i)], s[i])
		}
	}
}

func TestSlice(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := randSeq(r, 200)
	seq, _ := New(s)

	for _, region := range [][2]int{{0, 200}, {1, 200}, {5, 37}, {33, 33}, {63, 130}, {199, 200}} {
		sub := seq.Slice(region[0], region[1])
		expected := s[region[0]:region[1]]
		if sub.String() != string(expected) {
			t.Errorf("slice %v: %s vs %s", region, sub, expected)
		}

		// re-packed words
		sub2, err := NewFromWords(sub.Words(), sub.Len())
		if err != nil {
			t.Error(err)
			return
		}
		if sub2.String() != string(expected) {
			t.Errorf("re-packed slice %v: %s vs %s", region, sub2, expected)
		}

		if sub.Len() >= 10 {
			sub3 := sub.Slice(3, 10)
			if sub3.String() != string(expected[3:10]) {
				t.Errorf("nested slice of %v: %s vs %s", region, sub3, expected[3:10])
			}
		}
	}
}
