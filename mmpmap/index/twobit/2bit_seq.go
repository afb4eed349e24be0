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
	"errors"
	"fmt"
)

// ErrInvalidBase means the sequence contains a symbol other than A, C, G, T.
var ErrInvalidBase = errors.New("2bit seq: invalid base")

// ErrInvalidTwoBitData means the number of words does not match the number of bases.
var ErrInvalidTwoBitData = errors.New("2bit seq: invalid two-bit data")

// BasesPerWord is the number of bases stored in one uint64.
const BasesPerWord = 32

// Seq is a 2bit-packed DNA sequence.
// Bases are stored from the most significant bits of each word,
// with A=0, C=1, G=2, T=3, the same as k-mer codes of
// github.com/shenwei356/kmers, so a k-mer extracted from a Seq could be
// compared with an encoded k-mer directly.
//
// A Seq is immutable. A slice of a Seq shares the words of its parent.
type Seq struct {
	words []uint64
	start int // offset of the first base in words
	n     int // number of bases
}

var base2bit [256]uint8

var bit2base = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := range base2bit {
		base2bit[i] = 255
	}
	base2bit['A'] = 0
	base2bit['C'] = 1
	base2bit['G'] = 2
	base2bit['T'] = 3
}

// New packs a DNA sequence, only upper-case A, C, G, T are allowed.
func New(s []byte) (*Seq, error) {
	n := len(s)
	words := make([]uint64, (n+BasesPerWord-1)/BasesPerWord)

	var w uint64
	var b uint8
	for i, c := range s {
		b = base2bit[c]
		if b > 3 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidBase, c, i)
		}
		w = w<<2 | uint64(b)
		if i&31 == 31 {
			words[i>>5] = w
			w = 0
		}
	}
	if m := n & 31; m > 0 {
		words[n>>5] = w << ((32 - m) << 1)
	}

	return &Seq{words: words, n: n}, nil
}

// NewFromWords creates a Seq from packed words, e.g., read from a file.
// The words are not copied.
func NewFromWords(words []uint64, n int) (*Seq, error) {
	if n < 0 || len(words) != (n+BasesPerWord-1)/BasesPerWord {
		return nil, ErrInvalidTwoBitData
	}
	return &Seq{words: words, n: n}, nil
}

// Len returns the number of bases.
func (s *Seq) Len() int {
	return s.n
}

// Base returns the 2-bit code of the base at position i (0-based).
func (s *Seq) Base(i int) uint8 {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("2bit seq: index %d out of range [0, %d)", i, s.n))
	}
	i += s.start
	return uint8(s.words[i>>5] >> ((31 - i&31) << 1) & 3)
}

// Kmer returns the code of the k-mer of k bases starting at position i (0-based).
// k should be in range of [1, 32].
func (s *Seq) Kmer(i int, k int) uint64 {
	if k < 1 || k > 32 {
		panic(fmt.Sprintf("2bit seq: k-mer size %d out of range [1, 32]", k))
	}
	if i < 0 || i+k > s.n {
		panic(fmt.Sprintf("2bit seq: k-mer [%d, %d) out of range [0, %d)", i, i+k, s.n))
	}

	i += s.start
	j := i >> 5
	o := uint(i&31) << 1

	code := s.words[j] << o
	// the tail comes from the next word
	if o > 0 && j+1 < len(s.words) {
		code |= s.words[j+1] >> (64 - o)
	}
	return code >> (uint(32-k) << 1)
}

// Slice returns the subsequence [start, end), sharing the underlying data.
func (s *Seq) Slice(start, end int) *Seq {
	if start < 0 || end > s.n || start > end {
		panic(fmt.Sprintf("2bit seq: slice [%d, %d) out of range [0, %d]", start, end, s.n))
	}
	return &Seq{words: s.words, start: s.start + start, n: end - start}
}

// Words returns the packed data. For a slice not aligned to a word boundary,
// the data is re-packed into a new list.
func (s *Seq) Words() []uint64 {
	nw := (s.n + BasesPerWord - 1) / BasesPerWord
	if s.start == 0 {
		return s.words[:nw]
	}

	words := make([]uint64, nw)
	var i, w int
	for i+BasesPerWord <= s.n {
		words[w] = s.Kmer(i, BasesPerWord)
		i += BasesPerWord
		w++
	}
	if m := s.n - i; m > 0 {
		words[w] = s.Kmer(i, m) << (uint(32-m) << 1)
	}
	return words
}

// Bytes decodes the sequence to A, C, G, T.
func (s *Seq) Bytes() []byte {
	bs := make([]byte, s.n)
	for i := range bs {
		bs[i] = bit2base[s.Base(i)]
	}
	return bs
}

// String returns the decoded sequence.
func (s *Seq) String() string {
	return string(s.Bytes())
}
