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
	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
	"github.com/shenwei356/mmpmap/mmpmap/util"
)

// Minimizer returns the numerically smallest p-mer of a window,
// the window needs to have at least p bases.
// P-mers are computed by rolling, and the first one wins for ties.
//
// It is used for queries, while the index uses scanMinimizers which
// returns exactly the same value for each reference window.
func Minimizer(window *twobit.Seq, p int) uint64 {
	_p := uint8(p)
	min := window.Kmer(0, p)
	code := min
	for i := p; i < window.Len(); i++ {
		code = util.KmerExtendRight(code, window.Base(i), _p)
		if code < min {
			min = code
		}
	}
	return min
}

type pmer struct {
	pos  int
	code uint64
}

// pmerQueue is a monotone ring queue for computing sliding-window minimums,
// codes are ascending from head to tail.
type pmerQueue struct {
	buf  []pmer
	head int
	n    int
}

func newPmerQueue(size int) *pmerQueue {
	return &pmerQueue{buf: make([]pmer, size)}
}

func (q *pmerQueue) push(pos int, code uint64) {
	c := len(q.buf)
	for q.n > 0 && q.buf[(q.head+q.n-1)%c].code > code {
		q.n--
	}
	q.buf[(q.head+q.n)%c] = pmer{pos: pos, code: code}
	q.n++
}

// expire removes p-mers located before pos.
func (q *pmerQueue) expire(pos int) {
	for q.n > 0 && q.buf[q.head].pos < pos {
		q.head = (q.head + 1) % len(q.buf)
		q.n--
	}
}

func (q *pmerQueue) min() uint64 {
	return q.buf[q.head].code
}

// scanMinimizers calls fn with the minimizer of every k-base window
// starting in [begin, end), in ascending order of window starts.
// Each window costs O(1) amortized time.
func scanMinimizers(seq *twobit.Seq, k, p int, begin, end int, fn func(start int, minimizer uint64)) {
	if begin >= end {
		return
	}
	_p := uint8(p)
	q := newPmerQueue(k - p + 2)

	// p-mers of the first window
	code := seq.Kmer(begin, p)
	q.push(begin, code)
	last := begin + k - p // position of the last p-mer in a window
	for pos := begin + 1; pos <= last; pos++ {
		code = util.KmerExtendRight(code, seq.Base(pos+p-1), _p)
		q.push(pos, code)
	}
	fn(begin, q.min())

	for s := begin + 1; s < end; s++ {
		code = util.KmerExtendRight(code, seq.Base(s+k-1), _p)
		q.push(s+k-p, code)
		q.expire(s)
		fn(s, q.min())
	}
}
