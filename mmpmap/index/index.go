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
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
	"github.com/twotwotwo/sorts/sortutil"
)

// ErrInvalidK means K < 1 or K > 32.
var ErrInvalidK = errors.New("index: k-mer size overflow, valid range is [1, 32]")

// ErrInvalidP means P < 1 or P > K.
var ErrInvalidP = errors.New("index: minimizer size overflow, valid range is [1, k]")

// ErrReferenceTooLong means the reference has more than MaxReferenceLen bases.
var ErrReferenceTooLong = errors.New("index: reference too long")

// ErrQueryTooShort means the query is shorter than K.
var ErrQueryTooShort = errors.New("index: query shorter than k")

// MaxReferenceLen is the maximum number of bases of a reference,
// as window starts are stored in uint32.
const MaxReferenceLen uint64 = 1 << 32

// MaxIntervalLen is the maximum number of windows in an Interval.
// Longer runs are split into consecutive intervals in the same bucket.
const MaxIntervalLen = 1<<16 - 1

// MapInitSize is the initial capacity of the minimizer map.
var MapInitSize = 1 << 20

// Threads is the default concurrency number for building an index.
var Threads = runtime.NumCPU()

// Interval is a run of Len consecutive k-base windows starting at Start,
// sharing the same minimizer. It covers bases [Start, Start+Len+K-1).
type Interval struct {
	Start uint32
	Len   uint16
}

// Index maps minimizers to intervals of a single reference sequence.
// An Index is read-only after being built, so it's safe for concurrent searching.
type Index struct {
	k uint8 // window/seed size
	p uint8 // minimizer size

	ref *twobit.Seq
	m   map[uint64][]Interval

	nIntervals int
}

// BuildOptions contains options for building an index.
type BuildOptions struct {
	K int // window/seed size, [1, 32]
	P int // minimizer size, [1, K]

	Threads   int // number of goroutines for scanning chunks, 0 for the value of Threads, 1 for a serial building
	ChunkSize int // number of windows in a chunk, 0 for the default value

	// Progress is called with the number of windows after a chunk is scanned.
	// It might be called concurrently.
	Progress func(windows int)
}

// DefaultChunkSize is the default number of windows in a chunk.
var DefaultChunkSize = 1 << 20

// New builds an index from a reference sequence of A, C, G, T,
// with k-base windows and p-base minimizers.
func New(ref []byte, k, p int) (*Index, error) {
	return NewWithOptions(ref, &BuildOptions{K: k, P: p, Threads: 1})
}

// CheckKP checks the values of k and p.
func CheckKP(k, p int) error {
	if k < 1 || k > 32 {
		return fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if p < 1 || p > k {
		return fmt.Errorf("%w: %d", ErrInvalidP, p)
	}
	return nil
}

// run is a run of windows sharing the same minimizer.
type run struct {
	start     int
	n         int
	minimizer uint64
}

// NewWithOptions builds an index with given options.
// The reference is split into chunks of windows which could be scanned in parallel,
// and the result is identical to a serial building.
// A reference shorter than K produces an empty index.
func NewWithOptions(ref []byte, opt *BuildOptions) (*Index, error) {
	k, p := opt.K, opt.P
	err := CheckKP(k, p)
	if err != nil {
		return nil, err
	}
	if uint64(len(ref)) > MaxReferenceLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrReferenceTooLong, len(ref), MaxReferenceLen)
	}

	seq, err := twobit.New(ref)
	if err != nil {
		return nil, err
	}

	idx := &Index{k: uint8(k), p: uint8(p), ref: seq}

	nWindows := seq.Len() - k + 1
	if nWindows <= 0 {
		idx.m = make(map[uint64][]Interval)
		return idx, nil
	}

	chunkSize := opt.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	nChunks := (nWindows + chunkSize - 1) / chunkSize
	chunks := make([][]run, nChunks)

	scan := func(i int) {
		begin := i * chunkSize
		end := begin + chunkSize
		if end > nWindows {
			end = nWindows
		}

		runs := make([]run, 0, 64)
		scanMinimizers(seq, k, p, begin, end, func(s int, m uint64) {
			if n := len(runs); n > 0 && runs[n-1].minimizer == m {
				runs[n-1].n++
				return
			}
			runs = append(runs, run{start: s, n: 1, minimizer: m})
		})
		chunks[i] = runs

		if opt.Progress != nil {
			opt.Progress(end - begin)
		}
	}

	threads := opt.Threads
	if threads <= 0 {
		threads = Threads
	}
	if threads == 1 || nChunks == 1 {
		for i := range chunks {
			scan(i)
		}
	} else {
		var wg sync.WaitGroup
		tokens := make(chan int, threads)
		for i := range chunks {
			wg.Add(1)
			tokens <- 1
			go func(i int) {
				defer func() {
					wg.Done()
					<-tokens
				}()
				scan(i)
			}(i)
		}
		wg.Wait()
	}

	mapInitSize := MapInitSize
	if nWindows < mapInitSize {
		mapInitSize = nWindows
	}
	idx.m = make(map[uint64][]Interval, mapInitSize)

	// runs crossing chunk boundaries are merged before being added.
	var cur run
	var hasCur bool
	for _, runs := range chunks {
		for _, r := range runs {
			if hasCur && r.minimizer == cur.minimizer && cur.start+cur.n == r.start {
				cur.n += r.n
				continue
			}
			if hasCur {
				idx.add(cur)
			}
			cur = r
			hasCur = true
		}
	}
	if hasCur {
		idx.add(cur)
	}

	return idx, nil
}

// add appends a run to its bucket, splitting it if it's too long.
func (idx *Index) add(r run) {
	bucket, ok := idx.m[r.minimizer]
	if !ok {
		bucket = make([]Interval, 0, 4)
	}
	start, n := r.start, r.n
	for n > 0 {
		l := n
		if l > MaxIntervalLen {
			l = MaxIntervalLen
		}
		bucket = append(bucket, Interval{Start: uint32(start), Len: uint16(l)})
		idx.nIntervals++
		start += l
		n -= l
	}
	idx.m[r.minimizer] = bucket
}

// K returns the window/seed size.
func (idx *Index) K() int {
	return int(idx.k)
}

// P returns the minimizer size.
func (idx *Index) P() int {
	return int(idx.p)
}

// Reference returns the packed reference sequence. Do not modify it.
func (idx *Index) Reference() *twobit.Seq {
	return idx.ref
}

// Get returns the intervals of a minimizer, in ascending order of starts.
// It returns nil if the minimizer does not exist.
func (idx *Index) Get(minimizer uint64) []Interval {
	return idx.m[minimizer]
}

// Len returns the number of distinct minimizers.
func (idx *Index) Len() int {
	return len(idx.m)
}

// NumIntervals returns the number of intervals in all buckets.
func (idx *Index) NumIntervals() int {
	return idx.nIntervals
}

// Minimizers returns all the minimizers in ascending order.
func (idx *Index) Minimizers() []uint64 {
	keys := make([]uint64, 0, len(idx.m))
	for key := range idx.m {
		keys = append(keys, key)
	}
	sortutil.Uint64s(keys)
	return keys
}

// Walk visits buckets in ascending order of minimizers,
// it stops when fn returns true.
func (idx *Index) Walk(fn func(minimizer uint64, intervals []Interval) bool) {
	for _, key := range idx.Minimizers() {
		if fn(key, idx.m[key]) {
			return
		}
	}
}

// Stats contains some statistics of bucket sizes.
// The size of a bucket is measured by the number of intervals,
// and the number of covered bases, i.e., the sum of Len+K-1 of its intervals.
type Stats struct {
	MinIntervals int
	MaxIntervals int
	AvgIntervals float64

	MinBases int
	MaxBases int
	AvgBases float64
}

// Stats returns statistics of bucket sizes. All values are zero for an empty index.
func (idx *Index) Stats() Stats {
	var s Stats
	if len(idx.m) == 0 {
		return s
	}

	k1 := int(idx.k) - 1
	var sumIntervals, sumBases int
	first := true
	for _, bucket := range idx.m {
		bases := 0
		for _, itv := range bucket {
			bases += int(itv.Len) + k1
		}
		n := len(bucket)

		if first {
			s.MinIntervals, s.MaxIntervals = n, n
			s.MinBases, s.MaxBases = bases, bases
			first = false
		} else {
			if n < s.MinIntervals {
				s.MinIntervals = n
			}
			if n > s.MaxIntervals {
				s.MaxIntervals = n
			}
			if bases < s.MinBases {
				s.MinBases = bases
			}
			if bases > s.MaxBases {
				s.MaxBases = bases
			}
		}
		sumIntervals += n
		sumBases += bases
	}

	s.AvgIntervals = float64(sumIntervals) / float64(len(idx.m))
	s.AvgBases = float64(sumBases) / float64(len(idx.m))
	return s
}
