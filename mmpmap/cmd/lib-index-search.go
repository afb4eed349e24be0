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

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
)

// IndexSearchingOptions contains options for searching.
type IndexSearchingOptions struct {
	// general
	NumCPUs int
	Verbose bool

	MaxQueryConcurrency int // maximum number of concurrent queries
}

// CheckIndexSearchingOptions checks the options
func CheckIndexSearchingOptions(opt *IndexSearchingOptions) error {
	if opt.NumCPUs < 1 {
		return fmt.Errorf("invalid number of threads: %d, should be >= 1", opt.NumCPUs)
	}
	if opt.MaxQueryConcurrency < 1 {
		return fmt.Errorf("invalid max query concurrency: %d, should be >= 1", opt.MaxQueryConcurrency)
	}
	return nil
}

// IndexSearcher searches queries against an index.
type IndexSearcher struct {
	path string
	opt  *IndexSearchingOptions
	info *IndexInfo

	idx *index.Index
}

// NewIndexSearcher loads an index from the index directory.
func NewIndexSearcher(outDir string, opt *IndexSearchingOptions) (*IndexSearcher, error) {
	if err := CheckIndexSearchingOptions(opt); err != nil {
		return nil, err
	}

	info, err := readIndexInfo(filepath.Join(outDir, FileInfo))
	if err != nil {
		return nil, err
	}

	idx, err := index.NewFromFile(filepath.Join(outDir, FileIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %s", err)
	}
	if idx.K() != int(info.K) || idx.P() != int(info.P) || idx.Reference().Len() != info.RefLen {
		return nil, fmt.Errorf("index file and info file do not match: %s", outDir)
	}

	return &IndexSearcher{
		path: outDir,
		opt:  opt,
		info: info,
		idx:  idx,
	}, nil
}

// Index returns the index.
func (s *IndexSearcher) Index() *index.Index {
	return s.idx
}

// Info returns the index summary.
func (s *IndexSearcher) Info() *IndexInfo {
	return s.info
}

// QueryStatus is the searching result type of a query.
type QueryStatus uint8

const (
	QueryMatched   QueryStatus = iota // a maximum mappable prefix is found
	QueryUnmatched                    // no seeds are found
	QueryTooShort                     // shorter than k
	QueryInvalid                      // containing bases other than A, C, G, T
)

// Query is a query sequence and its result.
type Query struct {
	id    uint64 // order in the input
	seqID []byte
	seq   []byte

	status QueryStatus
	match  index.Match
}

// Reset clears the data.
func (q *Query) Reset() {
	q.id = 0
	q.seqID = q.seqID[:0]
	q.seq = q.seq[:0]
	q.status = QueryUnmatched
	q.match = index.Match{}
}

var poolQuery = &sync.Pool{New: func() interface{} {
	return &Query{
		seqID: make([]byte, 0, 128),
		seq:   make([]byte, 0, 1024),
	}
}}

// Search finds the maximum mappable prefix of a query.
// Short queries and queries with invalid bases are marked, not treated as errors.
func (s *IndexSearcher) Search(q *Query) error {
	m, ok, err := s.idx.MaxMapPrefixBytes(q.seq)
	if err != nil {
		if errors.Is(err, index.ErrQueryTooShort) {
			q.status = QueryTooShort
			return nil
		}
		if errors.Is(err, twobit.ErrInvalidBase) {
			q.status = QueryInvalid
			return nil
		}
		return err
	}

	if ok {
		q.status = QueryMatched
		q.match = m
	} else {
		q.status = QueryUnmatched
	}
	return nil
}

// outputInOrder calls fn for queries from ch in ascending order of ids,
// which start from 0. Queries arriving early are buffered until the
// preceding ones are processed. It returns when ch is closed.
func outputInOrder(ch <-chan *Query, fn func(*Query)) {
	buf := make(map[uint64]*Query, 128)
	var next uint64
	var ok bool
	for q := range ch {
		if q.id != next {
			buf[q.id] = q
			continue
		}

		fn(q)
		next++

		for {
			if q, ok = buf[next]; !ok {
				break
			}
			delete(buf, next)
			fn(q)
			next++
		}
	}
}

// SearchingSummary counts queries of different status.
type SearchingSummary struct {
	Total     uint64
	Matched   uint64
	Unmatched uint64
	TooShort  uint64
	Invalid   uint64
}

// Add counts a query.
func (s *SearchingSummary) Add(q *Query) {
	s.Total++
	switch q.status {
	case QueryMatched:
		s.Matched++
	case QueryUnmatched:
		s.Unmatched++
	case QueryTooShort:
		s.TooShort++
	case QueryInvalid:
		s.Invalid++
	}
}
