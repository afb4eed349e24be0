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
	"fmt"

	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
	"github.com/shenwei356/mmpmap/mmpmap/util"
)

// Match is a maximum mappable prefix of a query,
// i.e., query[0:Len] == reference[Pos:Pos+Len].
type Match struct {
	Pos uint32 // 0-based start position in the reference
	Len uint32 // match length, >= K
}

// MaxMapPrefix finds the longest prefix of the query that exactly matches
// the reference, and the query needs to have at least K bases.
//
// The query minimizer of the first K bases is used to locate candidate
// intervals, in which the first k-mer of the query is verified and then extended.
// So a prefix is only found when its first K bases share a minimizer with
// a reference window. For equally long matches, the first one
// (in the order of intervals, and then positions) is returned.
//
// ok is false when no seed is found, which is a normal result, not an error.
func (idx *Index) MaxMapPrefix(query *twobit.Seq) (m Match, ok bool, err error) {
	k := int(idx.k)
	if query.Len() < k {
		return m, false, fmt.Errorf("%w: %d < %d", ErrQueryTooShort, query.Len(), k)
	}

	kmer := query.Kmer(0, k)
	intervals := idx.m[Minimizer(query.Slice(0, k), int(idx.p))]
	if len(intervals) == 0 {
		return m, false, nil
	}

	ref := idx.ref
	rest := query.Slice(k, query.Len())
	qlen := uint32(query.Len())

	var code uint64
	var pos, end int
	var l uint32
	for _, itv := range intervals {
		pos = int(itv.Start)
		end = pos + int(itv.Len)
		code = ref.Kmer(pos, k)
		for {
			if code == kmer {
				l = uint32(k + LCP(ref.Slice(pos+k, ref.Len()), rest))
				if l > m.Len {
					m.Pos, m.Len = uint32(pos), l
					ok = true

					if l == qlen { // can not be longer
						return m, true, nil
					}
				}
			}

			pos++
			if pos >= end {
				break
			}
			code = util.KmerExtendRight(code, ref.Base(pos+k-1), idx.k)
		}
	}

	return m, ok, nil
}

// MaxMapPrefixBytes packs the query and calls MaxMapPrefix.
func (idx *Index) MaxMapPrefixBytes(query []byte) (Match, bool, error) {
	seq, err := twobit.New(query)
	if err != nil {
		return Match{}, false, err
	}
	return idx.MaxMapPrefix(seq)
}

// MaxMapPrefix is the same as idx.MaxMapPrefix(query).
func MaxMapPrefix(query *twobit.Seq, idx *Index) (Match, bool, error) {
	return idx.MaxMapPrefix(query)
}
