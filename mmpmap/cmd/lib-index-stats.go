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
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/kmers"
	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/shenwei356/mmpmap/mmpmap/util"
	"github.com/twotwotwo/sorts/sortutil"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BucketSize is the size of a bucket.
type BucketSize struct {
	Minimizer uint64
	Intervals int
	Bases     int // sum of Len+K-1 of intervals
}

// BucketStats contains distributions of bucket sizes.
type BucketStats struct {
	index.Stats

	Minimizers int
	Intervals  int

	// quantiles of intervals and bases of buckets
	Quantiles      []float64
	QuanIntervals  []float64
	QuanBases      []float64
	StdevIntervals float64
	StdevBases     float64

	// the largest buckets, in descending order of bases
	Top []BucketSize

	intervals []float64 // for plotting
}

var defaultQuantiles = []float64{0.25, 0.5, 0.75, 0.9, 0.99}

// computeBucketStats summarizes bucket sizes of an index,
// topN largest buckets are kept.
func computeBucketStats(idx *index.Index, topN int) *BucketStats {
	s := &BucketStats{
		Stats:      idx.Stats(),
		Minimizers: idx.Len(),
		Intervals:  idx.NumIntervals(),
		Quantiles:  defaultQuantiles,
	}
	if idx.Len() == 0 {
		return s
	}

	k1 := idx.K() - 1
	sizes := make([]BucketSize, 0, idx.Len())
	nIntervals := make([]float64, 0, idx.Len())
	nBases := make([]float64, 0, idx.Len())
	idx.Walk(func(minimizer uint64, intervals []index.Interval) bool {
		b := 0
		for _, itv := range intervals {
			b += int(itv.Len) + k1
		}
		sizes = append(sizes, BucketSize{Minimizer: minimizer, Intervals: len(intervals), Bases: b})
		nIntervals = append(nIntervals, float64(len(intervals)))
		nBases = append(nBases, float64(b))
		return false
	})

	_, s.StdevIntervals = stat.MeanStdDev(nIntervals, nil)
	_, s.StdevBases = stat.MeanStdDev(nBases, nil)
	if len(sizes) == 1 {
		s.StdevIntervals, s.StdevBases = 0, 0
	}

	s.intervals = append(s.intervals, nIntervals...)

	sortutil.Float64s(nIntervals)
	sortutil.Float64s(nBases)
	s.QuanIntervals = make([]float64, len(s.Quantiles))
	s.QuanBases = make([]float64, len(s.Quantiles))
	for i, q := range s.Quantiles {
		s.QuanIntervals[i] = stat.Quantile(q, stat.Empirical, nIntervals, nil)
		s.QuanBases[i] = stat.Quantile(q, stat.Empirical, nBases, nil)
	}

	// minimizers are already in ascending order, a stable sorting keeps
	// the smaller ones first for buckets of the same size.
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].Bases > sizes[j].Bases })
	if topN > len(sizes) {
		topN = len(sizes)
	}
	s.Top = sizes[:topN]

	return s
}

func writeBucketStats(w io.Writer, s *BucketStats, info *IndexInfo) {
	p := int(info.P)

	fmt.Fprintf(w, "reference\tlength\tk\tp\tminimizers\tintervals\n")
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", info.RefName, info.RefLen, info.K, info.P, s.Minimizers, s.Intervals)
	fmt.Fprintln(w)

	quans := make([]string, len(s.Quantiles))
	for i, q := range s.Quantiles {
		quans[i] = fmt.Sprintf("q%g", q*100)
	}
	fmt.Fprintf(w, "bucket size\tmin\t%s\tmax\tmean\tstdev\n", strings.Join(quans, "\t"))
	fmt.Fprintf(w, "intervals\t%d\t%s\t%d\t%.2f\t%.2f\n", s.MinIntervals, joinFloats(s.QuanIntervals),
		s.MaxIntervals, s.AvgIntervals, s.StdevIntervals)
	fmt.Fprintf(w, "bases\t%d\t%s\t%d\t%.2f\t%.2f\n", s.MinBases, joinFloats(s.QuanBases),
		s.MaxBases, s.AvgBases, s.StdevBases)

	if len(s.Top) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "minimizer\tintervals\tbases\tlow_complexity\n")
	for _, b := range s.Top {
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\n", kmers.MustDecode(b.Minimizer, p),
			b.Intervals, b.Bases, util.IsLowComplexityDust(b.Minimizer, uint8(p)))
	}
}

func joinFloats(vals []float64) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(s, "\t")
}

// plotBucketHistogram plots the histogram of numbers of intervals in buckets.
// The format is decided by the file extension, e.g., .png, .svg, .pdf.
func plotBucketHistogram(s *BucketStats, file string, bins int) error {
	if len(s.intervals) == 0 {
		return fmt.Errorf("no buckets to plot")
	}

	p := plot.New()
	p.Title.Text = "Bucket sizes"
	p.X.Label.Text = "Number of intervals"
	p.Y.Label.Text = "Number of buckets"

	hist, err := plotter.NewHist(plotter.Values(s.intervals), bins)
	if err != nil {
		return errors.Wrap(err, "failed to create the histogram")
	}
	p.Add(hist)

	if filepath.Ext(file) == "" {
		return fmt.Errorf("file extension needed for the plot: %s", file)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, file)
}
