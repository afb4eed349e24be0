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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of bucket sizes of an index",
	Long: `Show statistics of bucket sizes of an index

The size of a bucket (i.e., a minimizer) is measured by the number of intervals,
and the number of covered bases (sum of interval length + k - 1).
Large buckets slow down searching, and they are often low-complexity minimizers.

Output:
  1. Summary of the index.
  2. Min, quantiles, max, mean and standard deviation of bucket sizes.
  3. The top N largest buckets (-n/--top-n), with decoded minimizers and
     a flag of low complexity computed with the DUST score.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		dbDir := getFlagString(cmd, "index")
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}
		topN := getFlagNonNegativeInt(cmd, "top-n")
		outFile := getFlagString(cmd, "out-file")
		plotFile := getFlagString(cmd, "plot")
		bins := getFlagPositiveInt(cmd, "bins")

		// ---------------------------------------------------------------

		if outputLog {
			log.Infof("loading index: %s", dbDir)
		}

		info, err := readIndexInfo(filepath.Join(dbDir, FileInfo))
		checkError(err)

		idx, err := index.NewFromFile(filepath.Join(dbDir, FileIndex))
		if err != nil {
			checkError(fmt.Errorf("failed to read index file: %s", err))
		}

		if outputLog {
			log.Infof("index loaded in %s", time.Since(timeStart))
		}

		s := computeBucketStats(idx, topN)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		writeBucketStats(outfh, s, info)

		if plotFile != "" {
			if idx.Len() == 0 {
				log.Warningf("the index is empty, no histogram is plotted")
				return
			}
			checkError(plotBucketHistogram(s, plotFile, bins))
			if outputLog {
				log.Infof("histogram of bucket sizes saved to: %s", plotFile)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "mmpmap index".`))

	statsCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	statsCmd.Flags().IntP("top-n", "n", 10,
		formatFlagUsage(`Show the top N largest buckets.`))

	statsCmd.Flags().StringP("plot", "p", "",
		formatFlagUsage(`Plot the histogram of numbers of intervals in buckets, supported formats: .png, .svg, .pdf, .jpg.`))

	statsCmd.Flags().IntP("bins", "b", 50,
		formatFlagUsage(`Number of bins of the histogram.`))

	statsCmd.SetUsageTemplate(usageTemplate("-d <index path> [-n <top N>] [-p hist.png]"))
}
