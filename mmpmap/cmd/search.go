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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search maximum mappable prefixes of sequences against an index",
	Long: `Search maximum mappable prefixes of sequences against an index

For each query, the longest prefix exactly matching the reference is reported.
The first k bases of the query are used as the seed: only reference windows
sharing the minimizer of the seed are checked, and then the match is extended.

Attention:
  1. Input should be (gzipped) FASTA or FASTQ records from files or stdin.
  2. Bases are converted to upper case. Queries shorter than k or
     containing bases other than A, C, G, T are skipped and counted.
  3. The order of queries in output is the same as the input.
  4. For equally long matches, the one with the smallest position is reported.

Output format:
  Tab-delimited format with 5 columns, with 1-based positions.

    1.  query,    Query sequence ID.
    2.  qlen,     Query sequence length.
    3.  sstart,   Start of the match in the reference.
    4.  send,     End of the match in the reference.
    5.  mlen,     Match length, i.e., the length of the maximum mappable prefix.

  For unmatched queries (-u/--show-unmatched), sstart and send are "*", and mlen is 0.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		outFile := getFlagString(cmd, "out-file")

		var fhLog *os.File
		if opt.Log2File {
			ro, err := filepath.Abs(outFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check output file: %s", err))
			}
			rl, err := filepath.Abs(opt.LogFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check log file: %s", err))
			}
			if ro == rl {
				checkError(fmt.Errorf("output file and log file should not be the same: %s", outFile))
			}
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		verbose := opt.Verbose
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

		// ---------------------------------------------------------------

		dbDir := getFlagString(cmd, "index")
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}
		showUnmatched := getFlagBool(cmd, "show-unmatched")

		maxQueryConcurrency := getFlagNonNegativeInt(cmd, "max-query-conc")
		if maxQueryConcurrency == 0 {
			maxQueryConcurrency = opt.NumCPUs
		}

		// ---------------------------------------------------------------
		// input files

		if outputLog {
			log.Infof("MMPMap v%s", VERSION)
			log.Info("  https://github.com/shenwei356/mmpmap")
			log.Info()

			log.Info("checking input files ...")
		}

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		if outputLog {
			if len(files) == 1 {
				if isStdin(files[0]) {
					log.Info("  no files given, reading from stdin")
				} else {
					log.Infof("  %d input file given: %s", len(files), files[0])
				}
			} else {
				log.Infof("  %d input file(s) given", len(files))
			}
		}

		outFileClean := filepath.Clean(outFile)
		for _, file := range files {
			if !isStdin(file) && filepath.Clean(file) == outFileClean {
				checkError(fmt.Errorf("out file should not be one of the input file"))
			}
		}

		// ---------------------------------------------------------------
		// loading index

		if outputLog {
			log.Info()
			log.Infof("loading index: %s", dbDir)
		}

		sopt := &IndexSearchingOptions{
			NumCPUs: opt.NumCPUs,
			Verbose: opt.Verbose,

			MaxQueryConcurrency: maxQueryConcurrency,
		}

		idx, err := NewIndexSearcher(dbDir, sopt)
		checkError(err)
		info := idx.Info()

		if outputLog {
			log.Infof("index loaded in %s: %s (%d bp), k: %d, p: %d",
				time.Since(timeStart), info.RefName, info.RefLen, info.K, info.P)
			log.Info()
			log.Infof("searching with %d threads...", maxQueryConcurrency)
		}

		// ---------------------------------------------------------------
		// searching

		timeStart1 := time.Now()

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		var summary SearchingSummary
		var speed float64 // queries/minute

		fmt.Fprintln(outfh, "query\tqlen\tsstart\tsend\tmlen")

		printResult := func(q *Query) {
			summary.Add(q)

			if verbose {
				total := summary.Total
				if (total < 128 && total&7 == 0) || total&127 == 0 {
					speed = float64(total) / time.Since(timeStart1).Minutes()
					fmt.Fprintf(os.Stderr, "processed queries: %d, speed: %.3f queries per minute\r", total, speed)
				}
			}

			writeQueryResult(outfh, q, showUnmatched)
			poolQuery.Put(q)
		}

		// outputter
		ch := make(chan *Query, maxQueryConcurrency)
		done := make(chan int)
		go func() {
			outputInOrder(ch, printResult)
			done <- 1
		}()

		var wg sync.WaitGroup
		tokens := make(chan int, maxQueryConcurrency)

		var record *fastx.Record
		var id uint64
		K := int(info.K)

		for _, file := range files {
			fastxReader, err := fastx.NewReader(nil, file, "")
			checkError(err)

			for {
				record, err = fastxReader.Read()
				if err != nil {
					if err == io.EOF {
						break
					}
					checkError(err)
					break
				}

				query := poolQuery.Get().(*Query)
				query.Reset()
				query.id = id
				id++
				query.seqID = append(query.seqID, record.ID...)

				if len(record.Seq.Seq) < K {
					query.seq = append(query.seq, record.Seq.Seq...)
					query.status = QueryTooShort
					ch <- query
					continue
				}

				query.seq = append(query.seq, record.Seq.Seq...)
				upperInPlace(query.seq)

				tokens <- 1
				wg.Add(1)
				go func(query *Query) {
					defer func() {
						wg.Done()
						<-tokens
					}()

					checkError(idx.Search(query))
					ch <- query
				}(query)
			}
			fastxReader.Close()
		}
		wg.Wait()
		close(ch)
		<-done

		if outputLog {
			fmt.Fprintf(os.Stderr, "\n")

			speed = float64(summary.Total) / time.Since(timeStart1).Minutes()
			log.Infof("")
			log.Infof("processed queries: %d, speed: %.3f queries per minute", summary.Total, speed)
			log.Infof("  matched: %d (%.4f%%)", summary.Matched, percentage(summary.Matched, summary.Total))
			log.Infof("  unmatched: %d", summary.Unmatched)
			log.Infof("  shorter than k: %d", summary.TooShort)
			log.Infof("  with invalid bases: %d", summary.Invalid)
			log.Infof("done searching")
			if outFile != "-" {
				log.Infof("search results saved to: %s", outFile)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "mmpmap index".`))

	searchCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	searchCmd.Flags().BoolP("show-unmatched", "u", false,
		formatFlagUsage(`Output queries without matches, including these shorter than k or with invalid bases.`))

	searchCmd.Flags().IntP("max-query-conc", "J", 0,
		formatFlagUsage(`Maximum number of concurrent queries. Bigger values do not improve the batch searching speed and consume much memory. 0 for the value of -j/--threads.`))

	searchCmd.SetUsageTemplate(usageTemplate("-d <index path> [query.fasta.gz ...] [-o query.tsv.gz]"))
}

// writeQueryResult writes a line for a query, with 1-based positions.
func writeQueryResult(w io.Writer, q *Query, showUnmatched bool) {
	if q.status == QueryMatched {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			q.seqID, len(q.seq),
			q.match.Pos+1, q.match.Pos+q.match.Len, q.match.Len)
		return
	}
	if showUnmatched {
		fmt.Fprintf(w, "%s\t%d\t*\t*\t0\n", q.seqID, len(q.seq))
	}
}

// upperInPlace converts a, c, g, t to upper case.
func upperInPlace(s []byte) {
	for i, b := range s {
		if 'a' <= b && b <= 'z' {
			s[i] = b - 32
		}
	}
}

func percentage(a, b uint64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b) * 100
}
