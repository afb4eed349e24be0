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
	"time"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate an index from a reference sequence",
	Long: `Generate an index from a reference sequence

Input:
  1. Input plain or compressed FASTA/Q files can be given via positional
     arguments or the flag -X/--infile-list with the list of input files.
  2. Only one sequence is indexed, the first one by default, or the one
     with the sequence ID given via the flag -n/--seq-name.

Attentions:
  1. Bases are converted to upper case, and only A, C, G, T are allowed.
     Please replace or remove degenerate bases like N before indexing.
  2. The reference should be shorter than 4294967296 bp.

Index:
  Every k-base window of the reference is assigned to its minimizer, i.e.,
  the smallest p-mer in the window. Consecutive windows sharing the same
  minimizer are saved as an interval, and intervals are grouped by minimizers.

Output:
  <out-dir>/index.bin   index file, with the 2bit-packed reference
  <out-dir>/info.toml   summary

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

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

		// ---------------------------------------------------------------
		// basic flags

		k := getFlagPositiveInt(cmd, "kmer")
		p := getFlagPositiveInt(cmd, "minimizer")
		chunkSize := getFlagPositiveInt(cmd, "chunk-size")
		seqName := getFlagString(cmd, "seq-name")

		outDir := getFlagString(cmd, "out-dir")
		force := getFlagBool(cmd, "force")
		if outDir == "" {
			checkError(fmt.Errorf("flag -O/--out-dir is needed"))
		}
		outDir = filepath.Clean(outDir)

		bopt := &IndexBuildingOptions{
			NumCPUs: opt.NumCPUs,
			Verbose: opt.Verbose,

			K:         k,
			P:         p,
			ChunkSize: chunkSize,

			SeqName: seqName,
		}
		checkError(CheckIndexBuildingOptions(bopt))

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
			if len(files) == 1 && isStdin(files[0]) {
				log.Info("  no files given, reading from stdin")
			} else {
				log.Infof("  %d input file(s) given", len(files))
			}
		}
		for _, file := range files {
			if !isStdin(file) && filepath.Clean(file) == outDir {
				checkError(fmt.Errorf("intput and output paths should not be the same: %s", outDir))
			}
		}

		makeOutDir(outDir, force, "output directory", outputLog)

		// ---------------------------------------------------------------
		// log

		if outputLog {
			log.Info()
			log.Infof("-------------------- [main parameters] --------------------")
			log.Infof("  output directory: %s", outDir)
			if seqName == "" {
				log.Infof("  reference: the first sequence")
			} else {
				log.Infof("  reference: %s", seqName)
			}
			log.Infof("  k: %d, p: %d", k, p)
			log.Infof("  chunk size: %d, threads: %d", chunkSize, opt.NumCPUs)
			log.Infof("-------------------- [main parameters] --------------------")
			log.Info()
			log.Infof("building index ...")
		}

		// ---------------------------------------------------------------
		// index

		info, err := BuildIndex(outDir, files, bopt)
		if err != nil {
			checkError(fmt.Errorf("failed to create a new index: %s", err))
		}

		if outputLog {
			log.Infof("finished building index in %s for %s (%d bp)",
				time.Since(timeStart), info.RefName, info.RefLen)
			if info.Minimizers == 0 {
				log.Warningf("the reference is shorter than k (%d), the index is empty", k)
			}
			log.Info()
			log.Infof("index saved: %s", outDir)
		}
	},
}

func init() {
	RootCmd.AddCommand(indexCmd)

	// -----------------------------  input  -----------------------------

	indexCmd.Flags().StringP("seq-name", "n", "",
		formatFlagUsage(`ID of the reference sequence to index. The first sequence is used by default.`))

	// -----------------------------  output  -----------------------------

	indexCmd.Flags().StringP("out-dir", "O", "",
		formatFlagUsage(`Output directory.`))

	indexCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite existed output directory.`))

	// -----------------------------  minimizer   -----------------------------

	indexCmd.Flags().IntP("kmer", "k", 32,
		formatFlagUsage(`Window/seed size. K needs to be <= 32.`))

	indexCmd.Flags().IntP("minimizer", "p", 12,
		formatFlagUsage(`Minimizer size. P needs to be <= K.`))

	// -----------------------------  others   -----------------------------

	indexCmd.Flags().IntP("chunk-size", "", index.DefaultChunkSize,
		formatFlagUsage(`Number of windows in a chunk, chunks are scanned in parallel.`))

	// ----------------------------------------------------------

	indexCmd.SetUsageTemplate(usageTemplate("[-k <k>] [-p <p>] [-n <seq name>] {<seq file> | -X <file list>} -O <out dir>"))
}
