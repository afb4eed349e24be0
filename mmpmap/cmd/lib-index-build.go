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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// IndexBuildingOptions contains options for building an index.
type IndexBuildingOptions struct {
	// general
	NumCPUs int
	Verbose bool // show progress bar

	// minimizer index
	K         int // window/seed size
	P         int // minimizer size
	ChunkSize int // number of windows in a chunk for parallel scanning

	// reference
	SeqName string // sequence ID of the reference, empty for the first one
}

// CheckIndexBuildingOptions check the options
func CheckIndexBuildingOptions(opt *IndexBuildingOptions) error {
	if err := index.CheckKP(opt.K, opt.P); err != nil {
		return err
	}
	if opt.ChunkSize < 1 {
		return fmt.Errorf("invalid chunk size: %d, should be >= 1", opt.ChunkSize)
	}
	if opt.NumCPUs < 1 {
		return fmt.Errorf("invalid number of threads: %d, should be >= 1", opt.NumCPUs)
	}
	return nil
}

// readReference returns the first sequence, or the one with the given ID,
// from FASTA/Q files. Bases are converted to upper case.
func readReference(files []string, seqName string) (id []byte, s []byte, file string, err error) {
	var fastxReader *fastx.Reader
	var record *fastx.Record
	for _, file = range files {
		fastxReader, err = fastx.NewReader(nil, file, "")
		if err != nil {
			return nil, nil, file, errors.Wrap(err, file)
		}

		for {
			record, err = fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				fastxReader.Close()
				return nil, nil, file, errors.Wrap(err, file)
			}

			if seqName != "" && string(record.ID) != seqName {
				continue
			}

			id = append(id, record.ID...)
			s = bytes.ToUpper(record.Seq.Seq)
			fastxReader.Close()
			return id, s, file, nil
		}
		fastxReader.Close()
	}

	if seqName != "" {
		return nil, nil, "", fmt.Errorf("sequence not found: %s", seqName)
	}
	return nil, nil, "", fmt.Errorf("no sequences found")
}

// BuildIndex builds an index from the reference sequence in the files,
// and writes the index file and the info file into outdir.
func BuildIndex(outdir string, files []string, opt *IndexBuildingOptions) (*IndexInfo, error) {
	refName, ref, file, err := readReference(files, opt.SeqName)
	if err != nil {
		return nil, err
	}
	if opt.Verbose {
		log.Infof("  reference: %s, %d bp, from %s", refName, len(ref), file)
	}

	// process bar
	var pbs *mpb.Progress
	var bar *mpb.Bar
	var progress func(int)
	nWindows := len(ref) - opt.K + 1
	if opt.Verbose && nWindows > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(nWindows),
			mpb.PrependDecorators(
				decor.Name("scanned windows: ", decor.WC{W: len("scanned windows: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.AverageETA(decor.ET_STYLE_GO),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
		progress = func(n int) {
			bar.IncrBy(n)
		}
	}

	idx, err := index.NewWithOptions(ref, &index.BuildOptions{
		K:         opt.K,
		P:         opt.P,
		Threads:   opt.NumCPUs,
		ChunkSize: opt.ChunkSize,
		Progress:  progress,
	})
	if pbs != nil {
		if err != nil {
			bar.Abort(false)
		}
		pbs.Wait()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reference %s", refName)
	}

	if opt.Verbose {
		log.Infof("  %d minimizers and %d intervals", idx.Len(), idx.NumIntervals())
		log.Infof("  writing index file ...")
	}

	_, err = idx.WriteToFile(filepath.Join(outdir, FileIndex))
	if err != nil {
		return nil, errors.Wrap(err, "failed to write index file")
	}

	info := &IndexInfo{
		MainVersion:  index.MainVersion,
		MinorVersion: index.MinorVersion,

		K: uint8(opt.K),
		P: uint8(opt.P),

		InputFile: file,
		RefName:   string(refName),
		RefLen:    len(ref),

		Minimizers: idx.Len(),
		Intervals:  idx.NumIntervals(),

		ChunkSize: opt.ChunkSize,
	}
	if idx.Len() > 0 {
		info.AvgBucket = idx.Stats().AvgIntervals
	}

	err = writeIndexInfo(filepath.Join(outdir, FileInfo), info)
	if err != nil {
		return nil, err
	}

	return info, nil
}
