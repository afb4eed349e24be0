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

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/mmpmap/mmpmap/index"
)

// FileIndex is the name of the index file in an index directory.
const FileIndex = "index.bin"

// FileInfo is the name of the summary file in an index directory.
const FileInfo = "info.toml"

// IndexInfo contains summary of the index
type IndexInfo struct {
	MainVersion  uint8 `toml:"main-version" comment:"Index format"`
	MinorVersion uint8 `toml:"minor-version"`

	K uint8 `toml:"k" comment:"Window size and minimizer size"`
	P uint8 `toml:"p"`

	InputFile string `toml:"input-file" comment:"Reference"`
	RefName   string `toml:"ref-name"`
	RefLen    int    `toml:"ref-len"`

	Minimizers int     `toml:"minimizers" comment:"Buckets"`
	Intervals  int     `toml:"intervals"`
	AvgBucket  float64 `toml:"avg-intervals-per-bucket"`

	ChunkSize int `toml:"chunk-size" comment:"Building"`
}

func writeIndexInfo(file string, info *IndexInfo) error {
	bs, err := toml.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "failed to marshal index info")
	}

	fh, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "failed to write info file: %s", file)
	}

	_, err = fh.Write(bs)
	if err != nil {
		fh.Close()
		return errors.Wrapf(err, "failed to write info file: %s", file)
	}

	return fh.Close()
}

func readIndexInfo(file string) (*IndexInfo, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read info file: %s", file)
	}
	defer fh.Close()

	var info IndexInfo
	err = toml.NewDecoder(fh).Decode(&info)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse info file: %s", file)
	}

	if info.MainVersion != index.MainVersion {
		return nil, fmt.Errorf("index main versions do not match: %d (index) != %d (tool). please re-create the index", info.MainVersion, index.MainVersion)
	}
	if err = index.CheckKP(int(info.K), int(info.P)); err != nil {
		return nil, errors.Wrapf(err, "invalid info file: %s", file)
	}

	return &info, nil
}
