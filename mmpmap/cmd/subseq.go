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
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/mmpmap/mmpmap/index"
	"github.com/spf13/cobra"
)

var subseqCmd = &cobra.Command{
	Use:   "subseq",
	Short: "Extract subsequence of the reference via positions",
	Long: `Extract subsequence of the reference via positions

Attention:
  1. Positions are 1-based, and both ends are included, e.g., 1:100 for the first 100 bases.
  2. The end position is truncated to the reference length.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		dbDir := getFlagString(cmd, "index")
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}

		region := getFlagString(cmd, "region")
		if region == "" {
			checkError(fmt.Errorf("flag -r/--region needed"))
		}
		revcom := getFlagBool(cmd, "revcom")
		lineWidth := getFlagNonNegativeInt(cmd, "line-width")
		outFile := getFlagString(cmd, "out-file")

		// ---------------------------------------------------------------

		info, err := readIndexInfo(filepath.Join(dbDir, FileInfo))
		checkError(err)

		start, end, err := parseRegion(region, info.RefLen)
		checkError(err)

		idx, err := index.NewFromFile(filepath.Join(dbDir, FileIndex))
		if err != nil {
			checkError(fmt.Errorf("failed to read index file: %s", err))
		}

		// output file handler
		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		s, err := seq.NewSeq(seq.DNAredundant, idx.Reference().Slice(start-1, end).Bytes())
		checkError(err)
		if revcom {
			s.RevComInplace()
		}

		fmt.Fprintf(outfh, ">%s:%d-%d\n", info.RefName, start, end)
		outfh.Write(s.FormatSeq(lineWidth))
		outfh.WriteByte('\n')
	},
}

var reRegion = regexp.MustCompile(`^(\d+):(\d+)$`)

// parseRegion parses a 1-based region like 1:100.
// The end is truncated to the reference length.
func parseRegion(region string, refLen int) (int, int, error) {
	matches := reRegion.FindStringSubmatch(region)
	if matches == nil {
		return 0, 0, fmt.Errorf(`invalid region: %s, type "mmpmap subseq -h" for more details`, region)
	}

	start, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, 0, err
	}
	if start <= 0 || end <= 0 {
		return 0, 0, fmt.Errorf("both begin and end position should not be <= 0")
	}
	if start > end {
		return 0, 0, fmt.Errorf("begin position should be <= end position")
	}
	if start > refLen {
		return 0, 0, fmt.Errorf("begin position (%d) should be <= reference length (%d)", start, refLen)
	}
	if end > refLen {
		end = refLen
	}
	return start, end, nil
}

func init() {
	RootCmd.AddCommand(subseqCmd)

	subseqCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "mmpmap index".`))

	subseqCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	subseqCmd.Flags().StringP("region", "r", "",
		formatFlagUsage(`Region of the subsequence (1-based), e.g., 1:100.`))

	subseqCmd.Flags().BoolP("revcom", "R", false,
		formatFlagUsage("Extract subsequence on the negative strand."))

	subseqCmd.Flags().IntP("line-width", "w", 60,
		formatFlagUsage("Line width of sequence (0 for no wrap)."))

	subseqCmd.SetUsageTemplate(usageTemplate(""))
}
