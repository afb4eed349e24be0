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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/mmpmap/mmpmap/index/twobit"
	"github.com/shenwei356/mmpmap/mmpmap/util"
	"github.com/shenwei356/xopen"
	"github.com/zeebo/wyhash"
)

var be = binary.BigEndian

// Magic number for checking file format
var Magic = [8]byte{'m', 'm', 'p', 'i', 'n', 'd', 'e', 'x'}

// MainVersion is use for checking compatibility
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("mmp index: invalid binary format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("mmp index: broken file")

// ErrVersionMismatch means version mismatch between files and program.
var ErrVersionMismatch = errors.New("mmp index: version mismatch")

// ErrChecksumMismatch means the data is corrupted.
var ErrChecksumMismatch = errors.New("mmp index: checksum mismatch")

// ChecksumBlockSize is the size of data blocks for computing the checksum.
const ChecksumBlockSize = 1 << 16

// blockHasher computes wyhash of a byte stream block by block,
// so the result does not depend on how the data is written or read.
type blockHasher struct {
	buf []byte
	sum uint64
}

func newBlockHasher() *blockHasher {
	return &blockHasher{buf: make([]byte, 0, ChecksumBlockSize)}
}

func (h *blockHasher) Write(p []byte) {
	var n int
	for len(p) > 0 {
		n = ChecksumBlockSize - len(h.buf)
		if n > len(p) {
			n = len(p)
		}
		h.buf = append(h.buf, p[:n]...)
		p = p[n:]
		if len(h.buf) == ChecksumBlockSize {
			h.sum = wyhash.Hash(h.buf, h.sum)
			h.buf = h.buf[:0]
		}
	}
}

func (h *blockHasher) Sum() uint64 {
	if len(h.buf) > 0 {
		return wyhash.Hash(h.buf, h.sum)
	}
	return h.sum
}

type checksumWriter struct {
	w io.Writer
	h *blockHasher
	n int
}

func (w *checksumWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.h.Write(p[:n])
	w.n += n
	return n, err
}

type checksumReader struct {
	r io.Reader
	h *blockHasher
}

func (r *checksumReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.h.Write(p[:n])
	return n, err
}

// NewFromFile reads an index from a file.
func NewFromFile(file string) (*Index, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh)
}

// WriteToFile writes an index to a file, optional with file extension of .gz, .xz, .zst, .bz2.
func (idx *Index) WriteToFile(file string) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}
	defer outfh.Close()

	return idx.Write(outfh)
}

// Write writes the index to a writer, and returns the number of written bytes.
//
// Header (32 bytes):
//
//	Magic number, 8 bytes, mmpindex
//	Main and minor versions, 2 bytes
//	K and P, 2 bytes
//	Blank, 4 bytes
//	Number of bases of the reference, 8 bytes
//	Number of minimizers, 8 bytes
//
// Reference: 2bit-packed words, 8 bytes for every 32 bases.
//
// Buckets, in ascending order of minimizers. As minimizers are sorted
// and interval starts in a bucket are ascending, deltas are saved with
// group varints.
//
//	Control byte, 1 byte
//	Minimizer delta and number of intervals, 2-16 bytes
//	For every two intervals:
//	  Control byte, 1 byte
//	  start delta, length, start delta, length, 4-16 bytes
//
// Footer: wyhash checksum of all the data above, 8 bytes.
func (idx *Index) Write(w io.Writer) (int, error) {
	bw := bufio.NewWriterSize(w, 1<<16)
	cw := &checksumWriter{w: bw, h: newBlockHasher()}
	var err error

	err = binary.Write(cw, be, Magic)
	if err != nil {
		return cw.n, err
	}
	err = binary.Write(cw, be, [8]uint8{MainVersion, MinorVersion, idx.k, idx.p})
	if err != nil {
		return cw.n, err
	}
	err = binary.Write(cw, be, [2]uint64{uint64(idx.ref.Len()), uint64(len(idx.m))})
	if err != nil {
		return cw.n, err
	}

	// reference
	buf := make([]byte, 8<<10)
	var j int
	for _, word := range idx.ref.Words() {
		be.PutUint64(buf[j:j+8], word)
		j += 8
		if j == len(buf) {
			if _, err = cw.Write(buf); err != nil {
				return cw.n, err
			}
			j = 0
		}
	}
	if j > 0 {
		if _, err = cw.Write(buf[:j]); err != nil {
			return cw.n, err
		}
	}

	// buckets
	bufVar := make([]byte, 17)
	var ctrl byte
	var n int
	var preKey uint64
	var preStart uint32
	var intervals []Interval
	var a, b Interval
	var d1, d2 uint32
	for _, key := range idx.Minimizers() {
		intervals = idx.m[key]

		ctrl, n = util.PutUint64s(bufVar[1:], key-preKey, uint64(len(intervals)))
		bufVar[0] = ctrl
		if _, err = cw.Write(bufVar[:n+1]); err != nil {
			return cw.n, err
		}
		preKey = key

		preStart = 0
		for i := 0; i < len(intervals); i += 2 {
			a = intervals[i]
			d1 = a.Start - preStart
			preStart = a.Start
			if i+1 < len(intervals) {
				b = intervals[i+1]
				d2 = b.Start - preStart
				preStart = b.Start
			} else {
				b = Interval{}
				d2 = 0
			}

			ctrl, n = util.PutUint32s(bufVar[1:], d1, uint32(a.Len), d2, uint32(b.Len))
			bufVar[0] = ctrl
			if _, err = cw.Write(bufVar[:n+1]); err != nil {
				return cw.n, err
			}
		}
	}

	// footer
	N := cw.n
	err = binary.Write(bw, be, cw.h.Sum())
	if err != nil {
		return N, err
	}
	N += 8

	return N, bw.Flush()
}

func brokenIfEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrBrokenFile
	}
	return err
}

// Read reads an index from a reader.
func Read(r io.Reader) (*Index, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	cr := &checksumReader{r: br, h: newBlockHasher()}

	buf := make([]byte, 32)

	// header
	_, err := io.ReadFull(cr, buf)
	if err != nil {
		return nil, brokenIfEOF(err)
	}
	if [8]byte(buf[:8]) != Magic {
		return nil, ErrInvalidFileFormat
	}
	if buf[8] != MainVersion {
		return nil, ErrVersionMismatch
	}
	k, p := int(buf[10]), int(buf[11])
	if err = CheckKP(k, p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileFormat, err)
	}
	refLen := be.Uint64(buf[16:24])
	nBuckets := be.Uint64(buf[24:32])
	if refLen > MaxReferenceLen {
		return nil, fmt.Errorf("%w: reference length %d", ErrInvalidFileFormat, refLen)
	}
	if nBuckets > 0 && int64(refLen)-int64(k)+1 < int64(nBuckets) {
		return nil, fmt.Errorf("%w: %d minimizers for %d bases", ErrInvalidFileFormat, nBuckets, refLen)
	}

	// reference
	nWords := int((refLen + twobit.BasesPerWord - 1) / twobit.BasesPerWord)
	words := make([]uint64, 0, initCap(uint64(nWords), 1<<20))
	data := make([]byte, 8<<10)
	var j, m int
	for len(words) < nWords {
		m = nWords - len(words)
		if m > len(data)>>3 {
			m = len(data) >> 3
		}
		_, err = io.ReadFull(cr, data[:m<<3])
		if err != nil {
			return nil, brokenIfEOF(err)
		}
		for j = 0; j < m; j++ {
			words = append(words, be.Uint64(data[j<<3:j<<3+8]))
		}
	}
	ref, err := twobit.NewFromWords(words, int(refLen))
	if err != nil {
		return nil, err
	}

	idx := &Index{
		k:   uint8(k),
		p:   uint8(p),
		ref: ref,
		m:   make(map[uint64][]Interval, initCap(nBuckets, uint64(MapInitSize))),
	}

	// buckets
	var ctrl byte
	var n int
	var key, delta, nIntervals uint64
	var start uint32
	var d1, l1, d2, l2 uint32
	var intervals []Interval
	maxEnd := uint64(refLen) - uint64(k) + 1 // exclusive end of window starts
	for b := uint64(0); b < nBuckets; b++ {
		if _, err = io.ReadFull(cr, buf[:1]); err != nil {
			return nil, brokenIfEOF(err)
		}
		ctrl = buf[0]
		n = util.CtrlByte2ByteLengthsUint64(ctrl)
		if _, err = io.ReadFull(cr, buf[:n]); err != nil {
			return nil, brokenIfEOF(err)
		}
		delta, nIntervals, _ = util.Uint64s(ctrl, buf[:n])
		if b > 0 && delta == 0 {
			return nil, fmt.Errorf("%w: duplicated minimizers", ErrInvalidFileFormat)
		}
		if nIntervals == 0 || nIntervals > maxEnd {
			return nil, fmt.Errorf("%w: invalid number of intervals: %d", ErrInvalidFileFormat, nIntervals)
		}
		key += delta

		intervals = make([]Interval, 0, initCap(nIntervals, 1<<10))
		start = 0
		for uint64(len(intervals)) < nIntervals {
			if _, err = io.ReadFull(cr, buf[:1]); err != nil {
				return nil, brokenIfEOF(err)
			}
			ctrl = buf[0]
			n = util.CtrlByte2ByteLengthsUint32(ctrl)
			if _, err = io.ReadFull(cr, buf[:n]); err != nil {
				return nil, brokenIfEOF(err)
			}
			d1, l1, d2, l2, _ = util.Uint32s(ctrl, buf[:n])

			start += d1
			if err = checkInterval(start, l1, maxEnd); err != nil {
				return nil, err
			}
			intervals = append(intervals, Interval{Start: start, Len: uint16(l1)})

			if uint64(len(intervals)) < nIntervals {
				start += d2
				if err = checkInterval(start, l2, maxEnd); err != nil {
					return nil, err
				}
				intervals = append(intervals, Interval{Start: start, Len: uint16(l2)})
			}
		}

		idx.m[key] = intervals
		idx.nIntervals += len(intervals)
	}

	// footer
	sum := cr.h.Sum()
	if _, err = io.ReadFull(br, buf[:8]); err != nil {
		return nil, brokenIfEOF(err)
	}
	if be.Uint64(buf[:8]) != sum {
		return nil, ErrChecksumMismatch
	}

	return idx, nil
}

// initCap limits an initial capacity read from a file,
// larger slices and maps grow as data is actually read.
func initCap(n, limit uint64) int {
	if n > limit {
		return int(limit)
	}
	return int(n)
}

func checkInterval(start, l uint32, maxEnd uint64) error {
	if l == 0 || l > MaxIntervalLen || uint64(start)+uint64(l) > maxEnd {
		return fmt.Errorf("%w: invalid interval: start %d, length %d", ErrInvalidFileFormat, start, l)
	}
	return nil
}
