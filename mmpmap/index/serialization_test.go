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
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
)

func sameIndex(t *testing.T, a, b *Index) bool {
	if !bytes.Equal(a.Reference().Bytes(), b.Reference().Bytes()) {
		t.Errorf("references differ")
		return false
	}
	if !sameBuckets(a, b) {
		t.Errorf("buckets differ")
		return false
	}
	return true
}

func TestSerialization(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 10, 31, 32, 33, 1000, 30000} {
		ref := randRepetitiveSeq(r, n)
		idx, err := New(ref, 21, 9)
		if err != nil {
			t.Error(err)
			return
		}

		buf := &bytes.Buffer{}
		N, err := idx.Write(buf)
		if err != nil {
			t.Error(err)
			return
		}
		if N != buf.Len() {
			t.Errorf("%d bytes written, %d reported", buf.Len(), N)
		}

		idx2, err := Read(buf)
		if err != nil {
			t.Errorf("reference of %d bases: %s", n, err)
			return
		}
		if !sameIndex(t, idx, idx2) {
			return
		}
		t.Logf("reference of %d bases, %d minimizers, %d intervals: %d bytes",
			n, idx.Len(), idx.NumIntervals(), N)
	}
}

func TestSerializationFile(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	ref := randRepetitiveSeq(r, 100000)
	idx, err := NewWithOptions(ref, &BuildOptions{K: 32, P: 12, Threads: 4, ChunkSize: 10000})
	if err != nil {
		t.Error(err)
		return
	}

	dir := t.TempDir()
	for _, file := range []string{"index.bin", "index.bin.gz"} {
		file = filepath.Join(dir, file)
		if _, err = idx.WriteToFile(file); err != nil {
			t.Error(err)
			return
		}
		idx2, err := NewFromFile(file)
		if err != nil {
			t.Error(err)
			return
		}
		if !sameIndex(t, idx, idx2) {
			return
		}

		query := ref[5000:5200]
		m1, ok1, _ := idx.MaxMapPrefixBytes(query)
		m2, ok2, _ := idx2.MaxMapPrefixBytes(query)
		if m1 != m2 || ok1 != ok2 || !ok2 {
			t.Errorf("%s: inconsistent results: %+v, %+v", file, m1, m2)
		}
	}
}

func TestCorruptedData(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	idx, _ := New(randRepetitiveSeq(r, 3000), 15, 7)

	buf := &bytes.Buffer{}
	if _, err := idx.Write(buf); err != nil {
		t.Error(err)
		return
	}
	data := buf.Bytes()

	// a mutated base
	data2 := append([]byte{}, data...)
	data2[32+100] ^= 0x3
	if _, err := Read(bytes.NewReader(data2)); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got: %v", err)
	}

	// a mutated checksum
	data2 = append([]byte{}, data...)
	data2[len(data2)-1] ^= 0xff
	if _, err := Read(bytes.NewReader(data2)); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got: %v", err)
	}

	// truncated
	for _, n := range []int{0, 20, 32, 500, len(data) - 3} {
		if _, err := Read(bytes.NewReader(data[:n])); !errors.Is(err, ErrBrokenFile) {
			t.Errorf("truncated at %d: expected ErrBrokenFile, got: %v", n, err)
		}
	}

	// invalid magic number
	data2 = append([]byte{}, data...)
	copy(data2, "lexicmap")
	if _, err := Read(bytes.NewReader(data2)); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("expected ErrInvalidFileFormat, got: %v", err)
	}

	// incompatible version
	data2 = append([]byte{}, data...)
	data2[8] = MainVersion + 1
	if _, err := Read(bytes.NewReader(data2)); !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got: %v", err)
	}

	// invalid k
	data2 = append([]byte{}, data...)
	data2[10] = 33
	if _, err := Read(bytes.NewReader(data2)); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("expected ErrInvalidFileFormat, got: %v", err)
	}
}

func TestHugeHeaderValues(t *testing.T) {
	// a header claiming a reference of 1<<32 bases and nearly as many
	// buckets, followed by only a few bytes
	buf := make([]byte, 32, 64)
	copy(buf, Magic[:])
	buf[8], buf[9], buf[10], buf[11] = MainVersion, MinorVersion, 32, 12
	be.PutUint64(buf[16:24], MaxReferenceLen)
	be.PutUint64(buf[24:32], MaxReferenceLen-100)
	buf = append(buf, make([]byte, 24)...)

	if _, err := Read(bytes.NewReader(buf)); !errors.Is(err, ErrBrokenFile) {
		t.Errorf("expected ErrBrokenFile, got: %v", err)
	}

	if n := initCap(MaxReferenceLen, 1<<20); n != 1<<20 {
		t.Errorf("initial capacity not limited: %d", n)
	}
	if n := initCap(10, 1<<20); n != 10 {
		t.Errorf("unexpected initial capacity: %d", n)
	}
}
