// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package rangec

import (
	"encoding/binary"
	"sort"

	"golang.org/x/exp/slices"
)

// tableSize is the serialized size of a Table:
// 256 little-endian uint16 symbol sizes.
const tableSize = 256 * 2

// Table is a static order-0 model of a single block.
// Symbol x occupies [Start(x), Start(x)+Size(x)) out of Total().
// Symbols with a zero size never occur in the block.
//
// A Table is immutable once built.
type Table struct {
	start [256]uint32
	size  [256]uint32
	total uint32
}

// NewTable counts the bytes in src and returns
// the cumulative table for them. The length of src
// must not exceed BlockSize.
func NewTable(src []byte) *Table {
	t := &Table{}
	t.observe(src)
	return t
}

// TableFromSizes builds the cumulative table for the
// given symbol sizes. It returns ErrMalformedTable
// if the sizes sum to zero or to more than BlockSize.
func TableFromSizes(sizes *[256]uint16) (*Table, error) {
	t := &Table{}
	if ec := t.setSizes(sizes); ec != ecOK {
		return nil, errs[ec]
	}
	return t, nil
}

// DecodeTable deserializes the first 512 bytes of src.
// See also Table.AppendSizes.
func DecodeTable(src []byte) (*Table, error) {
	t := &Table{}
	if ec := t.decode(src); ec != ecOK {
		return nil, errs[ec]
	}
	return t, nil
}

func (t *Table) observe(src []byte) {
	histogram(&t.size, src)
	t.cumulate()
}

func (t *Table) setSizes(sizes *[256]uint16) errorCode {
	for i, s := range sizes {
		t.size[i] = uint32(s)
	}
	t.cumulate()
	if t.total == 0 || t.total > BlockSize {
		return ecMalformedTable
	}
	return ecOK
}

func (t *Table) cumulate() {
	s := uint32(0)
	for i := range t.size {
		t.start[i] = s
		s += t.size[i]
	}
	t.total = s
}

func (t *Table) decode(src []byte) errorCode {
	if len(src) < tableSize {
		return ecOutOfInputData
	}
	var sizes [256]uint16
	for i := range sizes {
		sizes[i] = binary.LittleEndian.Uint16(src[i*2:])
	}
	return t.setSizes(&sizes)
}

// histogram counts src into freqs four ways at a time
// to avoid store-to-load forwarding stalls on repeated bytes.
func histogram(freqs *[256]uint32, src []byte) {
	var ways [4][256]uint32
	n := len(src)
	e := n &^ 3
	for i := 0; i < e; i += 4 {
		ways[0][src[i+0]]++
		ways[1][src[i+1]]++
		ways[2][src[i+2]]++
		ways[3][src[i+3]]++
	}
	for i := e; i < n; i++ {
		ways[0][src[i]]++
	}
	for i := range freqs {
		freqs[i] = ways[0][i] + ways[1][i] + ways[2][i] + ways[3][i]
	}
}

// AppendSizes appends the serialized representation
// of t to dst and returns the extended buffer.
func (t *Table) AppendSizes(dst []byte) []byte {
	for i := range t.size {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(t.size[i]))
	}
	return dst
}

// Start returns the cumulative start of symbol x.
func (t *Table) Start(x byte) uint32 { return t.start[x] }

// Size returns the number of occurrences of symbol x.
func (t *Table) Size(x byte) uint32 { return t.size[x] }

// Total returns the sum of all symbol sizes,
// which is the length of the block.
func (t *Table) Total() uint32 { return t.total }

// Trivial returns the only symbol present in the block,
// if the block consists of a single repeated byte.
func (t *Table) Trivial() (byte, bool) {
	if t.total == 0 {
		return 0, false
	}
	for i := range t.size {
		if t.size[i] == t.total {
			return byte(i), true
		}
	}
	return 0, false
}

// Lookup fills dst with the flattened inverse of t:
// position p in [0, Total()) maps to the symbol whose
// interval contains p. The storage of dst is reused
// when it is large enough.
func (t *Table) Lookup(dst []byte) []byte {
	n := int(t.total)
	dst = slices.Grow(dst[:0], n)[:n]
	for x := range t.size {
		run := dst[t.start[x] : t.start[x]+t.size[x]]
		for i := range run {
			run[i] = byte(x)
		}
	}
	return dst
}

// Locate returns the symbol whose interval contains pos
// by binary search over the cumulative starts.
// It agrees with Lookup for every pos < Total().
func (t *Table) Locate(pos uint32) byte {
	i := sort.Search(len(t.start), func(i int) bool {
		return t.start[i] > pos
	})
	return byte(i - 1)
}
