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
	"errors"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"
)

func randomBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

// skewedBytes draws from a geometric-like distribution
// so that many symbols have small or zero counts.
func skewedBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		v := 0
		for v < 255 && r.Intn(3) != 0 {
			v++
		}
		b[i] = byte(v * 7)
	}
	return b
}

func distinctBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func testBlocks() map[string][]byte {
	return map[string][]byte{
		"empty":      {},
		"one":        {42},
		"pair":       {1, 2},
		"zeros":      make([]byte, BlockSize),
		"distinct":   distinctBytes(256),
		"distinct-f": distinctBytes(BlockSize),
		"random-1k":  randomBytes(1, 1000),
		"random-f":   randomBytes(2, BlockSize),
		"random-f-1": randomBytes(3, BlockSize-1),
		"skewed":     skewedBytes(4, 20000),
		"text":       []byte("test message 123 test message 456"),
	}
}

func TestTableInvariants(t *testing.T) {
	for name, src := range testBlocks() {
		tab := NewTable(src)
		if tab.Total() != uint32(len(src)) {
			t.Errorf("%s: total %d, want %d", name, tab.Total(), len(src))
			continue
		}
		if tab.Start(0) != 0 {
			t.Errorf("%s: start[0] = %d", name, tab.Start(0))
		}
		sum := uint32(0)
		for x := 0; x < 256; x++ {
			sum += tab.Size(byte(x))
			end := tab.Start(byte(x)) + tab.Size(byte(x))
			if x < 255 && end != tab.Start(byte(x+1)) {
				t.Errorf("%s: start[%d]+size[%d] = %d, start[%d] = %d", name, x, x, end, x+1, tab.Start(byte(x+1)))
			}
			if x == 255 && end != tab.Total() {
				t.Errorf("%s: last symbol ends at %d, total %d", name, end, tab.Total())
			}
		}
		if sum != uint32(len(src)) {
			t.Errorf("%s: sum(sizes) = %d, want %d", name, sum, len(src))
		}
	}
}

func TestTableSerialize(t *testing.T) {
	tab := NewTable([]byte{0, 0, 0, 1})
	buf := tab.AppendSizes(nil)
	if len(buf) != tableSize {
		t.Fatalf("serialized size %d", len(buf))
	}
	want := make([]byte, tableSize)
	want[0] = 3
	want[2] = 1
	if !slices.Equal(buf, want) {
		t.Fatalf("got %x", buf[:8])
	}

	var sizes [256]uint16
	sizes[7] = 0x0102
	sizes[255] = 0x0304
	tab, err := TableFromSizes(&sizes)
	if err != nil {
		t.Fatal(err)
	}
	buf = tab.AppendSizes([]byte{0xee})
	if buf[0] != 0xee || buf[1+14] != 0x02 || buf[1+15] != 0x01 || buf[1+510] != 0x04 || buf[1+511] != 0x03 {
		t.Fatalf("sizes are not little-endian: %x", buf)
	}
	got, err := DecodeTable(buf[1:])
	if err != nil {
		t.Fatal(err)
	}
	if *got != *tab {
		t.Fatal("table did not survive serialization")
	}
}

func TestTableMalformed(t *testing.T) {
	var sizes [256]uint16
	if _, err := TableFromSizes(&sizes); !errors.Is(err, ErrMalformedTable) {
		t.Fatalf("empty table: got %v", err)
	}
	sizes[0] = BlockSize
	sizes[1] = 1
	if _, err := TableFromSizes(&sizes); !errors.Is(err, ErrMalformedTable) {
		t.Fatalf("oversized table: got %v", err)
	}
	sizes[1] = 0
	if _, err := TableFromSizes(&sizes); err != nil {
		t.Fatalf("full table: %v", err)
	}
	if _, err := DecodeTable(make([]byte, tableSize-1)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short table: got %v", err)
	}
}

func TestTrivial(t *testing.T) {
	testcases := []struct {
		src []byte
		x   byte
		ok  bool
	}{
		{[]byte("aaaa"), 'a', true},
		{[]byte("ab"), 0, false},
		{nil, 0, false},
		{[]byte{0}, 0, true},
		{make([]byte, BlockSize), 0, true},
	}
	for _, tc := range testcases {
		x, ok := NewTable(tc.src).Trivial()
		if x != tc.x || ok != tc.ok {
			t.Errorf("%q: Trivial() = (%d, %v)", tc.src, x, ok)
		}
		x, ok = IsTrivial(tc.src)
		if x != tc.x || ok != tc.ok {
			t.Errorf("%q: IsTrivial() = (%d, %v)", tc.src, x, ok)
		}
	}
}

func TestLookupLocate(t *testing.T) {
	var lookup []byte
	for name, src := range testBlocks() {
		tab := NewTable(src)
		lookup = tab.Lookup(lookup)
		if len(lookup) != len(src) {
			t.Fatalf("%s: lookup length %d, want %d", name, len(lookup), len(src))
		}
		for p := uint32(0); p < tab.Total(); p++ {
			x := lookup[p]
			if y := tab.Locate(p); x != y {
				t.Fatalf("%s: position %d: lookup 0x%02x, locate 0x%02x", name, p, x, y)
			}
			if p < tab.Start(x) || p >= tab.Start(x)+tab.Size(x) {
				t.Fatalf("%s: position %d outside interval of 0x%02x", name, p, x)
			}
		}
	}
}
