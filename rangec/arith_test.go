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
	"testing"

	"golang.org/x/exp/slices"
)

type recorder struct {
	out []byte
}

func (r *recorder) shiftByte(top byte) errorCode {
	r.out = append(r.out, top)
	return ecOK
}

func TestNarrow(t *testing.T) {
	testcases := []struct {
		low, rng, start, size, total uint64
		wantLow, wantRng             uint64
	}{
		{0, initRange, 3, 1, 4, 0xc0000000, 0x40000000},
		{0, initRange, 0, 3, 4, 0, 0xc0000000},
		// 10/3 truncates to 3
		{100, 10, 1, 2, 3, 103, 6},
		{0xfe0000, 0x40000, 16383, 2, BlockSize, 0xfffff8, 16},
	}
	for i, tc := range testcases {
		low, rng := narrow(tc.low, tc.rng, tc.start, tc.size, tc.total)
		if low != tc.wantLow || rng != tc.wantRng {
			t.Errorf("case %d: got (0x%x, 0x%x), want (0x%x, 0x%x)", i, low, rng, tc.wantLow, tc.wantRng)
		}
	}
}

func TestShift(t *testing.T) {
	if got := shift(0x12345678, 0x9a); got != 0x3456789a {
		t.Fatalf("shift: got 0x%x", got)
	}
	if got := shift(0xff000000, 0); got != 0 {
		t.Fatalf("shift: got 0x%x", got)
	}
}

func TestSettled(t *testing.T) {
	testcases := []struct {
		low, rng uint64
		want     bool
	}{
		{0x12000000, 0x00ffffff, true},
		{0x12ffff00, 0x100, false},
		{0, initRange, false},
		// an interval ending exactly at 2^32 is never settled
		{0x00c80000, initRange - 0x00c80000, false},
	}
	for _, tc := range testcases {
		if got := settled(tc.low, tc.rng); got != tc.want {
			t.Errorf("settled(0x%x, 0x%x) = %v", tc.low, tc.rng, got)
		}
	}
}

func TestRenormalizeDrain(t *testing.T) {
	iv := interval{low: 0x12340000, rng: 0x100}
	var r recorder
	readjusted, ec := iv.renormalize(&defaultTuning, &r, nil)
	if ec != ecOK {
		t.Fatal(errs[ec])
	}
	if readjusted {
		t.Fatal("unexpected readjustment")
	}
	if !slices.Equal(r.out, []byte{0x12, 0x34}) {
		t.Fatalf("emitted %x", r.out)
	}
	if iv.low != 0 || iv.rng != 1<<24 {
		t.Fatalf("got low=0x%x rng=0x%x", iv.low, iv.rng)
	}
}

func TestRenormalizeReadjust(t *testing.T) {
	// straddles 0x01000000 with a tiny range
	iv := interval{low: 0x00ffff00, rng: 0x200}
	var r recorder
	readjusted, ec := iv.renormalize(&defaultTuning, &r, nil)
	if ec != ecOK {
		t.Fatal(errs[ec])
	}
	if !readjusted {
		t.Fatal("expected readjustment")
	}
	if !slices.Equal(r.out, []byte{0x00, 0xff}) {
		t.Fatalf("emitted %x", r.out)
	}
	if iv.low != 0xff000000 || iv.rng != 0x01000000 {
		t.Fatalf("got low=0x%x rng=0x%x", iv.low, iv.rng)
	}
	if iv.low+iv.rng != initRange {
		t.Fatal("readjusted interval does not end at 2^32")
	}
}

func TestRenormalizeReadjustEmit3(t *testing.T) {
	tune := tuning{floor: 1 << 20, emit: 3}
	iv := interval{low: 0x00fff000, rng: 0x2000}
	var r recorder
	readjusted, _ := iv.renormalize(&tune, &r, nil)
	if !readjusted {
		t.Fatal("expected readjustment")
	}
	if !slices.Equal(r.out, []byte{0x00, 0xff, 0xf0}) {
		t.Fatalf("emitted %x", r.out)
	}
	if iv.low != 0 || iv.rng != initRange {
		t.Fatalf("got low=0x%x rng=0x%x", iv.low, iv.rng)
	}
}

func TestTuningValid(t *testing.T) {
	testcases := []struct {
		tune tuning
		ok   bool
	}{
		{defaultTuning, true},
		{tuning{floor: BlockSize, emit: 2}, true},
		{tuning{floor: 1 << 24, emit: 3}, true},
		{tuning{floor: 1 << 16, emit: 1}, false},
		{tuning{floor: 1 << 16, emit: 4}, false},
		{tuning{floor: BlockSize - 1, emit: 2}, false},
		{tuning{floor: 1<<24 + 1, emit: 2}, false},
	}
	for _, tc := range testcases {
		if got := tc.tune.valid(); got != tc.ok {
			t.Errorf("%+v: valid() = %v", tc.tune, got)
		}
	}
}
