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
	"log"
)

// The coder works on a 32-bit window held in a uint64
// so that low+rng can reach 2^32 without wrapping.
//
// Bytes are settled once the byte above bit 24 is the same
// for both ends of the interval. Instead of propagating carries
// into bytes that were already emitted, the interval is
// readjusted whenever rng falls below a floor: a fixed number
// of bytes is shifted out unconditionally and rng is clamped
// to the remainder of the window.

const (
	initRange uint64 = 1 << 32
	emitShift        = 24
	shiftMask uint64 = (1 << emitShift) - 1

	readjustThreshold uint64 = 1 << 16
	readjustEmit             = 2
)

// tuning holds the readjustment parameters.
// Encoder and decoder must agree on them;
// they are not transmitted.
type tuning struct {
	floor uint64 // readjust when rng < floor
	emit  int    // bytes forced out on readjustment
}

var defaultTuning = tuning{floor: readjustThreshold, emit: readjustEmit}

// valid reports whether t keeps rng/total >= 1 for any
// block: after emit forced shifts the low 8*emit bits of
// low are zero, so the clamped rng is at least 2^(8*emit).
func (t *tuning) valid() bool {
	return t.emit >= 2 && t.emit <= 3 &&
		t.floor >= BlockSize && t.floor <= 1<<emitShift
}

// narrow returns the sub-interval of [low, low+rng)
// assigned to the symbol [start, start+size) out of total.
// The division truncates identically on both sides.
func narrow(low, rng, start, size, total uint64) (uint64, uint64) {
	r := rng / total
	return low + start*r, r * size
}

// shift drops the top byte of the 32-bit window
// and appends b at the bottom.
func shift(x uint64, b byte) uint64 {
	return (x&shiftMask)<<8 | uint64(b)
}

// settled reports whether the top byte of the
// window can no longer change.
func settled(low, rng uint64) bool {
	return low>>emitShift == (low+rng)>>emitShift
}

// A shifter is notified of every byte shifted out of
// the top of low. The encoder writes it; the decoder
// ignores it and pulls the next input byte into code.
type shifter interface {
	shiftByte(top byte) errorCode
}

type interval struct {
	low, rng uint64
}

func (iv *interval) narrow(start, size, total uint64) {
	iv.low, iv.rng = narrow(iv.low, iv.rng, start, size, total)
}

func (iv *interval) shift() byte {
	top := byte(iv.low >> emitShift)
	iv.low = shift(iv.low, 0)
	iv.rng <<= 8
	return top
}

// renormalize drains settled bytes through s and then
// readjusts if rng is still below the floor. It reports
// whether a readjustment happened.
func (iv *interval) renormalize(t *tuning, s shifter, logger *log.Logger) (bool, errorCode) {
	for settled(iv.low, iv.rng) {
		if ec := s.shiftByte(iv.shift()); ec != ecOK {
			return false, ec
		}
	}
	if iv.rng >= t.floor {
		return false, ecOK
	}
	tracef(logger, "range readjusting")
	for i := 0; i < t.emit; i++ {
		if ec := s.shiftByte(iv.shift()); ec != ecOK {
			return false, ec
		}
	}
	iv.rng = initRange - iv.low
	iv.trace(logger)
	return true, ecOK
}

func (iv *interval) trace(logger *log.Logger) {
	if logger == nil {
		return
	}
	tracef(logger, "low: 0x%08x\thigh: 0x%08x\trange: 0x%08x", iv.low, iv.low+iv.rng, iv.rng)
}

func tracef(logger *log.Logger, f string, args ...any) {
	if logger != nil {
		logger.Printf(f, args...)
	}
}
