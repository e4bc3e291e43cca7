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

// encoder appends range-coded bytes to dst.
// Bytes are never revisited once appended.
type encoder struct {
	iv        interval
	tune      *tuning
	dst       []byte
	readjusts int
	logger    *log.Logger
}

func (e *encoder) reset(dst []byte, tune *tuning, logger *log.Logger) {
	e.iv = interval{low: 0, rng: initRange}
	e.tune = tune
	e.dst = dst
	e.readjusts = 0
	e.logger = logger
}

func (e *encoder) shiftByte(top byte) errorCode {
	if e.logger != nil {
		tracef(e.logger, "emit: %d", top)
		e.iv.trace(e.logger)
	}
	e.dst = append(e.dst, top)
	return ecOK
}

func (e *encoder) encode(start, size, total uint64) {
	e.iv.narrow(start, size, total)
	e.iv.trace(e.logger)
	// appending to dst cannot fail
	readjusted, _ := e.iv.renormalize(e.tune, e, e.logger)
	if readjusted {
		e.readjusts++
	}
}

func (e *encoder) put(t *Table, src []byte) {
	total := uint64(t.total)
	for _, x := range src {
		start, size := uint64(t.start[x]), uint64(t.size[x])
		if e.logger != nil {
			tracef(e.logger, "x: %d\tstart: %d\tsize: %d", x, start, size)
		}
		e.encode(start, size, total)
	}
}

// flush shifts out low until it is zero,
// which takes at most four bytes.
func (e *encoder) flush() {
	for e.iv.low != 0 {
		e.shiftByte(e.iv.shift())
	}
}
