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

// decoder mirrors encoder: it performs the same
// narrowing and renormalization, and every byte the
// encoder shifted out is shifted into code here.
type decoder struct {
	iv        interval
	code      uint64
	src       cursor
	tune      *tuning
	readjusts int
	logger    *log.Logger

	// checkLocate cross-checks every lookup
	// against Table.Locate; set by tests.
	checkLocate bool
}

// init primes code with the first four bytes of src.
func (d *decoder) init(src []byte, tune *tuning, logger *log.Logger) errorCode {
	d.iv = interval{low: 0, rng: 1}
	d.code = 0
	d.src = cursor{data: src}
	d.tune = tune
	d.readjusts = 0
	d.logger = logger
	for i := 0; i < 4; i++ {
		if ec := d.shiftByte(d.iv.shift()); ec != ecOK {
			return ec
		}
	}
	return ecOK
}

func (d *decoder) shiftByte(_ byte) errorCode {
	b, ec := d.src.fetch8()
	if ec != ecOK {
		return ec
	}
	d.code = shift(d.code, b)
	if d.logger != nil {
		d.iv.trace(d.logger)
		tracef(d.logger, "emit: %d", b)
	}
	return ecOK
}

// value returns the position of code within
// the current interval, scaled to [0, total).
func (d *decoder) value(total uint64) (uint64, errorCode) {
	// code < low wraps to a huge value and is rejected below
	v := (d.code - d.iv.low) / (d.iv.rng / total)
	if v >= total {
		return 0, ecBadPosition
	}
	return v, ecOK
}

func (d *decoder) consume(start, size, total uint64) errorCode {
	d.iv.narrow(start, size, total)
	d.iv.trace(d.logger)
	readjusted, ec := d.iv.renormalize(d.tune, d, d.logger)
	if readjusted {
		d.readjusts++
	}
	return ec
}

// get decodes exactly t.Total() symbols into dst
// using lookup as the flattened inverse of t.
func (d *decoder) get(t *Table, lookup []byte, dst []byte) ([]byte, errorCode) {
	total := uint64(t.total)
	for n := uint64(1); ; n++ {
		v, ec := d.value(total)
		if ec != ecOK {
			return dst, ec
		}
		x := lookup[v]
		if d.checkLocate && t.Locate(uint32(v)) != x {
			return dst, ecBadPosition
		}
		start, size := uint64(t.start[x]), uint64(t.size[x])
		if d.logger != nil {
			tracef(d.logger, "x: %d\tstart: %d\tsize: %d", x, start, size)
		}
		dst = append(dst, x)
		if n >= total {
			return dst, ecOK
		}
		if ec := d.consume(start, size, total); ec != ecOK {
			return dst, ec
		}
	}
}
