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

// Package rangec implements a block-oriented
// order-0 range coder.
//
// Input is split into blocks of up to BlockSize bytes.
// Each block is described by a static frequency table
// that travels with it, so blocks decode independently.
// A block of one repeated byte is stored as a 7-byte
// trivial frame without invoking the coder.
//
// Frame layout (all integers little-endian):
//
//	u32 0, u16 count, u8 value            trivial block
//	u32 L, [512]byte table, coded, [4]0    coded block, L bytes after the header
//
// A block shorter than BlockSize ends the stream.
// A stream whose length is a multiple of BlockSize
// simply ends after its last full block.
package rangec

import (
	"encoding/binary"
	"log"

	"golang.org/x/exp/slices"
)

const (
	// BlockSize is the maximum number of
	// bytes in a single block.
	BlockSize = 1 << 15

	headerSize       = 4
	paddingSize      = 4
	trivialFrameSize = headerSize + 2 + 1

	// bounds on the length field of a coded frame;
	// the upper bound is generous and only exists
	// to reject corrupted headers before allocating
	minCodedLen = tableSize + paddingSize
	maxCodedLen = tableSize + paddingSize + 8*BlockSize
)

// Stats accumulates counters over the
// blocks processed by an encoder or decoder.
type Stats struct {
	Blocks        int   // frames produced or consumed
	TrivialBlocks int   // of which were trivial
	Readjusts     int   // range readjustments performed
	BytesIn       int64 // bytes consumed
	BytesOut      int64 // bytes produced
}

// IsTrivial returns the repeated byte if src
// is non-empty and consists of a single byte value.
func IsTrivial(src []byte) (byte, bool) {
	if len(src) == 0 {
		return 0, false
	}
	x := src[0]
	for _, b := range src[1:] {
		if b != x {
			return 0, false
		}
	}
	return x, true
}

// BlockEncoder encodes individual blocks.
// The zero value is ready to use.
//
// It is not safe to use a BlockEncoder from
// multiple goroutines simultaneously.
type BlockEncoder struct {
	enc    encoder
	table  Table
	tune   *tuning
	logger *log.Logger
	stats  Stats
}

func (b *BlockEncoder) params() *tuning {
	if b.tune == nil {
		return &defaultTuning
	}
	return b.tune
}

// Stats returns the counters accumulated
// over every block encoded so far.
func (b *BlockEncoder) Stats() Stats { return b.stats }

// AppendBlock appends the frame for src to dst
// and returns the extended buffer. An empty src
// appends nothing. If src is longer than BlockSize,
// AppendBlock returns dst unchanged and ErrBlockTooLarge.
func (b *BlockEncoder) AppendBlock(dst, src []byte) ([]byte, error) {
	ret, ec := b.appendBlock(dst, src)
	if ec != ecOK {
		return dst, errs[ec]
	}
	return ret, nil
}

func (b *BlockEncoder) appendBlock(dst, src []byte) ([]byte, errorCode) {
	n := len(src)
	if n == 0 {
		return dst, ecOK
	}
	if n > BlockSize {
		return dst, ecBlockTooLarge
	}
	b.table.observe(src)
	b.stats.Blocks++
	b.stats.BytesIn += int64(n)
	if x, ok := b.table.Trivial(); ok {
		tracef(b.logger, "trivial block with 0x%02x x %d", x, n)
		dst = binary.LittleEndian.AppendUint32(dst, 0)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(n))
		dst = append(dst, x)
		b.stats.TrivialBlocks++
		b.stats.BytesOut += trivialFrameSize
		return dst, ecOK
	}

	base := len(dst)
	dst = binary.LittleEndian.AppendUint32(dst, 0) // patched below
	dst = b.table.AppendSizes(dst)
	b.enc.reset(dst, b.params(), b.logger)
	b.enc.put(&b.table, src)
	b.enc.flush()
	dst = append(b.enc.dst, 0, 0, 0, 0) // paddingSize
	b.enc.dst = nil
	binary.LittleEndian.PutUint32(dst[base:], uint32(len(dst)-base-headerSize))
	b.stats.Readjusts += b.enc.readjusts
	b.stats.BytesOut += int64(len(dst) - base)
	return dst, ecOK
}

// BlockDecoder decodes individual frames.
// The zero value is ready to use. The decode
// lookup table is kept and reused between blocks.
//
// It is not safe to use a BlockDecoder from
// multiple goroutines simultaneously.
type BlockDecoder struct {
	dec    decoder
	table  Table
	lookup []byte
	tune   *tuning
	logger *log.Logger
	stats  Stats

	checkLocate bool
}

func (b *BlockDecoder) params() *tuning {
	if b.tune == nil {
		return &defaultTuning
	}
	return b.tune
}

// Stats returns the counters accumulated
// over every block decoded so far.
func (b *BlockDecoder) Stats() Stats { return b.stats }

// DecodeBlock decodes the frame at the start of src,
// appends the block to dst and returns the extended
// buffer along with the number of bytes of src that
// the frame occupied.
func (b *BlockDecoder) DecodeBlock(dst, src []byte) ([]byte, int, error) {
	c := cursor{data: src}
	ret, ec := b.decodeFrame(dst, &c)
	if ec != ecOK {
		return dst, 0, errs[ec]
	}
	return ret, c.pos, nil
}

func (b *BlockDecoder) decodeFrame(dst []byte, c *cursor) ([]byte, errorCode) {
	hdr, ec := c.fetch32()
	if ec != ecOK {
		return dst, ec
	}
	if hdr == 0 {
		n, ec := c.fetch16()
		if ec != ecOK {
			return dst, ec
		}
		x, ec := c.fetch8()
		if ec != ecOK {
			return dst, ec
		}
		return b.decodeTrivial(dst, int(n), x)
	}
	if ec := checkCodedLen(hdr); ec != ecOK {
		return dst, ec
	}
	payload, ec := c.fetchSequence(int(hdr))
	if ec != ecOK {
		return dst, ec
	}
	return b.decodeCoded(dst, payload)
}

func checkCodedLen(n uint32) errorCode {
	if n < minCodedLen || n > maxCodedLen {
		return ecInvalidFrame
	}
	return ecOK
}

func (b *BlockDecoder) decodeTrivial(dst []byte, n int, x byte) ([]byte, errorCode) {
	if n == 0 || n > BlockSize {
		return dst, ecInvalidFrame
	}
	tracef(b.logger, "trivial block with 0x%02x x %d", x, n)
	base := len(dst)
	dst = slices.Grow(dst, n)[:base+n]
	run := dst[base:]
	for i := range run {
		run[i] = x
	}
	b.stats.Blocks++
	b.stats.TrivialBlocks++
	b.stats.BytesIn += trivialFrameSize
	b.stats.BytesOut += int64(n)
	return dst, ecOK
}

// decodeCoded decodes the payload of a coded frame
// (everything after the length header).
func (b *BlockDecoder) decodeCoded(dst, payload []byte) ([]byte, errorCode) {
	if ec := b.table.decode(payload); ec != ecOK {
		return dst, ec
	}
	b.lookup = b.table.Lookup(b.lookup)
	if ec := b.dec.init(payload[tableSize:], b.params(), b.logger); ec != ecOK {
		return dst, ec
	}
	b.dec.checkLocate = b.checkLocate
	dst = slices.Grow(dst, int(b.table.total))
	dst, ec := b.dec.get(&b.table, b.lookup, dst)
	b.stats.Readjusts += b.dec.readjusts
	if ec != ecOK {
		return dst, ec
	}
	b.stats.Blocks++
	b.stats.BytesIn += int64(headerSize + len(payload))
	b.stats.BytesOut += int64(b.table.total)
	return dst, ecOK
}

// AppendBlock encodes src as a single frame
// using a fresh BlockEncoder.
// See BlockEncoder.AppendBlock.
func AppendBlock(dst, src []byte) ([]byte, error) {
	var b BlockEncoder
	return b.AppendBlock(dst, src)
}

// DecodeBlock decodes a single frame
// using a fresh BlockDecoder.
// See BlockDecoder.DecodeBlock.
func DecodeBlock(dst, src []byte) ([]byte, int, error) {
	var b BlockDecoder
	return b.DecodeBlock(dst, src)
}
