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
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/exp/slices"
)

var errClosed = errors.New("rangec: write to closed Writer")

type options struct {
	logger      *log.Logger
	tune        *tuning
	checkLocate bool
}

// Option is an optional argument to the
// stream encoding and decoding functions.
type Option func(o *options)

// WithTrace is an option that directs diagnostic
// output (interval bounds, emitted and consumed bytes,
// readjustments) to l. If no logger is set, no
// diagnostics are produced.
func WithTrace(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func withTuning(t *tuning) Option {
	if !t.valid() {
		panic("rangec: invalid readjustment tuning")
	}
	return func(o *options) {
		o.tune = t
	}
}

func withLocateCheck() Option {
	return func(o *options) {
		o.checkLocate = true
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o *options) encoder() BlockEncoder {
	return BlockEncoder{tune: o.tune, logger: o.logger}
}

func (o *options) decoder() BlockDecoder {
	return BlockDecoder{tune: o.tune, logger: o.logger, checkLocate: o.checkLocate}
}

// blockReader splits a byte stream into blocks.
type blockReader struct {
	r   io.Reader
	buf []byte
}

// next returns the next block of input. A block shorter
// than BlockSize is the last one; when the input ends
// exactly on a block boundary, the last block is empty.
// The returned slice is only valid until the next call.
func (br *blockReader) next() ([]byte, bool, error) {
	if br.buf == nil {
		br.buf = make([]byte, BlockSize)
	}
	n, err := io.ReadFull(br.r, br.buf)
	switch err {
	case nil:
		return br.buf, false, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return br.buf[:n], true, nil
	default:
		return nil, true, err
	}
}

// Encode compresses src into dst until src
// is exhausted and returns the encoding statistics.
func Encode(dst io.Writer, src io.Reader, opts ...Option) (Stats, error) {
	o := newOptions(opts)
	enc := o.encoder()
	br := blockReader{r: src}
	var out []byte
	for {
		block, last, err := br.next()
		if err != nil {
			return enc.stats, fmt.Errorf("rangec: reading input: %w", err)
		}
		// cannot fail: len(block) <= BlockSize
		out, _ = enc.AppendBlock(out[:0], block)
		if len(out) > 0 {
			if _, err := dst.Write(out); err != nil {
				return enc.stats, fmt.Errorf("rangec: writing frame: %w", err)
			}
		}
		if last {
			return enc.stats, nil
		}
	}
}

// Decode decompresses frames from src into dst
// and returns the decoding statistics. It stops after
// a block shorter than BlockSize or at the end of src,
// without reading past the final frame.
func Decode(dst io.Writer, src io.Reader, opts ...Option) (Stats, error) {
	r := NewReader(src, opts...)
	for {
		block, err := r.nextBlock()
		if err == io.EOF {
			return r.dec.stats, nil
		}
		if err != nil {
			return r.dec.stats, err
		}
		if _, err := dst.Write(block); err != nil {
			return r.dec.stats, fmt.Errorf("rangec: writing output: %w", err)
		}
	}
}

// Writer is an io.WriteCloser that compresses
// everything written to it. Full blocks are written
// to the underlying writer as soon as they fill up;
// Close writes the final partial block, if any.
//
// Close does not close the underlying writer.
type Writer struct {
	w      io.Writer
	enc    BlockEncoder
	buf    []byte
	out    []byte
	err    error
	closed bool
}

// NewWriter returns a Writer that writes frames to w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	o := newOptions(opts)
	return &Writer{
		w:   w,
		enc: o.encoder(),
		buf: make([]byte, 0, BlockSize),
	}
}

// Stats returns the encoding statistics so far.
func (w *Writer) Stats() Stats { return w.enc.stats }

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	n := 0
	for len(p) > 0 {
		k := copy(w.buf[len(w.buf):BlockSize], p)
		w.buf = w.buf[:len(w.buf)+k]
		p = p[k:]
		n += k
		if len(w.buf) == BlockSize {
			if err := w.emit(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (w *Writer) emit() error {
	w.out, _ = w.enc.AppendBlock(w.out[:0], w.buf)
	w.buf = w.buf[:0]
	if len(w.out) == 0 {
		return nil
	}
	if _, err := w.w.Write(w.out); err != nil {
		w.err = fmt.Errorf("rangec: writing frame: %w", err)
		return w.err
	}
	return nil
}

// Close writes the final block. The stream is
// complete once Close returns without an error.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	return w.emit()
}

// Reader is an io.Reader that decompresses
// a stream of frames from an underlying reader.
// It never reads past the final frame of a stream,
// so another stream may follow in the same reader.
type Reader struct {
	r     io.Reader
	dec   BlockDecoder
	hdr   [headerSize]byte
	frame []byte
	buf   []byte
	pos   int
	last  bool
	err   error
}

// NewReader returns a Reader that decodes frames from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := newOptions(opts)
	return &Reader{r: r, dec: o.decoder()}
}

// Stats returns the decoding statistics so far.
func (r *Reader) Stats() Stats { return r.dec.stats }

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for r.pos == len(r.buf) {
		if r.err != nil {
			return 0, r.err
		}
		r.buf, r.err = r.nextBlock()
		r.pos = 0
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) fill(n int) error {
	r.frame = slices.Grow(r.frame[:0], n)[:n]
	_, err := io.ReadFull(r.r, r.frame)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	if err != nil {
		return fmt.Errorf("rangec: reading frame: %w", err)
	}
	return nil
}

// nextBlock reads and decodes one frame. It returns
// io.EOF once the stream has ended.
func (r *Reader) nextBlock() ([]byte, error) {
	if r.last {
		return nil, io.EOF
	}
	_, err := io.ReadFull(r.r, r.hdr[:])
	if err == io.EOF {
		r.last = true
		return nil, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return nil, ErrTruncated
	}
	if err != nil {
		return nil, fmt.Errorf("rangec: reading frame: %w", err)
	}
	hdr := binary.LittleEndian.Uint32(r.hdr[:])
	var ec errorCode
	if hdr == 0 {
		if err := r.fill(3); err != nil {
			return nil, err
		}
		n := int(binary.LittleEndian.Uint16(r.frame[:2]))
		r.buf, ec = r.dec.decodeTrivial(r.buf[:0], n, r.frame[2])
	} else {
		if ec := checkCodedLen(hdr); ec != ecOK {
			return nil, errs[ec]
		}
		if err := r.fill(int(hdr)); err != nil {
			return nil, err
		}
		r.buf, ec = r.dec.decodeCoded(r.buf[:0], r.frame)
	}
	if ec != ecOK {
		return nil, errs[ec]
	}
	if len(r.buf) < BlockSize {
		r.last = true
	}
	return r.buf, nil
}

// AppendStream appends the compressed form
// of src to dst and returns the extended buffer.
func AppendStream(dst, src []byte) []byte {
	var enc BlockEncoder
	for {
		n := len(src)
		if n > BlockSize {
			n = BlockSize
		}
		// cannot fail: n <= BlockSize
		dst, _ = enc.AppendBlock(dst, src[:n])
		src = src[n:]
		if n < BlockSize {
			return dst
		}
	}
}

// DecodeStream decodes one stream from the start of src,
// appends the result to dst and returns the extended
// buffer and the number of bytes of src consumed.
// Decoding stops after a block shorter than BlockSize
// or at the end of src; any remaining bytes may hold
// another stream.
func DecodeStream(dst, src []byte) ([]byte, int, error) {
	var dec BlockDecoder
	pos := 0
	for pos < len(src) {
		base := len(dst)
		c := cursor{data: src[pos:]}
		var ec errorCode
		dst, ec = dec.decodeFrame(dst, &c)
		if ec != ecOK {
			return dst[:base], pos, errs[ec]
		}
		pos += c.pos
		if len(dst)-base < BlockSize {
			break
		}
	}
	return dst, pos, nil
}
