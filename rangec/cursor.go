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
)

// cursor reads little-endian fields from a byte slice,
// reporting ecOutOfInputData instead of reading past the end.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) checkFetch(n int) errorCode {
	if c.pos+n > len(c.data) {
		return ecOutOfInputData
	}
	return ecOK
}

func (c *cursor) fetch8() (byte, errorCode) {
	if ec := c.checkFetch(1); ec != ecOK {
		return 0, ec
	}
	r := c.data[c.pos]
	c.pos++
	return r, ecOK
}

func (c *cursor) fetch16() (uint16, errorCode) {
	if ec := c.checkFetch(2); ec != ecOK {
		return 0, ec
	}
	r := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return r, ecOK
}

func (c *cursor) fetch32() (uint32, errorCode) {
	if ec := c.checkFetch(4); ec != ecOK {
		return 0, ec
	}
	r := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return r, ecOK
}

func (c *cursor) fetchSequence(n int) ([]byte, errorCode) {
	if ec := c.checkFetch(n); ec != ecOK {
		return nil, ec
	}
	r := c.data[c.pos : c.pos+n]
	c.pos += n
	return r, ecOK
}
