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
)

type errorCode uint32

const (
	ecOK errorCode = iota
	ecOutOfInputData
	ecMalformedTable
	ecBadPosition
	ecInvalidFrame
	ecBlockTooLarge
	ecLastCode
)

var errs = [ecLastCode]error{
	ecOK:             nil,
	ecOutOfInputData: errors.New("rangec: truncated input"),
	ecMalformedTable: errors.New("rangec: malformed frequency table"),
	ecBadPosition:    errors.New("rangec: decode position out of range"),
	ecInvalidFrame:   errors.New("rangec: invalid frame header"),
	ecBlockTooLarge:  errors.New("rangec: block exceeds maximum size"),
}

var (
	// ErrTruncated is returned when the input ends
	// before a frame, table or coded payload is complete.
	ErrTruncated = errs[ecOutOfInputData]
	// ErrMalformedTable is returned when a deserialized
	// frequency table sums to zero or to more than BlockSize.
	ErrMalformedTable = errs[ecMalformedTable]
	// ErrBadPosition is returned when the decoder computes
	// a position that no symbol interval covers.
	// This only happens on corrupted input.
	ErrBadPosition = errs[ecBadPosition]
	// ErrInvalidFrame is returned for frame headers
	// that cannot describe a valid block.
	ErrInvalidFrame = errs[ecInvalidFrame]
	// ErrBlockTooLarge is returned when a block
	// of more than BlockSize bytes is encoded.
	ErrBlockTooLarge = errs[ecBlockTooLarge]
)
