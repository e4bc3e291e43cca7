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

// Command rcz compresses or decompresses
// standard input to standard output using
// the rangec block range coder.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/SnellerInc/rangec/rangec"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	var (
		decode    bool
		verbosity int
		stats     bool
	)
	flag.BoolVar(&decode, "d", false, "decompress instead of compressing")
	flag.IntVar(&verbosity, "v", 0, "verbosity (>0 traces coder state to stderr)")
	flag.BoolVar(&stats, "stats", false, "print block statistics to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-d] [-v n] [-stats] [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if verbosity < 0 || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if flag.NArg() == 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fatalf("opening input: %s", err)
		}
		defer f.Close()
		in = f
	}
	in = bufio.NewReader(in)
	out := bufio.NewWriter(os.Stdout)

	var opts []rangec.Option
	if verbosity > 0 {
		opts = append(opts, rangec.WithTrace(log.New(os.Stderr, "", 0)))
	}
	var st rangec.Stats
	var err error
	if decode {
		st, err = rangec.Decode(out, in, opts...)
	} else {
		st, err = rangec.Encode(out, in, opts...)
	}
	if err != nil {
		fatalf("%s", err)
	}
	if err := out.Flush(); err != nil {
		fatalf("writing output: %s", err)
	}
	if stats {
		fmt.Fprintf(os.Stderr, "%d blocks (%d trivial), %d readjustments, %dB -> %dB\n",
			st.Blocks, st.TrivialBlocks, st.Readjusts, st.BytesIn, st.BytesOut)
	}
}
