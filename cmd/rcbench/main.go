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

// Command rcbench reports the compression ratio and
// throughput of the range coder next to the other
// algorithms in the compr registry.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SnellerInc/rangec/compr"
	"github.com/dchest/siphash"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// arbitrary fixed key; the digest only
// has to detect round-trip corruption
const (
	k0 = 0x736e656c6c657221
	k1 = 0x72616e6765632121
)

type result struct {
	algo       string
	size, comp int
	enc, dec   time.Duration
}

func (r *result) String() string {
	gbps := func(d time.Duration) float64 {
		return float64(r.size) / float64(d.Nanoseconds())
	}
	return fmt.Sprintf("%-12s %dB -> %dB (%.3gx) enc %.3g GB/s dec %.3g GB/s",
		r.algo, r.size, r.comp, float64(r.size)/float64(r.comp), gbps(r.enc), gbps(r.dec))
}

// fastest runs fn repeatedly until the deadline
// and returns the fastest single run.
func fastest(budget time.Duration, fn func() error) (time.Duration, error) {
	var min time.Duration
	deadline := time.Now().Add(budget)
	for min == 0 || time.Now().Before(deadline) {
		start := time.Now()
		if err := fn(); err != nil {
			return 0, err
		}
		dur := time.Since(start)
		if dur <= 0 {
			dur = 1
		}
		if min == 0 || dur < min {
			min = dur
		}
	}
	return min, nil
}

func bench(name string, src []byte, budget time.Duration) (*result, error) {
	comp := compr.Compression(name)
	dec := compr.Decompression(comp.Name())
	if dec == nil {
		return nil, fmt.Errorf("no decompressor for %s", comp.Name())
	}
	var cmp []byte
	enc, err := fastest(budget/2, func() error {
		cmp = comp.Compress(src, cmp[:0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(src))
	dur, err := fastest(budget/2, func() error {
		return dec.Decompress(cmp, out)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: decompression error: %w", name, err)
	}
	if siphash.Hash(k0, k1, out) != siphash.Hash(k0, k1, src) {
		return nil, fmt.Errorf("%s: round trip mismatch", name)
	}
	return &result{algo: name, size: len(src), comp: len(cmp), enc: enc, dec: dur}, nil
}

func main() {
	var (
		suitePath string
		algos     string
		duration  time.Duration
	)
	flag.StringVar(&suitePath, "suite", "", "YAML suite file (overrides the other flags)")
	flag.StringVar(&algos, "a", strings.Join(compr.Algorithms, ","), "comma-separated algorithms")
	flag.DurationVar(&duration, "t", defaultDuration, "time budget per input and algorithm")
	flag.Parse()

	var s *suite
	if suitePath != "" {
		var err error
		s, err = loadSuite(suitePath)
		if err != nil {
			fatalf("loading suite: %s", err)
		}
	} else {
		s = &suite{
			Inputs:     flag.Args(),
			Algorithms: strings.Split(algos, ","),
			Duration:   duration.String(),
		}
		if err := s.validate(); err != nil {
			fatalf("usage: %s [-a algos] [-t duration] <file>...: %s", os.Args[0], err)
		}
	}

	for _, in := range s.Inputs {
		buf, err := os.ReadFile(in)
		if err != nil {
			fatalf("reading file: %s", err)
		}
		if len(buf) == 0 {
			fmt.Printf("%s: empty, skipped\n", in)
			continue
		}
		fmt.Printf("%s:\n", in)
		for _, name := range s.Algorithms {
			r, err := bench(name, buf, s.duration)
			if err != nil {
				fatalf("%s", err)
			}
			fmt.Printf("  %s\n", r)
		}
	}
}
