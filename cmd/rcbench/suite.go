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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SnellerInc/rangec/compr"
	"sigs.k8s.io/yaml"
)

// suite describes a benchmark run.
// It can be loaded from a YAML (or JSON) file:
//
//	inputs: [corpus/a.bin, corpus/b.txt]
//	algorithms: [range, zstd]
//	duration: 2s
//
// Relative inputs are resolved against the
// directory that holds the suite file.
type suite struct {
	Inputs     []string `json:"inputs"`
	Algorithms []string `json:"algorithms,omitempty"`
	Duration   string   `json:"duration,omitempty"`

	duration time.Duration
}

const defaultDuration = 3 * time.Second

func loadSuite(path string) (*suite, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &suite{}
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, in := range s.Inputs {
		if !filepath.IsAbs(in) {
			s.Inputs[i] = filepath.Join(dir, in)
		}
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// validate fills in defaults and checks
// that every algorithm is known.
func (s *suite) validate() error {
	if len(s.Inputs) == 0 {
		return fmt.Errorf("no inputs")
	}
	if len(s.Algorithms) == 0 {
		s.Algorithms = compr.Algorithms
	}
	for _, name := range s.Algorithms {
		if compr.Compression(name) == nil {
			return fmt.Errorf("unknown algorithm %q", name)
		}
	}
	s.duration = defaultDuration
	if s.Duration != "" {
		d, err := time.ParseDuration(s.Duration)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("duration %s is not positive", d)
		}
		s.duration = d
	}
	return nil
}
