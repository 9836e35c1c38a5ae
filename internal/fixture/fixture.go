// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0


// Package fixture provides sample documents and their expected HTML
// for tests and fuzzing.
package fixture

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Sample is a single document with its expected rendering.
type Sample struct {
	Name string
	// Preset is one of "default", "full", or "commonmark".
	Preset   string
	Markdown string
	HTML     string
}

//go:embed samples.json
var samplesData []byte

// Load returns the embedded samples.
func Load() ([]Sample, error) {
	var samples []Sample
	if err := json.Unmarshal(samplesData, &samples); err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return samples, nil
}
