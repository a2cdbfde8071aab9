// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"regexp"
	"strings"
)

var (
	// A key after { or , with a missing or absent opening or closing quote.
	looseKey      = regexp.MustCompile(`([{,]\s*)"?([A-Za-z_][A-Za-z0-9_]*)"?\s*:`)
	trailingComma = regexp.MustCompile(`,\s*}`)
)

// repairJSON cleans up a model response that should hold a single JSON object:
// code fences are removed, keys are quoted and trailing commas dropped.
func repairJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}

	s = looseKey.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, "}")
}
