// Copyright 2023 the SDC AWS Processing Lambda authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package science

import (
	"fmt"
	"strings"
)

// Level is the ordinal processing stage of a science data product.
type Level int

// Levels are ordered. Comparing two levels with < yields pipeline order.
const (
	LevelRaw Level = iota
	Level0
	Level1
	LevelQuicklook
	Level2
	Level3
	Level4
)

var levelNames = []string{"raw", "l0", "l1", "ql", "l2", "l3", "l4"}

// String returns the token used for the level in filenames and keys.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts a filename token into a Level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown level %q: %w", s, ErrInvalidFilename)
}
