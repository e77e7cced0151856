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

// Package science parses science data filenames and derives the storage keys
// their products are filed under.
package science

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrInvalidFilename is returned when a filename does not follow the mission
// naming convention.
var ErrInvalidFilename = errors.New("invalid science filename")

// Raw and level 0 files carry either a day-of-year or a calendar timestamp.
// Higher levels always use the compact ISO form.
var timeLayouts = []string{
	"20060102T150405",
	"20060102-150405",
	"2006002-150405",
}

// ParsedFilename is the metadata encoded in a science filename.
type ParsedFilename struct {
	Mission    string
	Instrument string
	Mode       string
	Level      Level
	Time       time.Time
	Version    string
	Extension  string
}

// Parser parses filenames for a single mission.
type Parser struct {
	mission string
}

// NewParser creates a parser that accepts an optional leading mission token.
func NewParser(mission string) *Parser {
	return &Parser{mission: strings.ToLower(mission)}
}

// Parse parses the final path element of key. Any leading prefix through the
// last '/' is ignored.
func (p *Parser) Parse(key string) (*ParsedFilename, error) {
	name := Filename(key)
	if name == "" {
		return nil, fmt.Errorf("empty filename in %q: %w", key, ErrInvalidFilename)
	}

	ext := path.Ext(name)
	if ext == "" || ext == "." {
		return nil, fmt.Errorf("%q has no extension: %w", name, ErrInvalidFilename)
	}
	stem := strings.TrimSuffix(name, ext)

	tokens := strings.Split(stem, "_")
	parsed := &ParsedFilename{
		Extension: strings.TrimPrefix(ext, "."),
	}

	if p.mission != "" && len(tokens) > 0 && strings.ToLower(tokens[0]) == p.mission {
		parsed.Mission = p.mission
		tokens = tokens[1:]
	}

	// instrument [mode] level time version
	switch len(tokens) {
	case 4:
	case 5:
		parsed.Mode = strings.ToLower(tokens[1])
		tokens = append(tokens[:1], tokens[2:]...)
	default:
		return nil, fmt.Errorf("%q has %d fields: %w", name, len(tokens), ErrInvalidFilename)
	}

	parsed.Instrument = strings.ToLower(tokens[0])
	if parsed.Instrument == "" {
		return nil, fmt.Errorf("%q has no instrument: %w", name, ErrInvalidFilename)
	}

	level, err := ParseLevel(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	parsed.Level = level

	t, err := parseTime(tokens[2])
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	parsed.Time = t

	version := tokens[3]
	if len(version) < 2 || (version[0] != 'v' && version[0] != 'V') {
		return nil, fmt.Errorf("%q has malformed version %q: %w", name, version, ErrInvalidFilename)
	}
	parsed.Version = version[1:]

	return parsed, nil
}

// Filename returns the portion of key after the last '/'.
func Filename(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", s, ErrInvalidFilename)
}
