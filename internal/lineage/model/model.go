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

// Package model defines the lineage records kept for every science file the
// pipeline touches.
package model

import (
	"time"
)

// StatusCode is the outcome of one processing attempt.
type StatusCode string

const (
	// StatusSuccess means the file was calibrated and its products produced.
	StatusSuccess StatusCode = "SUCCESS"
	// StatusPending means the file was produced but needs a further
	// calibration stage.
	StatusPending StatusCode = "PENDING"
	// StatusFailed means the attempt produced nothing.
	StatusFailed StatusCode = "FAILED"
)

// Terminal reports whether no further processing is expected for an attempt
// with this status.
func (c StatusCode) Terminal() bool {
	return c == StatusSuccess || c == StatusFailed
}

// Status is an immutable record of one processing attempt.
type Status struct {
	code           StatusCode
	message        string
	processingTime time.Duration
	hasTime        bool
	origins        []int64
}

// StatusOption configures optional Status fields.
type StatusOption func(*Status)

// WithProcessingTime records the elapsed calibration time.
func WithProcessingTime(d time.Duration) StatusOption {
	return func(s *Status) {
		s.processingTime = d
		s.hasTime = true
	}
}

// WithOrigins records the lineage ids of the files that produced this one.
func WithOrigins(ids ...int64) StatusOption {
	return func(s *Status) {
		s.origins = append(s.origins, ids...)
	}
}

// NewStatus builds a Status.
func NewStatus(code StatusCode, message string, opts ...StatusOption) *Status {
	s := &Status{
		code:    code,
		message: message,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Status) Code() StatusCode { return s.code }
func (s *Status) Message() string  { return s.message }

// ProcessingTime returns the elapsed calibration time, if one was recorded.
func (s *Status) ProcessingTime() (time.Duration, bool) {
	return s.processingTime, s.hasTime
}

// OriginFileIDs returns a copy of the origin lineage ids.
func (s *Status) OriginFileIDs() []int64 {
	if len(s.origins) == 0 {
		return nil
	}
	return append([]int64(nil), s.origins...)
}

// Product identifies a science data product independent of where its files
// are stored.
type Product struct {
	ID         int64
	Instrument string
	Mode       string
	Level      string
	Version    string
	ObservedAt time.Time
}

// LineageRecord is one physical file at a point in the pipeline, as written
// to the store.
type LineageRecord struct {
	Product  Product
	Bucket   string
	Key      string
	Filename string

	// Status is optional.
	Status *Status

	// OriginFileIDs are the files this one was derived from.
	OriginFileIDs []int64
}

// File is a stored lineage record.
type File struct {
	ID        int64
	ProductID int64
	Bucket    string
	Key       string
	Filename  string
	CreatedAt time.Time
}

// StatusRecord is a stored status.
type StatusRecord struct {
	ID               int64
	FileID           int64
	Code             StatusCode
	Message          string
	ProcessingTimeMs *int64
	CreatedAt        time.Time
}

// FailedFile is a file whose most recent status is FAILED.
type FailedFile struct {
	FileID        int64
	StatusID      int64
	Bucket        string
	Key           string
	OriginFileIDs []int64
}
