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
	"testing"
	"time"
)

func TestDestinationKey(t *testing.T) {
	t.Parallel()

	parser := NewParser("hermes")

	cases := []struct {
		name     string
		filename string
		now      time.Time
		want     string
	}{
		{
			name:     "single_digit_month",
			filename: "INSTR_l1_20230101T000000_v1.0.0.cdf",
			now:      time.Date(2023, 1, 15, 3, 0, 0, 0, time.UTC),
			want:     "l1/2023/01/INSTR_l1_20230101T000000_v1.0.0.cdf",
		},
		{
			name:     "double_digit_month",
			filename: "hermes_eea_ql_20210101T000000_v0.1.0.cdf",
			now:      time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC),
			want:     "ql/2024/11/hermes_eea_ql_20210101T000000_v0.1.0.cdf",
		},
		{
			// The processing date wins over the observation date.
			name:     "processing_date",
			filename: "hermes_merit_l2_19991231T235959_v2.0.0.cdf",
			now:      time.Date(2023, 6, 30, 23, 0, 0, 0, time.FixedZone("X", -5*3600)),
			want:     "l2/2023/07/hermes_merit_l2_19991231T235959_v2.0.0.cdf",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := parser.Parse(tc.filename)
			if err != nil {
				t.Fatal(err)
			}
			if got := DestinationKey(parsed, tc.filename, tc.now); got != tc.want {
				t.Errorf("expected %q to be %q", got, tc.want)
			}
		})
	}
}
