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

package lineage

import "time"

// Config configures the retry policy of a RetryingTracker.
type Config struct {
	// RetryUnit scales the delay between attempts. Delays are drawn from
	// [2*RetryUnit, 10*RetryUnit].
	RetryUnit   time.Duration `env:"TRACKER_RETRY_UNIT, default=1s"`
	MaxAttempts uint64        `env:"TRACKER_MAX_ATTEMPTS, default=10"`
}
