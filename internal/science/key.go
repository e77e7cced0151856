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
	"time"
)

// DestinationKey returns the key a product is filed under:
// {level}/{year}/{month}/{filename}. The date is the processing date, not the
// observation date embedded in the filename.
func DestinationKey(parsed *ParsedFilename, filename string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s/%d/%02d/%s", parsed.Level, now.Year(), int(now.Month()), filename)
}
