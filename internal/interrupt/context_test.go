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

package interrupt

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWrappedContext(t *testing.T) {
	t.Parallel()

	ctx, done := WrappedContext(context.Background(), syscall.SIGUSR1)
	defer done()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("expected context to be cancelled by the signal")
	}
}

func TestWrappedContext_Cancel(t *testing.T) {
	t.Parallel()

	ctx, done := WrappedContext(context.Background(), syscall.SIGUSR2)
	done()

	if err := ctx.Err(); err == nil {
		t.Error("expected context to be cancelled")
	}
}
