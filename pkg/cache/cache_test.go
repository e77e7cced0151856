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

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
)

func TestNew_Negative(t *testing.T) {
	t.Parallel()

	_, err := New[string](-1)
	errcmp.MustBe(t, err, ErrInvalidDuration)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	duration := 50 * time.Millisecond
	c, err := New[int](duration)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("foo", 42)
	if got, hit := c.Lookup("foo"); !hit || got != 42 {
		t.Fatalf("expected hit with 42, got %v %t", got, hit)
	}

	time.Sleep(2 * duration)
	if _, hit := c.Lookup("foo"); hit {
		t.Fatalf("expected key to expire")
	}

	if _, hit := c.Lookup("bar"); hit {
		t.Fatalf("got key that was never inserted")
	}

	c.Clear()
	if got := c.Size(); got != 0 {
		t.Errorf("expected %d to be 0", got)
	}
}

func TestCache_WriteThruLookup(t *testing.T) {
	t.Parallel()

	c, err := New[string](time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	lookup := func() (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.WriteThruLookup("k", lookup)
		if err != nil {
			t.Fatal(err)
		}
		if got != "value" {
			t.Errorf("expected %q to be %q", got, "value")
		}
	}
	if calls != 1 {
		t.Errorf("expected lookup to be called once, got %d", calls)
	}

	failure := errors.New("boom")
	_, err = c.WriteThruLookup("other", func() (string, error) { return "", failure })
	errcmp.MustBe(t, err, failure)
	if _, hit := c.Lookup("other"); hit {
		t.Errorf("expected failed lookup to not be cached")
	}
}

func TestCache_WriteThruLookup_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := New[string](time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var calls int32
	release := make(chan struct{})
	lookup := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := c.WriteThruLookup("k", lookup); err != nil || got != "value" {
				t.Errorf("expected value, got %q %v", got, err)
			}
		}()
	}

	// A lookup for a different key is not blocked by the pending one.
	if got, err := c.WriteThruLookup("other", func() (string, error) { return "fast", nil }); err != nil || got != "fast" {
		t.Errorf("expected fast, got %q %v", got, err)
	}

	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got < 1 || got > 10 {
		t.Errorf("unexpected lookup count %d", got)
	}
	if got, hit := c.Lookup("k"); !hit || got != "value" {
		t.Errorf("expected cached value, got %q %t", got, hit)
	}
}
