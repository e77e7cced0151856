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

package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/ory/dockertest"
	"github.com/sethvargo/go-retry"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/project"

	// imported to register the postgres migration driver
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// imported to register the "file" source migration driver
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultPostgresImageRef = "postgres:13-alpine"

// NewTestDatabaseWithConfig creates a new migrated database in a Docker
// container, suitable for use in testing. It is exposed in the main package so
// it can be shared with other packages.
//
// All database tests can be skipped by running `go test -short` or by setting
// the `SKIP_DATABASE_TESTS` environment variable. They are also skipped when
// no Docker daemon is reachable.
func NewTestDatabaseWithConfig(tb testing.TB) (*DB, *Config) {
	tb.Helper()

	if testing.Short() {
		tb.Skipf("🚧 Skipping database tests (-short flag provided)!")
	}

	if skip, _ := strconv.ParseBool(os.Getenv("SKIP_DATABASE_TESTS")); skip {
		tb.Skipf("🚧 Skipping database tests (SKIP_DATABASE_TESTS is set)!")
	}

	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	if err != nil {
		tb.Skipf("🚧 Skipping database tests (no docker: %s)!", err)
	}
	if err := pool.Client.Ping(); err != nil {
		tb.Skipf("🚧 Skipping database tests (docker unreachable: %s)!", err)
	}

	repo, tag := postgresRepo(tb)

	dbname, username, password := "sdc", "sdc-test", "abcd1234"
	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: repo,
		Tag:        tag,
		Env: []string{
			"LANG=C",
			"POSTGRES_DB=" + dbname,
			"POSTGRES_USER=" + username,
			"POSTGRES_PASSWORD=" + password,
		},
	})
	if err != nil {
		tb.Fatalf("failed to start postgres container: %s", err)
	}

	// Force the database container to stop.
	if err := container.Expire(120); err != nil {
		tb.Fatalf("failed to force-stop container: %v", err)
	}

	tb.Cleanup(func() {
		if err := pool.Purge(container); err != nil {
			tb.Errorf("failed to cleanup postgres container: %s", err)
		}
	})

	// On Mac, Docker runs in a VM.
	host := container.Container.NetworkSettings.IPAddress
	port := "5432"
	if runtime.GOOS == "darwin" {
		host, port = container.GetBoundIP("5432/tcp"), container.GetPort("5432/tcp")
	}

	connURL := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(username, password),
		Host:   net.JoinHostPort(host, port),
		Path:   dbname,
	}
	q := connURL.Query()
	q.Add("sslmode", "disable")
	connURL.RawQuery = q.Encode()

	b := retry.WithMaxRetries(30, retry.NewConstant(1*time.Second))

	var dbpool *pgxpool.Pool
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		dbpool, err = pgxpool.Connect(ctx, connURL.String())
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := dbpool.Ping(ctx); err != nil {
			dbpool.Close()
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		tb.Fatalf("failed to start postgres: %s", err)
	}

	if err := dbMigrate(connURL.String()); err != nil {
		tb.Fatalf("failed to migrate database: %s", err)
	}

	db := &DB{Pool: dbpool}
	tb.Cleanup(func() {
		db.Close(context.Background())
	})

	return db, &Config{
		Name:     dbname,
		User:     username,
		Host:     host,
		Port:     port,
		SSLMode:  "disable",
		Password: password,
	}
}

// NewTestDatabase is NewTestDatabaseWithConfig without the configuration.
func NewTestDatabase(tb testing.TB) *DB {
	tb.Helper()

	db, _ := NewTestDatabaseWithConfig(tb)
	return db
}

// dbMigrate runs the migrations. u is the connection URL string (e.g.
// postgres://...).
func dbMigrate(u string) error {
	m, err := migrate.New("file://"+project.Root("migrations"), u)
	if err != nil {
		return fmt.Errorf("failed create migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed run migrate: %w", err)
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return fmt.Errorf("migrate source error: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migrate database error: %w", dbErr)
	}
	return nil
}

// postgresRepo returns the postgres container image name based on an
// environment variable, or the default value if the environment variable is
// unset.
func postgresRepo(tb testing.TB) (string, string) {
	ref := os.Getenv("CI_POSTGRES_IMAGE")
	if ref == "" {
		ref = defaultPostgresImageRef
	}

	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 {
		tb.Fatalf("invalid reference for database container: %q", ref)
	}
	return parts[0], parts[1]
}
