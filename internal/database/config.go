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
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Config is the database connection configuration.
type Config struct {
	Name               string        `env:"DB_NAME"`
	User               string        `env:"DB_USER"`
	Host               string        `env:"DB_HOST,default=localhost"`
	Port               string        `env:"DB_PORT,default=5432"`
	SSLMode            string        `env:"DB_SSLMODE,default=require"`
	ConnectionTimeout  int           `env:"DB_CONNECT_TIMEOUT"`
	Password           string        `env:"DB_PASSWORD"`
	SSLCertPath        string        `env:"DB_SSLCERT"`
	SSLKeyPath         string        `env:"DB_SSLKEY"`
	SSLRootCertPath    string        `env:"DB_SSLROOTCERT"`
	PoolMinConnections string        `env:"DB_POOL_MIN_CONNS"`
	PoolMaxConnections string        `env:"DB_POOL_MAX_CONNS"`
	PoolMaxConnLife    time.Duration `env:"DB_POOL_MAX_CONN_LIFETIME,default=5m"`
	PoolMaxConnIdle    time.Duration `env:"DB_POOL_MAX_CONN_IDLE_TIME,default=1m"`
	PoolHealthCheck    time.Duration `env:"DB_POOL_HEALTH_CHECK_PERIOD,default=1m"`

	// RDSSecretARN names a Secrets Manager secret in the RDS JSON layout. When
	// set, its credentials override the fields above.
	RDSSecretARN string `env:"RDS_SECRET_ARN"`
}

// DatabaseConfig returns the configuration itself, satisfying
// setup.DatabaseConfigProvider.
func (c *Config) DatabaseConfig() *Config {
	return c
}

// Enabled reports whether enough is configured to connect to a database.
func (c *Config) Enabled() bool {
	return c != nil && (c.RDSSecretARN != "" || c.Name != "")
}

// ConnectionString builds a key=value connection string suitable for pgx.
func (c *Config) ConnectionString() string {
	if c == nil {
		return ""
	}

	vals := dbValues(c)
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := make([]string, 0, len(keys))
	for _, k := range keys {
		p = append(p, fmt.Sprintf("%s=%s", k, vals[k]))
	}
	return strings.Join(p, " ")
}

// ConnectionURL builds a postgres:// URL, used by golang-migrate.
func (c *Config) ConnectionURL() string {
	if c == nil {
		return ""
	}

	host := c.Host
	if v := c.Port; v != "" {
		host = host + ":" + v
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   c.Name,
	}

	if c.User != "" || c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := u.Query()
	if v := c.ConnectionTimeout; v > 0 {
		q.Add("connect_timeout", fmt.Sprintf("%d", v))
	}
	if v := c.SSLMode; v != "" {
		q.Add("sslmode", v)
	}
	if v := c.SSLCertPath; v != "" {
		q.Add("sslcert", v)
	}
	if v := c.SSLKeyPath; v != "" {
		q.Add("sslkey", v)
	}
	if v := c.SSLRootCertPath; v != "" {
		q.Add("sslrootcert", v)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// String returns the string representation of the database connection config.
// This omits the Password field to prevent accidental logging.
func (c *Config) String() string {
	pwSet := "<set>"
	if c.Password == "" {
		pwSet = "<not set>"
	}

	return fmt.Sprintf("{Name:%v User:%v Host:%v Port:%v SSLMode:%v Password:%v RDSSecretARN:%v}",
		c.Name, c.User, c.Host, c.Port, c.SSLMode, pwSet, c.RDSSecretARN)
}

func setIfNotEmpty(m map[string]string, key, val string) {
	if val != "" {
		m[key] = val
	}
}

func setIfPositive(m map[string]string, key string, val int) {
	if val > 0 {
		m[key] = fmt.Sprintf("%d", val)
	}
}

func setIfPositiveDuration(m map[string]string, key string, d time.Duration) {
	if d > 0 {
		m[key] = d.String()
	}
}

func dbValues(config *Config) map[string]string {
	p := map[string]string{}
	setIfNotEmpty(p, "dbname", config.Name)
	setIfNotEmpty(p, "user", config.User)
	setIfNotEmpty(p, "host", config.Host)
	setIfNotEmpty(p, "port", config.Port)
	setIfNotEmpty(p, "sslmode", config.SSLMode)
	setIfPositive(p, "connect_timeout", config.ConnectionTimeout)
	setIfNotEmpty(p, "password", config.Password)
	setIfNotEmpty(p, "sslcert", config.SSLCertPath)
	setIfNotEmpty(p, "sslkey", config.SSLKeyPath)
	setIfNotEmpty(p, "sslrootcert", config.SSLRootCertPath)
	setIfNotEmpty(p, "pool_min_conns", config.PoolMinConnections)
	setIfNotEmpty(p, "pool_max_conns", config.PoolMaxConnections)
	setIfPositiveDuration(p, "pool_max_conn_lifetime", config.PoolMaxConnLife)
	setIfPositiveDuration(p, "pool_max_conn_idle_time", config.PoolMaxConnIdle)
	setIfPositiveDuration(p, "pool_health_check_period", config.PoolHealthCheck)
	return p
}
