// Package sqlresolver implements a credential.Resolver backed by the IAM
// user and credential tables, generalizing the direct-database signing-key
// lookup in scratchstack-get-signing-key-direct into a pgx-backed Go
// resolver.
package sqlresolver

import "time"

// Config fixes the connection pool's tunables, mapstructure-tagged the way
// the teacher surfaces tunables on its own ServerConfig types.
type Config struct {
	// DSN is a libpq-style connection string or URL.
	DSN string `mapstructure:"dsn"`
	// Partition is the AWS partition principals resolved by this pool
	// belong to (e.g. "aws", "aws-cn").
	Partition string `mapstructure:"partition"`
	// MaxConns bounds the pool's open connection count.
	MaxConns int32 `mapstructure:"max-conns"`
	// MinConns is the pool's minimum idle connection count.
	MinConns int32 `mapstructure:"min-conns"`
	// MaxConnLifetime bounds how long a pooled connection may live.
	MaxConnLifetime time.Duration `mapstructure:"max-conn-lifetime"`
	// MaxConnIdleTime bounds how long a pooled connection may sit idle.
	MaxConnIdleTime time.Duration `mapstructure:"max-conn-idle-time"`
	// AcquireTimeout bounds how long Resolve's lookup may take, covering
	// both acquiring a connection from the pool and running the query,
	// since pgxpool has no first-class acquire-timeout field of its own.
	AcquireTimeout time.Duration `mapstructure:"acquire-timeout"`
}

const defaultAcquireTimeout = 5 * time.Second
