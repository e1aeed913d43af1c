package sqlresolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dioad/sigv4/credential"
	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4err"
)

// Resolver satisfies sigv4.CredentialResolver against the iam_user /
// iam_user_credential tables, the Go equivalent of
// GetSigningKeyFromDatabase in scratchstack-get-signing-key-direct.
type Resolver struct {
	pool      *pgxpool.Pool
	partition string
	acquireTimeout time.Duration
}

// New opens a connection pool per cfg and returns a Resolver backed by it.
func New(ctx context.Context, cfg Config) (*Resolver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlresolver: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("sqlresolver: open pool: %w", err)
	}

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout == 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	partition := cfg.Partition
	if partition == "" {
		partition = "aws"
	}

	return &Resolver{pool: pool, partition: partition, acquireTimeout: acquireTimeout}, nil
}

// Close releases the underlying pool.
func (r *Resolver) Close() {
	r.pool.Close()
}

const lookupQuery = `
SELECT u.user_id, u.account_id, u.path, u.user_name_cased, c.secret_key
FROM iam.iam_user_credential c
JOIN iam.iam_user u ON u.user_id = c.user_id
WHERE c.access_key_id = $1 AND c.active = true
`

// Resolve implements sigv4.CredentialResolver by looking up the access
// key's IAM user row and deriving the AWS4 signing key from its secret.
func (r *Resolver) Resolve(ctx context.Context, req sigv4.CredentialRequest) (sigv4.Credential, error) {
	if err := credential.CheckAccessKeyShape(req.AccessKeyID); err != nil {
		return sigv4.Credential{}, err
	}

	// Access keys are stored without their type prefix, mirroring
	// access_key[4..] in the original lookup.
	suffix := req.AccessKeyID[4:]

	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	var userID, accountID, path, userName, secretKey string
	err := r.pool.QueryRow(acquireCtx, lookupQuery, suffix).Scan(&userID, &accountID, &path, &userName, &secretKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return sigv4.Credential{}, sigv4err.New(sigv4err.UnknownAccessKey, "no such access key")
	}
	if err != nil {
		return sigv4.Credential{}, sigv4err.Wrap(sigv4err.IO, err)
	}

	resource := strings.TrimPrefix(path, "/") + userName
	identity, err := sigv4.ParseARN(fmt.Sprintf("arn:%s:iam::%s:user/%s", r.partition, accountID, resource))
	if err != nil {
		return sigv4.Credential{}, sigv4err.Wrap(sigv4err.InternalServiceError, err)
	}

	principal := sigv4.Principal{
		AccessKeyID: req.AccessKeyID,
		Identities:  []sigv4.Identity{identity},
	}

	sessionData := credential.StandardSessionData(identity, userName, credential.PrincipalTypeUser, req.Region, false)

	return sigv4.Credential{
		Principal:   principal,
		SessionData: sessionData,
		SigningKey:  sigv4.DeriveSigningKey(secretKey, req.Date, req.Region, req.Service),
	}, nil
}
