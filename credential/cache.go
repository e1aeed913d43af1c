package credential

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dioad/sigv4/sigv4"
)

// cacheKey identifies one resolved signing key: the access key plus every
// component of the credential scope it was derived for. Two requests for
// the same access key but different regions or dates never share an entry.
type cacheKey struct {
	accessKeyID string
	partition   string
	region      string
	service     string
	date        string // YYYYMMDD, the scope's date component
}

type cacheEntry struct {
	credential sigv4.Credential
	expiresAt  time.Time
}

// Cache wraps a Resolver with a bounded, size-limited cache of resolved
// signing keys. Entries expire, by the wall clock, at the UTC midnight that
// ends the request date they were resolved for, since an AWS4 signing key
// is only valid for the UTC calendar day
// baked into its derivation; a cached key is never used across a day
// rollover even if it is still in the LRU.
type Cache struct {
	resolver Resolver
	lru      *lru.Cache[cacheKey, cacheEntry]
	mu       sync.Mutex
	partition string
}

// NewCache wraps resolver with an LRU cache holding up to size entries.
// partition is the AWS partition ("aws", "aws-cn", ...) used as part of the
// cache key; the resolver itself decides what partition a principal
// belongs to, so this is purely a key-disambiguation knob.
func NewCache(resolver Resolver, size int, partition string) (*Cache, error) {
	l, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{resolver: resolver, lru: l, partition: partition}, nil
}

// Resolve implements sigv4.CredentialResolver, serving from cache when a
// live, same-day entry exists and delegating to the wrapped resolver
// otherwise.
func (c *Cache) Resolve(ctx context.Context, req sigv4.CredentialRequest) (sigv4.Credential, error) {
	key := cacheKey{
		accessKeyID: req.AccessKeyID,
		partition:   c.partition,
		region:      req.Region,
		service:     req.Service,
		date:        req.Date.UTC().Format("20060102"),
	}

	c.mu.Lock()
	if entry, ok := c.lru.Get(key); ok {
		c.mu.Unlock()
		if time.Now().UTC().Before(entry.expiresAt) {
			return entry.credential, nil
		}
	} else {
		c.mu.Unlock()
	}

	cred, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return sigv4.Credential{}, err
	}

	c.mu.Lock()
	c.lru.Add(key, cacheEntry{credential: cred, expiresAt: nextUTCMidnight(req.Date)})
	c.mu.Unlock()

	return cred, nil
}

// nextUTCMidnight returns the UTC instant at which a signing key derived
// for t's calendar day stops being valid.
func nextUTCMidnight(t time.Time) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
