package revocation

import (
	"context"
	"time"
)

// KV is the minimal key-value surface the store needs. Redis in production,
// an in-memory fake in tests. Writes must be atomic so multiple server
// instances can share one store.
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

type Store struct {
	kv     KV
	prefix string
}

func NewStore(kv KV, prefix string) *Store {
	if prefix == "" {
		prefix = "revoked:jti:"
	}
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) key(jti string) string { return s.prefix + jti }

// Blacklist marks a refresh token id revoked until exp. Entries expire with
// the token itself, so no manual cleanup is needed. Idempotent: SetNX on an
// existing key is a no-op.
func (s *Store) Blacklist(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err := s.kv.SetNX(ctx, s.key(jti), []byte("1"), ttl)
	return err
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.kv.Exists(ctx, s.key(jti))
}
