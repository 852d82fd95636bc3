package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records tokens revoked before they expire. The identity
// provider writes to it on logout and password change; the API reads it
// after a token verifies.
type RevocationStore interface {
	// RevokeToken revokes a single token by JWT ID until ttl elapses
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	// RevokeUser revokes every token issued to userID up to now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	// Revoked reports whether jti is revoked or the user was revoked at or
	// after issuedAt
	Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)
}

// CheckRevoked returns ErrTokenRevoked for a revoked token. A nil store
// accepts everything.
func CheckRevoked(ctx context.Context, store RevocationStore, claims *Claims) error {
	if store == nil {
		return nil
	}
	revoked, err := store.Revoked(ctx, claims.ID, claims.UserID, claims.GetIssuedAtTime())
	switch {
	case err != nil:
		return err
	case revoked:
		return ErrTokenRevoked
	}
	return nil
}

const revocationKeyPrefix = "agency:token:revoked:"

// RedisRevocationStore shares revocations between instances. A check costs
// one pipelined round trip.
type RedisRevocationStore struct {
	client redis.Cmdable
}

func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func tokenKey(jti string) string   { return revocationKeyPrefix + "jti:" + jti }
func userKey(userID string) string { return revocationKeyPrefix + "user:" + userID }

func (s *RedisRevocationStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeUser stores the revocation time in unix seconds
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	var token *redis.IntCmd
	var user *redis.StringCmd
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		if jti != "" {
			token = p.Exists(ctx, tokenKey(jti))
		}
		user = p.Get(ctx, userKey(userID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if token != nil && token.Val() > 0 {
		return true, nil
	}

	raw, err := user.Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed user revocation %q: %w", raw, err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

type revocation struct {
	at      time.Time
	expires time.Time
}

// InMemoryRevocationStore keeps revocations in process memory for
// single-instance deployments without Redis. Expired entries are dropped
// when read.
type InMemoryRevocationStore struct {
	mu     sync.Mutex
	tokens map[string]revocation
	users  map[string]revocation
	now    func() time.Time
}

func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{
		tokens: make(map[string]revocation),
		users:  make(map[string]revocation),
		now:    time.Now,
	}
}

func (s *InMemoryRevocationStore) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	s.put(s.tokens, jti, ttl)
	return nil
}

func (s *InMemoryRevocationStore) RevokeUser(_ context.Context, userID string, ttl time.Duration) error {
	s.put(s.users, userID, ttl)
	return nil
}

func (s *InMemoryRevocationStore) put(m map[string]revocation, key string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	m[key] = revocation{at: now, expires: now.Add(ttl)}
}

func (s *InMemoryRevocationStore) Revoked(_ context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(s.tokens, jti); ok && jti != "" {
		return true, nil
	}
	if r, ok := s.live(s.users, userID); ok {
		return !issuedAt.After(r.at), nil
	}
	return false, nil
}

// live returns the entry for key unless it has expired. Callers hold mu.
func (s *InMemoryRevocationStore) live(m map[string]revocation, key string) (revocation, bool) {
	r, ok := m[key]
	if !ok {
		return revocation{}, false
	}
	if s.now().After(r.expires) {
		delete(m, key)
		return revocation{}, false
	}
	return r, true
}

var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ RevocationStore = (*InMemoryRevocationStore)(nil)
)
