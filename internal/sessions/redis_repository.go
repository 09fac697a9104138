package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository on Redis for multi-instance
// deployments. Sessions are stored as JSON under "<prefix><jti>" with TTL up
// to their expiry, and a per-family set "<prefix>family:<familyId>" holds the
// member jtis so RevokeFamily can reach every descendant. Revoked rows stay
// stored until their natural expiry because reuse detection depends on
// finding them.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-backed session repository. Prefix may be
// empty and defaults to "refresh:".
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "refresh:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(jti string) string {
	return r.prefix + jti
}

func (r *RedisRepository) familyKey(familyID string) string {
	return r.prefix + "family:" + familyID
}

func (r *RedisRepository) Create(ctx context.Context, s *RefreshSession) error {
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	ttl := time.Until(cp.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(cp.JTI), b, ttl)
		pipe.SAdd(ctx, r.familyKey(cp.FamilyID), cp.JTI)
		// Family index lives at least as long as its newest member.
		pipe.Expire(ctx, r.familyKey(cp.FamilyID), ttl)
		return nil
	})
	return err
}

func (r *RedisRepository) GetByJTI(ctx context.Context, jti string) (*RefreshSession, error) {
	b, err := r.client.Get(ctx, r.key(jti)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s RefreshSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) MarkRotated(ctx context.Context, jti, replacedByJTI string) (bool, error) {
	rotated := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, r.key(jti)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil
			}
			return err
		}
		var s RefreshSession
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s.RevokedAt != nil {
			return nil
		}
		now := time.Now().UTC()
		s.RevokedAt = &now
		s.RevokedReason = ReasonRotated
		s.ReplacedByJTI = replacedByJTI
		out, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(jti), out, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		rotated = true
		return nil
	}, r.key(jti))
	if err == redis.TxFailedErr {
		// Lost the race to a concurrent writer: the row is no longer live.
		return false, nil
	}
	return rotated, err
}

func (r *RedisRepository) Revoke(ctx context.Context, jti string, reason RevokeReason) error {
	return r.revokeOne(ctx, jti, reason)
}

func (r *RedisRepository) RevokeFamily(ctx context.Context, familyID string, reason RevokeReason) error {
	members, err := r.client.SMembers(ctx, r.familyKey(familyID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}
	for _, jti := range members {
		if err := r.revokeOne(ctx, jti, reason); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisRepository) revokeOne(ctx context.Context, jti string, reason RevokeReason) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, r.key(jti)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil
			}
			return err
		}
		var s RefreshSession
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s.RevokedAt != nil {
			return nil
		}
		now := time.Now().UTC()
		s.RevokedAt = &now
		s.RevokedReason = reason
		out, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(jti), out, redis.KeepTTL)
			return nil
		})
		return err
	}, r.key(jti))
	if err == redis.TxFailedErr {
		return nil
	}
	return err
}
