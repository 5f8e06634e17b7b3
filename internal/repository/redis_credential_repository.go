package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/devhub/devhub-api/internal/domain"
)

const (
	redisTokenPrefix = "cred:token:"
	redisExpiryIndex = "cred:expiry"
)

type redisCredential struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type redisCredentialRepository struct {
	client redis.UniversalClient
}

// NewRedisCredentialRepository stores each credential under its own key with a
// TTL and indexes tokens by expiry in a sorted set for range sweeps.
func NewRedisCredentialRepository(client redis.UniversalClient) CredentialRepository {
	return &redisCredentialRepository{client: client}
}

func (r *redisCredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	ttl := cred.ExpiresAt.Sub(cred.IssuedAt)
	if ttl <= 0 {
		return errors.New("credential expires before it is issued")
	}
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}

	payload, err := json.Marshal(redisCredential{
		ID:        cred.ID,
		SubjectID: cred.SubjectID,
		IssuedAt:  cred.IssuedAt,
		ExpiresAt: cred.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	created, err := r.client.SetNX(ctx, redisTokenPrefix+cred.Token, payload, ttl).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicateToken
	}

	score := float64(cred.ExpiresAt.UnixMilli())
	if err := r.client.ZAdd(ctx, redisExpiryIndex, redis.Z{Score: score, Member: cred.Token}).Err(); err != nil {
		// without an index entry the record could never be swept
		_ = r.client.Del(context.WithoutCancel(ctx), redisTokenPrefix+cred.Token).Err()
		return err
	}
	return nil
}

func (r *redisCredentialRepository) Exists(ctx context.Context, token string, now time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, redisTokenPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var stored redisCredential
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false, fmt.Errorf("decode credential: %w", err)
	}
	return stored.ExpiresAt.After(now), nil
}

func (r *redisCredentialRepository) Delete(ctx context.Context, token string) (bool, error) {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisTokenPrefix+token)
		pipe.ZRem(ctx, redisExpiryIndex, token)
		return nil
	})
	if err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

func (r *redisCredentialRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tokens, err := r.client.ZRangeByScore(ctx, redisExpiryIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, len(tokens))
	members := make([]any, len(tokens))
	for i, token := range tokens {
		keys[i] = redisTokenPrefix + token
		members[i] = token
	}

	// count index removals: redis may already have evicted the keys themselves
	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		removed = pipe.ZRem(ctx, redisExpiryIndex, members...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed.Val(), nil
}
