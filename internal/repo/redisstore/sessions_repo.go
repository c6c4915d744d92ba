package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/marathonreg/internal/form"
)

const keyPrefix = "marathon:session:"

// SessionsRepo stores each session as a JSON value with an idle TTL.
type SessionsRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionsRepo(rdb *redis.Client, ttl time.Duration) *SessionsRepo {
	if ttl <= 0 {
		ttl = form.DefaultSessionTTL
	}
	return &SessionsRepo{rdb: rdb, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *SessionsRepo) Create(ctx context.Context, s form.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := r.rdb.Set(ctx, key(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (form.Session, error) {
	raw, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return form.Session{}, form.ErrSessionNotFound
		}
		return form.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var s form.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return form.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Save overwrites an existing session and refreshes its TTL.
func (r *SessionsRepo) Save(ctx context.Context, s form.Session) error {
	s.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = r.rdb.SetArgs(ctx, key(s.ID), raw, redis.SetArgs{Mode: "XX", TTL: r.ttl}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return form.ErrSessionNotFound
		}
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if n == 0 {
		return form.ErrSessionNotFound
	}
	return nil
}

func (r *SessionsRepo) Ping(ctx context.Context) error {
	return Ping(ctx, r.rdb)
}
