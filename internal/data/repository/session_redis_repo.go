package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
	sessionRetention     = 7 * 24 * time.Hour
)

// revokeScript sets revoked_at once, only on a session that exists. The
// revoked entry is kept for sessionRetention and leaves its user's index.
// Returns 1 when this call revoked the session.
var revokeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 or redis.call("HEXISTS", KEYS[1], "revoked_at") == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "revoked_at", ARGV[1])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
local user = redis.call("HGET", KEYS[1], "user_id")
if user then
  redis.call("SREM", ARGV[3] .. user, ARGV[4])
end
return 1
`)

type redisSessionRepository struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisSessionRepository keeps the Token Ledger in Redis so several
// instances share revocations. Expired and revoked entries are evicted by
// key TTL.
func NewRedisSessionRepository(addr, password string, db int, log *zap.Logger) (SessionRepository, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return &redisSessionRepository{
		client: client,
		log:    log.With(zap.String("repository", "session_redis")),
	}, nil
}

func sessionKey(tokenHash string) string { return sessionKeyPrefix + tokenHash }

func userSessionsKey(userID uuid.UUID) string { return userSessionKeyPrefix + userID.String() }

func (r *redisSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	key := sessionKey(session.TokenHash)
	fields := map[string]any{
		"id":         session.ID.String(),
		"user_id":    session.UserID.String(),
		"created_at": strconv.FormatInt(session.CreatedAt.UnixNano(), 10),
	}
	if session.ExpiresAt != nil {
		fields["expires_at"] = strconv.FormatInt(session.ExpiresAt.UnixNano(), 10)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if session.ExpiresAt != nil {
		pipe.ExpireAt(ctx, key, session.ExpiresAt.Add(sessionRetention))
	}
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.TokenHash)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *redisSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	values, err := r.client.HGetAll(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		r.log.Error("Failed to find session", zap.Error(err))
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	return decodeRedisSession(tokenHash, values)
}

func decodeRedisSession(tokenHash string, values map[string]string) (*entity.Session, error) {
	id, err := uuid.Parse(values["id"])
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	userID, err := uuid.Parse(values["user_id"])
	if err != nil {
		return nil, fmt.Errorf("decode session user id: %w", err)
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{ID: id},
		UserID:     userID,
		TokenHash:  tokenHash,
	}

	if session.CreatedAt, err = decodeUnixNano(values["created_at"]); err != nil {
		return nil, err
	}
	if raw, ok := values["expires_at"]; ok {
		at, err := decodeUnixNano(raw)
		if err != nil {
			return nil, err
		}
		session.ExpiresAt = &at
	}
	if raw, ok := values["revoked_at"]; ok {
		at, err := decodeUnixNano(raw)
		if err != nil {
			return nil, err
		}
		session.RevokedAt = &at
	}

	return session, nil
}

func decodeUnixNano(raw string) (time.Time, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode session timestamp %q: %w", raw, err)
	}
	return time.Unix(0, n), nil
}

func (r *redisSessionRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	revoked, err := revokeScript.Run(ctx, r.client,
		[]string{sessionKey(tokenHash)},
		now, sessionRetention.Milliseconds(), userSessionKeyPrefix, tokenHash,
	).Int()
	if err != nil {
		r.log.Error("Failed to revoke session", zap.Error(err))
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	return revoked == 1, nil
}

func (r *redisSessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	hashes, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		r.log.Error("Failed to list user sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	live := 0
	for _, hash := range hashes {
		session, err := r.FindByTokenHash(ctx, hash)
		if err != nil {
			return live, err
		}
		revoked, err := r.Revoke(ctx, hash)
		if err != nil {
			return live, err
		}
		if revoked && session != nil && session.IsValid(time.Now()) {
			live++
		}
	}

	return live, nil
}

// CleanExpiredSessions drops index entries whose session key has already
// been evicted by its TTL.
func (r *redisSessionRepository) CleanExpiredSessions(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, userSessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		hashes, err := r.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return fmt.Errorf("failed to clean sessions: %w", err)
		}

		for _, hash := range hashes {
			exists, err := r.client.Exists(ctx, sessionKey(hash)).Result()
			if err != nil {
				return fmt.Errorf("failed to clean sessions: %w", err)
			}
			if exists == 0 {
				if err := r.client.SRem(ctx, setKey, hash).Err(); err != nil {
					return fmt.Errorf("failed to clean sessions: %w", err)
				}
			}
		}
	}

	if err := iter.Err(); err != nil {
		r.log.Error("Failed to clean expired sessions", zap.Error(err))
		return fmt.Errorf("failed to clean sessions: %w", err)
	}
	return nil
}
