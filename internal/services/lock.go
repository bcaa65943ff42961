package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/utils"
)

// LearnerLock is the advisory per-learner lock guarding content batch
// generation: two rapid prepare/complete calls for the same learner must
// not both generate a batch. When redis is unavailable the caller falls
// back to transaction-level protection only.
type LearnerLock interface {
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), acquired bool, err error)
}

type redisLearnerLock struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLearnerLock(log *logger.Logger) (LearnerLock, error) {
	lockLog := log.With("service", "LearnerLock")
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	ttlSec := utils.GetEnvAsInt("LEARNER_LOCK_TTL_SECONDS", 30, log)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &redisLearnerLock{
		log:    lockLog,
		client: client,
		ttl:    time.Duration(ttlSec) * time.Second,
	}, nil
}

func (l *redisLearnerLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), bool, error) {
	key := fmt.Sprintf("lock:content:%s", userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// only delete our own token; an expired lock may have been re-acquired
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		if err := l.client.Eval(context.Background(), script, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release learner lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}

// noopLearnerLock always acquires; used when redis is not configured.
type noopLearnerLock struct{}

func NewNoopLearnerLock() LearnerLock { return noopLearnerLock{} }

func (noopLearnerLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), bool, error) {
	return func() {}, true, nil
}
