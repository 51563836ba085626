package repository

import (
	"TokenProvider/internal/model"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedisRepository(t *testing.T) *RedisTokenRepository {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewRedisTokenRepository(client, "1h")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	return repo
}

// 1
func TestRedisTokenRepository_BadRetention(t *testing.T) {
	_, err := NewRedisTokenRepository(nil, "one hour")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверный формат retention")
}

// 2
func TestRedisTokenRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	expiry := time.Now().Add(time.Hour)
	err := repo.SaveRefreshToken(ctx, &model.RefreshToken{
		Token:      "candidate-token",
		UserID:     "user-uuid",
		ExpiryDate: expiry,
	})
	assert.NoError(t, err)

	record, err := repo.FindByToken(ctx, "candidate-token")
	assert.NoError(t, err)
	assert.Equal(t, "user-uuid", record.UserID)
	assert.WithinDuration(t, expiry, record.ExpiryDate, time.Second)
	assert.Nil(t, record.SupersededBy)
}

// 3
func TestRedisTokenRepository_FindByToken_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	record, err := repo.FindByToken(ctx, "ghost-token")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

// 4
func TestRedisTokenRepository_RotateIfExpired_ValidCandidate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	err := repo.SaveRefreshToken(ctx, &model.RefreshToken{
		Token:      "candidate-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(time.Hour),
	})
	assert.NoError(t, err)

	replacement := &model.RefreshToken{
		Token:      "replacement-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(24 * time.Hour),
	}

	resolved, rotated, err := repo.RotateIfExpired(ctx, "candidate-token", replacement)

	assert.NoError(t, err)
	assert.False(t, rotated)
	assert.Equal(t, "candidate-token", resolved.Token)

	// невостребованная замена в хранилище не появляется
	ghost, err := repo.FindByToken(ctx, "replacement-token")
	assert.NoError(t, err)
	assert.Nil(t, ghost)
}

// 5
func TestRedisTokenRepository_RotateIfExpired_ExpiredCandidate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	// retention держит запись наблюдаемой после истечения expiry_date
	err := repo.SaveRefreshToken(ctx, &model.RefreshToken{
		Token:      "expired-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(-30 * time.Minute),
	})
	assert.NoError(t, err)

	replacement := &model.RefreshToken{
		Token:      "replacement-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(24 * time.Hour),
	}

	resolved, rotated, err := repo.RotateIfExpired(ctx, "expired-token", replacement)

	assert.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, "replacement-token", resolved.Token)

	oldRecord, err := repo.FindByToken(ctx, "expired-token")
	assert.NoError(t, err)
	assert.NotNil(t, oldRecord)
	assert.NotNil(t, oldRecord.SupersededBy)
	assert.Equal(t, "replacement-token", *oldRecord.SupersededBy)

	newRecord, err := repo.FindByToken(ctx, "replacement-token")
	assert.NoError(t, err)
	assert.Equal(t, "user-uuid", newRecord.UserID)
}

// 6
func TestRedisTokenRepository_RotateIfExpired_MissingCandidate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	replacement := &model.RefreshToken{
		Token:      "replacement-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(24 * time.Hour),
	}

	resolved, rotated, err := repo.RotateIfExpired(ctx, "ghost-token", replacement)

	assert.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, "replacement-token", resolved.Token)

	newRecord, err := repo.FindByToken(ctx, "replacement-token")
	assert.NoError(t, err)
	assert.NotNil(t, newRecord)
}

// 7
func TestRedisTokenRepository_RotateIfExpired_AlreadySuperseded(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepository(t)

	err := repo.SaveRefreshToken(ctx, &model.RefreshToken{
		Token:      "expired-token",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(-30 * time.Minute),
	})
	assert.NoError(t, err)

	firstReplacement := &model.RefreshToken{
		Token:      "first-replacement",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(24 * time.Hour),
	}
	_, rotated, err := repo.RotateIfExpired(ctx, "expired-token", firstReplacement)
	assert.NoError(t, err)
	assert.True(t, rotated)

	secondReplacement := &model.RefreshToken{
		Token:      "second-replacement",
		UserID:     "user-uuid",
		ExpiryDate: time.Now().Add(24 * time.Hour),
	}
	resolved, rotated, err := repo.RotateIfExpired(ctx, "expired-token", secondReplacement)

	assert.NoError(t, err)
	assert.True(t, rotated)
	// повторная ротация сходится на уже выпущенной замене
	assert.Equal(t, "first-replacement", resolved.Token)

	ghost, err := repo.FindByToken(ctx, "second-replacement")
	assert.NoError(t, err)
	assert.Nil(t, ghost)
}
