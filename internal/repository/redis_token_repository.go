package repository

import (
	"TokenProvider/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRetention = 720 * time.Hour

const rotateRetries = 5

type RedisTokenRepository struct {
	redis *redis.Client
	// retention — сколько запись живет после истечения expiry_date,
	// чтобы просроченный кандидат оставался наблюдаемым в хранилище
	retention time.Duration
}

func NewRedisTokenRepository(redisClient *redis.Client, retention string) (*RedisTokenRepository, error) {
	repository := &RedisTokenRepository{
		redis:     redisClient,
		retention: defaultRetention,
	}

	if retention != "" {
		parsed, err := time.ParseDuration(retention)
		if err != nil {
			return nil, fmt.Errorf("неверный формат retention: %w", err)
		}
		repository.retention = parsed
	}

	return repository, nil
}

func refreshTokenKey(token string) string {
	return fmt.Sprintf("refresh:%s", token)
}

func (repository *RedisTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	value, err := repository.redis.Get(ctx, refreshTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска refresh токена: %w", err)
	}

	var record model.RefreshToken
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("ошибка чтения записи refresh токена: %w", err)
	}

	return &record, nil
}

func (repository *RedisTokenRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("ошибка преобразования в json: %w", err)
	}

	ttl := time.Until(token.ExpiryDate) + repository.retention
	if err := repository.redis.Set(ctx, refreshTokenKey(token.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}

	return nil
}

// RotateIfExpired повторяет семантику SQL-реализации поверх WATCH:
// решение по кандидату и запись замены выполняются одной транзакцией,
// проигравший CAS запрос перечитывает ключ и сходится на чужой замене.
func (repository *RedisTokenRepository) RotateIfExpired(ctx context.Context, candidateToken string, replacement *model.RefreshToken) (*model.RefreshToken, bool, error) {
	var (
		resolved *model.RefreshToken
		rotated  bool
	)

	transaction := func(tx *redis.Tx) error {
		resolved = nil
		rotated = false

		value, err := tx.Get(ctx, refreshTokenKey(candidateToken)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("ошибка поиска refresh токена: %w", err)
		}

		var current *model.RefreshToken
		if err == nil {
			current = &model.RefreshToken{}
			if err := json.Unmarshal([]byte(value), current); err != nil {
				return fmt.Errorf("ошибка чтения записи refresh токена: %w", err)
			}
		}

		if current != nil && current.SupersededBy != nil {
			winner, err := repository.FindByToken(ctx, *current.SupersededBy)
			if err != nil {
				return err
			}
			if winner == nil {
				return fmt.Errorf("заменивший токен не найден в хранилище")
			}
			resolved = winner
			rotated = true
			return nil
		}

		if current != nil && current.ExpiryDate.After(time.Now()) {
			resolved = current
			rotated = false
			return nil
		}

		replacementData, err := json.Marshal(replacement)
		if err != nil {
			return fmt.Errorf("ошибка преобразования в json: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, refreshTokenKey(replacement.Token), replacementData, time.Until(replacement.ExpiryDate)+repository.retention)

			if current != nil {
				superseded := *current
				superseded.SupersededBy = &replacement.Token
				supersededData, err := json.Marshal(&superseded)
				if err != nil {
					return fmt.Errorf("ошибка преобразования в json: %w", err)
				}
				pipe.Set(ctx, refreshTokenKey(candidateToken), supersededData, redis.KeepTTL)
			}

			return nil
		})
		if err != nil {
			return err
		}

		resolved = replacement
		rotated = true
		return nil
	}

	for attempt := 0; attempt < rotateRetries; attempt++ {
		err := repository.redis.Watch(ctx, transaction, refreshTokenKey(candidateToken))
		if err == nil {
			return resolved, rotated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, false, fmt.Errorf("не удалось выполнить ротацию refresh токена: %w", err)
	}

	return nil, false, fmt.Errorf("не удалось выполнить ротацию refresh токена: превышено число попыток")
}
