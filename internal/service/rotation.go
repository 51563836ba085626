package service

import (
	"TokenProvider/config"
	"TokenProvider/internal/model"
	"TokenProvider/internal/ports"
	"TokenProvider/internal/security"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Rotator — общее ядро двух политик ротации: хранилище, TTL и часы.
// Политики различаются только терминальным поведением для отсутствующего
// или просроченного кандидата.
type Rotator struct {
	TokenRepository ports.TokenRepositoryInterface
	RefreshTokenTTL time.Duration
	Cookie          config.CookieConfig
	Now             func() time.Time
}

func NewRotator(tokenRepository ports.TokenRepositoryInterface, cfg *config.Config) (*Rotator, error) {
	refreshTokenTTL, err := time.ParseDuration(cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("неверный формат refresh_token_ttl: %w", err)
	}

	return &Rotator{
		TokenRepository: tokenRepository,
		RefreshTokenTTL: refreshTokenTTL,
		Cookie:          cfg.Cookie,
		Now:             time.Now,
	}, nil
}

func (rotator *Rotator) mintRefreshToken(userID string) (*model.RefreshToken, error) {
	value, err := security.GenerateRefreshTokenValue()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации refresh токена: %w", err)
	}

	return &model.RefreshToken{
		Token:      value,
		UserID:     userID,
		ExpiryDate: rotator.Now().Add(rotator.RefreshTokenTTL),
	}, nil
}

func (rotator *Rotator) rotatedResult(record *model.RefreshToken) *model.RefreshTokenResult {
	return &model.RefreshTokenResult{
		Token:      record.Token,
		ExpiryDate: record.ExpiryDate,
		Rotated:    true,
		Cookie: &model.CookieDirectives{
			Path:     rotator.Cookie.Path,
			Expires:  record.ExpiryDate,
			HttpOnly: true,
			Secure:   rotator.Cookie.Secure,
			SameSite: http.SameSiteStrictMode,
		},
	}
}

func reusedResult(record *model.RefreshToken) *model.RefreshTokenResult {
	return &model.RefreshTokenResult{
		Token:      record.Token,
		ExpiryDate: record.ExpiryDate,
		Rotated:    false,
	}
}

// LenientRotationPolicy — политика эндпоинта generate: любое сомнение в
// кандидате разрешается выпуском новой записи, запрос не отклоняется.
type LenientRotationPolicy struct {
	*Rotator
}

func NewLenientRotationPolicy(rotator *Rotator) *LenientRotationPolicy {
	return &LenientRotationPolicy{rotator}
}

func (policy *LenientRotationPolicy) Resolve(ctx context.Context, candidateToken string, userID string) (*model.RefreshTokenResult, error) {
	if candidateToken == "" {
		record, err := policy.mintRefreshToken(userID)
		if err != nil {
			return nil, err
		}
		if err := policy.TokenRepository.SaveRefreshToken(ctx, record); err != nil {
			return nil, fmt.Errorf("не удалось сохранить refresh токен: %w", err)
		}
		return policy.rotatedResult(record), nil
	}

	// замена готовится заранее и попадает в хранилище только если
	// RotateIfExpired действительно решит ротировать кандидата
	replacement, err := policy.mintRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	resolved, rotated, err := policy.TokenRepository.RotateIfExpired(ctx, candidateToken, replacement)
	if err != nil {
		return nil, fmt.Errorf("не удалось выполнить ротацию refresh токена: %w", err)
	}
	if rotated == false {
		return reusedResult(resolved), nil
	}

	return policy.rotatedResult(resolved), nil
}

// StrictRotationPolicy — политика эндпоинта refresh: отсутствующий,
// неизвестный или просроченный кандидат отклоняется, выпуск не выполняется.
type StrictRotationPolicy struct {
	*Rotator
}

func NewStrictRotationPolicy(rotator *Rotator) *StrictRotationPolicy {
	return &StrictRotationPolicy{rotator}
}

func (policy *StrictRotationPolicy) Resolve(ctx context.Context, candidateToken string, userID string) (*model.RefreshTokenResult, error) {
	if candidateToken == "" {
		return nil, ErrUnauthorized
	}

	record, err := policy.TokenRepository.FindByToken(ctx, candidateToken)
	if err != nil {
		return nil, fmt.Errorf("не удалось найти refresh токен: %w", err)
	}
	if record == nil {
		return nil, ErrUnauthorized
	}
	if record.ExpiryDate.Before(policy.Now()) {
		return nil, ErrUnauthorized
	}

	return reusedResult(record), nil
}
