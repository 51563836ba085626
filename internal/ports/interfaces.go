package ports

import (
	"TokenProvider/internal/model"
	"TokenProvider/internal/security"
	"context"
)

type TokenRepositoryInterface interface {
	// FindByToken возвращает (nil, nil), если токен хранилищу неизвестен.
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	// RotateIfExpired атомарно решает судьбу кандидата: валидный кандидат
	// возвращается как есть (rotated = false), неизвестный или просроченный
	// заменяется записью replacement (rotated = true). Если кандидата уже
	// ротировал параллельный запрос, возвращается его замена, без второй вставки.
	RotateIfExpired(ctx context.Context, candidateToken string, replacement *model.RefreshToken) (*model.RefreshToken, bool, error)
}

type RotationPolicyInterface interface {
	Resolve(ctx context.Context, candidateToken string, userID string) (*model.RefreshTokenResult, error)
}

type JWTServiceInterface interface {
	IssueAccessToken(request *model.TokenRequest, refreshToken string) (*model.AccessTokenResult, error)
	ValidateJWT(tokenString string) (*security.Claims, error)
}
