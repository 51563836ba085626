package service

import (
	"TokenProvider/config"
	"TokenProvider/internal/model"
	"TokenProvider/internal/notifier"
	"TokenProvider/internal/ports"
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	ErrInvalidRequest  = errors.New("необходимо указать userId и email")
	ErrUnauthorized    = errors.New("refresh токен не найден или просрочен")
	ErrUpstreamTimeout = errors.New("превышено время ожидания обработки запроса")
)

const defaultRequestTimeout = 3 * time.Second

// TokenService координирует обработку запроса: валидация, общий дедлайн,
// ротация refresh токена выбранной политикой и выпуск access токена.
type TokenService struct {
	JWTService     ports.JWTServiceInterface
	Lenient        ports.RotationPolicyInterface
	Strict         ports.RotationPolicyInterface
	RequestTimeout time.Duration
	WebhookURL     string
	WebhookTimeout time.Duration
}

func NewTokenService(jwtService ports.JWTServiceInterface, tokenRepository ports.TokenRepositoryInterface, cfg *config.Config) (*TokenService, error) {
	rotator, err := NewRotator(tokenRepository, cfg)
	if err != nil {
		return nil, err
	}

	requestTimeout := defaultRequestTimeout
	if cfg.Server.RequestTimeout != "" {
		requestTimeout, err = time.ParseDuration(cfg.Server.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("неверный формат request_timeout: %w", err)
		}
	}

	webhookTimeout := 5 * time.Second
	if cfg.Webhook.Timeout != "" {
		webhookTimeout, err = time.ParseDuration(cfg.Webhook.Timeout)
		if err != nil {
			return nil, fmt.Errorf("неверный формат webhook timeout: %w", err)
		}
	}

	return &TokenService{
		JWTService:     jwtService,
		Lenient:        NewLenientRotationPolicy(rotator),
		Strict:         NewStrictRotationPolicy(rotator),
		RequestTimeout: requestTimeout,
		WebhookURL:     cfg.Webhook.URL,
		WebhookTimeout: webhookTimeout,
	}, nil
}

// GenerateTokens обрабатывает запрос выпуска токенов.
// Cookie с refresh токеном переотправляется клиенту только при ротации.
func (service *TokenService) GenerateTokens(ctx context.Context, request *model.TokenRequest, candidateToken string) (*model.AccessTokenResult, *model.RefreshTokenResult, error) {
	if err := validateTokenRequest(request); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, service.RequestTimeout)
	defer cancel()

	refreshResult, err := service.Lenient.Resolve(ctx, candidateToken, request.UserID)
	if err != nil {
		return nil, nil, service.mapResolveError(err)
	}

	accessResult, err := service.JWTService.IssueAccessToken(request, refreshResult.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка генерации access токена: %w", err)
	}

	if refreshResult.Rotated && candidateToken != "" && service.WebhookURL != "" {
		// предъявленный кандидат оказался неизвестным или просроченным
		go func() {
			if err := notifier.NotifyWebhook(service.WebhookURL, service.WebhookTimeout, request.UserID, "stale_refresh_token"); err != nil {
				log.Printf("ошибка отправки webhook: %v", err)
			}
		}()
	}

	return accessResult, refreshResult, nil
}

// RefreshTokens обрабатывает запрос строгого обновления: без валидного
// неистекшего refresh токена запрос отклоняется, новый токен не выпускается.
func (service *TokenService) RefreshTokens(ctx context.Context, request *model.TokenRequest, candidateToken string) (*model.AccessTokenResult, *model.RefreshTokenResult, error) {
	if err := validateTokenRequest(request); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, service.RequestTimeout)
	defer cancel()

	refreshResult, err := service.Strict.Resolve(ctx, candidateToken, request.UserID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, service.mapResolveError(err)
	}

	accessResult, err := service.JWTService.IssueAccessToken(request, refreshResult.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка генерации access токена: %w", err)
	}

	return accessResult, refreshResult, nil
}

func validateTokenRequest(request *model.TokenRequest) error {
	if request == nil || request.UserID == "" || request.Email == "" {
		return ErrInvalidRequest
	}
	return nil
}

func (service *TokenService) mapResolveError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("не удалось разрешить refresh токен: %w", err)
}
