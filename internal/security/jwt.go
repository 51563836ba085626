package security

import (
	"TokenProvider/config"
	"TokenProvider/internal/model"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"log"
	"net/http"
	"strings"
	"time"
)

type Claims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token,omitempty"`
	jwt.RegisteredClaims
}

// JWTService хранит материал подписи access токенов.
// Конфигурация неизменяема после создания и передается сервисам при старте.
type JWTService struct {
	secretKey      []byte
	accessTokenTTL time.Duration
	issuer         string
}

func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("не задан секретный ключ подписи")
	}

	accessTokenTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("неверный формат access_token_ttl: %w", err)
	}

	return &JWTService{
		secretKey:      []byte(cfg.SecretKey),
		accessTokenTTL: accessTokenTTL,
		issuer:         "TokenProvider",
	}, nil
}

// IssueAccessToken выпускает access токен для пользователя из запроса.
// refreshToken может быть пустым: access токен выдается и без привязки.
func (service *JWTService) IssueAccessToken(request *model.TokenRequest, refreshToken string) (*model.AccessTokenResult, error) {
	claims := Claims{
		UserID:       request.UserID,
		Email:        request.Email,
		RefreshToken: refreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(service.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    service.issuer,
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	accessToken, err := jwtToken.SignedString(service.secretKey)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return &model.AccessTokenResult{
		Token:        accessToken,
		UserID:       request.UserID,
		RefreshToken: refreshToken,
	}, nil
}

func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return service.secretKey, nil
	})

	if err != nil || jwtToken.Valid == false {
		return nil, fmt.Errorf("невалидный токен: %w", err)
	}

	return claims, nil
}

// GenerateRefreshTokenValue генерирует значение refresh токена.
// Значение попадает в cookie, поэтому используется URL-safe алфавит.
func GenerateRefreshTokenValue() (string, error) {
	tokenBytes := make([]byte, 32)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if strings.HasPrefix(authorizationHeader, "Bearer ") == false {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		jwtTokenStr := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := jwtService.ValidateJWT(jwtTokenStr)
		if err != nil {
			log.Printf("невалидный токен: %v", err)
			http.Error(writer, "невалидный токен", http.StatusUnauthorized)
			return
		}

		request = request.WithContext(context.WithValue(request.Context(), "user", claims))
		next.ServeHTTP(writer, request)
	}
}
