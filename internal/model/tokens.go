package model

import (
	"net/http"
	"time"
)

// RefreshToken — запись refresh токена в хранилище.
// Запись после создания не изменяется: ротация порождает новую запись,
// а у старой заполняется только SupersededBy. ExpiryDate не продлевается.
type RefreshToken struct {
	Token        string    `db:"token" json:"token"`
	UserID       string    `db:"user_id" json:"user_id"`
	ExpiryDate   time.Time `db:"expiry_date" json:"expiry_date"`
	SupersededBy *string   `db:"superseded_by" json:"superseded_by,omitempty"`
}

// CookieDirectives — атрибуты Set-Cookie для refresh токена.
type CookieDirectives struct {
	Path     string
	Expires  time.Time
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// RefreshTokenResult — результат ротации, в хранилище не сохраняется.
// Cookie заполняется только при Rotated = true.
type RefreshTokenResult struct {
	Token      string
	ExpiryDate time.Time
	Rotated    bool
	Cookie     *CookieDirectives
}

// AccessTokenResult содержит выпущенный access токен.
// RefreshToken пустой, если access токен выдан без привязки к refresh токену.
type AccessTokenResult struct {
	Token        string
	UserID       string
	RefreshToken string
}

// TokenRequest содержит идентификатор и email пользователя
// swagger:model
type TokenRequest struct {
	// GUID (UUID) пользователя
	// example: 123e4567-e89b-12d3-a456-426614174000
	UserID string `json:"userId"`

	// Email пользователя
	// example: user@example.com
	Email string `json:"email"`
}

// TokensResponse содержит пару access и refresh токенов
// swagger:model
type TokensResponse struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен; в ответе generate присутствует только при ротации
	// example: vcSi0369y1I62wOpxZFpgZ...
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ErrorResponse содержит сообщение об ошибке
// swagger:model
type ErrorResponse struct {
	Error string `json:"error"`
}
