package handler

import (
	"TokenProvider/internal/model"
	"TokenProvider/internal/security"
	"TokenProvider/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

const refreshTokenCookieName = "refreshToken"

type TokenHandler struct {
	*service.TokenService
}

// CurrentUserResponse содержит строку с GUID(UUID) пользователя
// swagger:model
type CurrentUserResponse struct {
	UserGUID string `json:"userGUID" example:"123e4567-e89b-12d3-a456-426614174000"`
}

func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService}
}

// GenerateTokens выпускает access токен и при необходимости ротирует refresh токен
// @Summary Генерация токенов
// @Description Выпускает access токен для пользователя. Refresh токен берется из cookie; отсутствующий или просроченный заменяется новым, валидный переиспользуется без переотправки cookie. Пример запроса: POST /api-token/generate с телом {"userId": "123e...", "email": "user@example.com"}
// @Tags Tokens
// @Accept json
// @Produce json
// @Param request body model.TokenRequest true "Идентификатор и email пользователя"
// @Success 200 {object} model.TokensResponse "успешный ответ; refreshToken присутствует только при ротации"
// @Failure 400 {object} model.ErrorResponse "не указаны userId или email"
// @Failure 500 {object} model.ErrorResponse "внутренняя ошибка сервера"
// @Router /generate [post]
func (handler *TokenHandler) GenerateTokens(writer http.ResponseWriter, request *http.Request) {
	var tokenRequest model.TokenRequest
	if err := json.NewDecoder(request.Body).Decode(&tokenRequest); err != nil {
		log.Printf("неверный json: %v", err)
		writeError(writer, http.StatusBadRequest, "неверный json")
		return
	}

	candidateToken := readRefreshTokenCookie(request)

	accessResult, refreshResult, err := handler.TokenService.GenerateTokens(request.Context(), &tokenRequest, candidateToken)
	if err != nil {
		writeServiceError(writer, err)
		return
	}

	if refreshResult.Rotated && refreshResult.Cookie != nil {
		http.SetCookie(writer, buildRefreshTokenCookie(refreshResult))
	}

	response := &model.TokensResponse{AccessToken: accessResult.Token}
	if refreshResult.Rotated {
		response.RefreshToken = refreshResult.Token
	}

	writeJSON(writer, http.StatusOK, response)
}

// RefreshTokens выпускает access токен строго по валидному refresh токену
// @Summary Обновление access токена
// @Description Требует валидный неистекший refresh токен в cookie. Отсутствующий, неизвестный или просроченный токен отклоняется без выпуска нового. Пример запроса: POST /api-token/refresh с телом {"userId": "123e...", "email": "user@example.com"} и cookie refreshToken
// @Tags Tokens
// @Accept json
// @Produce json
// @Param request body model.TokenRequest true "Идентификатор и email пользователя"
// @Success 200 {object} model.TokensResponse "успешный ответ с обоими токенами"
// @Failure 400 {object} model.ErrorResponse "не указаны userId или email"
// @Failure 401 {object} model.ErrorResponse "refresh токен не найден или просрочен"
// @Failure 500 {object} model.ErrorResponse "внутренняя ошибка сервера"
// @Router /refresh [post]
func (handler *TokenHandler) RefreshTokens(writer http.ResponseWriter, request *http.Request) {
	var tokenRequest model.TokenRequest
	if err := json.NewDecoder(request.Body).Decode(&tokenRequest); err != nil {
		log.Printf("неверный json: %v", err)
		writeError(writer, http.StatusBadRequest, "неверный json")
		return
	}

	candidateToken := readRefreshTokenCookie(request)

	accessResult, refreshResult, err := handler.TokenService.RefreshTokens(request.Context(), &tokenRequest, candidateToken)
	if err != nil {
		writeServiceError(writer, err)
		return
	}

	response := &model.TokensResponse{
		AccessToken:  accessResult.Token,
		RefreshToken: refreshResult.Token,
	}

	writeJSON(writer, http.StatusOK, response)
}

// GetCurrentUser godoc
// @Summary Получение GUID (UUID) пользователя
// @Description Извлекает GUID (UUID) пользователя из access токена. Пример запроса: GET /api-token/me с заголовком Authorization: Bearer <access_token>
// @Tags Tokens
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} CurrentUserResponse "Успешный ответ"
// @Failure 401 {object} model.ErrorResponse "Пользователь не авторизован или токен недействителен"
// @Security ApiKeyAuth
// @Router /me [get]
func (handler *TokenHandler) GetCurrentUser(writer http.ResponseWriter, request *http.Request) {
	claims, ok := request.Context().Value("user").(*security.Claims)
	if ok == false || claims == nil {
		writeError(writer, http.StatusUnauthorized, "не авторизован")
		return
	}

	writeJSON(writer, http.StatusOK, &CurrentUserResponse{UserGUID: claims.UserID})
}

func readRefreshTokenCookie(request *http.Request) string {
	cookie, err := request.Cookie(refreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func buildRefreshTokenCookie(result *model.RefreshTokenResult) *http.Cookie {
	return &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    result.Token,
		Path:     result.Cookie.Path,
		Expires:  result.Cookie.Expires,
		HttpOnly: result.Cookie.HttpOnly,
		Secure:   result.Cookie.Secure,
		SameSite: result.Cookie.SameSite,
	}
}

func writeServiceError(writer http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(writer, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(writer, http.StatusUnauthorized, err.Error())
	default:
		// таймауты, отказы хранилища и прочие внутренние ошибки наружу
		// не различаются, подробности остаются в логе
		log.Printf("внутренняя ошибка обработки запроса: %v", err)
		writeError(writer, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, &model.ErrorResponse{Error: message})
}

func writeJSON(writer http.ResponseWriter, status int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(payload)
}
