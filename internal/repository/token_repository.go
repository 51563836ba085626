package repository

import (
	"TokenProvider/internal"
	"TokenProvider/internal/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type TokenRepository struct {
	*internal.Database
}

func NewTokenRepository(database *internal.Database) *TokenRepository {
	return &TokenRepository{database}
}

const selectRefreshTokenQuery = `SELECT token, user_id, expiry_date, superseded_by FROM refresh_tokens WHERE token = $1`

func (repository *TokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var record model.RefreshToken

	err := repository.DB.GetContext(ctx, &record, selectRefreshTokenQuery, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска refresh токена: %w", err)
	}

	return &record, nil
}

func (repository *TokenRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expiry_date) VALUES ($1, $2, $3)`

	_, err := repository.DB.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiryDate)
	if err != nil {
		return fmt.Errorf("ошибка вставки данных в БД: %w", err)
	}

	return nil
}

// RotateIfExpired выполняет проверку кандидата и замену в одной транзакции.
// Строка кандидата блокируется через FOR UPDATE, поэтому два параллельных
// запроса не могут вставить две разные замены для одного кандидата.
func (repository *TokenRepository) RotateIfExpired(ctx context.Context, candidateToken string, replacement *model.RefreshToken) (*model.RefreshToken, bool, error) {
	tx, err := repository.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback()

	var current model.RefreshToken
	err = tx.GetContext(ctx, &current, selectRefreshTokenQuery+` FOR UPDATE`, candidateToken)

	if errors.Is(err, sql.ErrNoRows) {
		// кандидат хранилищу неизвестен, сохраняем замену
		if err := insertRefreshToken(ctx, tx, replacement); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
		}
		return replacement, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка поиска refresh токена: %w", err)
	}

	if current.SupersededBy != nil {
		// параллельный запрос уже ротировал кандидата, возвращаем его замену
		var winner model.RefreshToken
		if err := tx.GetContext(ctx, &winner, selectRefreshTokenQuery, *current.SupersededBy); err != nil {
			return nil, false, fmt.Errorf("ошибка поиска заменившего токена: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
		}
		return &winner, true, nil
	}

	if current.ExpiryDate.After(time.Now()) {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
		}
		return &current, false, nil
	}

	// кандидат просрочен: вставляем замену и помечаем старую запись
	if err := insertRefreshToken(ctx, tx, replacement); err != nil {
		return nil, false, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET superseded_by = $1 WHERE token = $2 AND superseded_by IS NULL`,
		replacement.Token, candidateToken,
	)
	if err != nil {
		return nil, false, fmt.Errorf("не удалось пометить ротированный токен: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("не удалось проверить, помечен ли токен: %w", err)
	}
	if rowsAffected == 0 {
		return nil, false, fmt.Errorf("не удалось найти токен для пометки о ротации")
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return replacement, true, nil
}

func insertRefreshToken(ctx context.Context, tx execContext, token *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expiry_date) VALUES ($1, $2, $3)`

	_, err := tx.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiryDate)
	if err != nil {
		return fmt.Errorf("ошибка вставки данных в БД: %w", err)
	}

	return nil
}

type execContext interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
