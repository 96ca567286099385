package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"QH_quranhabits/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type authSession struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (r *Repository) CreateSession(ctx context.Context, session *model.AuthSession) error {
	query, args, err := squirrel.
		Insert("auth_sessions").
		SetMap(map[string]interface{}{
			"id":         session.ID,
			"user_id":    session.UserID,
			"created_at": session.CreatedAt,
			"expires_at": session.ExpiresAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*model.AuthSession, error) {
	var session authSession

	query, args, err := squirrel.
		Select("id", "user_id", "created_at", "expires_at", "revoked_at").
		From("auth_sessions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &session, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &model.AuthSession{
		ID:        session.ID,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
		RevokedAt: session.RevokedAt,
	}, nil
}

func (r *Repository) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("auth_sessions").
		Set("revoked_at", at).
		Where(squirrel.Eq{"id": id, "revoked_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) RevokeUserSessions(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("auth_sessions").
		Set("revoked_at", at).
		Where(squirrel.Eq{"user_id": userID, "revoked_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	query, args, err := squirrel.
		Insert("password_resets").
		SetMap(map[string]interface{}{
			"token_hash": reset.TokenHash,
			"user_id":    reset.UserID,
			"created_at": reset.CreatedAt,
			"expires_at": reset.ExpiresAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build password reset insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset marks an unused, unexpired reset token as used and returns its user.
func (r *Repository) ConsumePasswordReset(ctx context.Context, tokenHash string, at time.Time) (uuid.UUID, error) {
	var userID uuid.UUID

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("password_resets").
			Set("used_at", at).
			Where(squirrel.Eq{"token_hash": tokenHash, "used_at": nil}).
			Where(squirrel.Gt{"expires_at": at}).
			Suffix("RETURNING user_id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &userID, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrResetTokenNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}
