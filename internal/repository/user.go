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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.FullName,
		JoinedAt: u.CreatedAt,
	}
}

// CreateUser inserts the account and its profile row.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, passwordHash string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":            user.ID,
				"email":         user.Email,
				"password_hash": passwordHash,
				"created_at":    user.JoinedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		profileQuery, profileArgs, err := squirrel.
			Insert("profiles").
			SetMap(map[string]interface{}{
				"id":        user.ID,
				"email":     user.Email,
				"full_name": user.Name,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build profile insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, profileQuery, profileArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}

		return nil
	})
}

func (r *Repository) selectUser() squirrel.SelectBuilder {
	return squirrel.
		Select("u.id", "u.email", "u.password_hash", "COALESCE(p.full_name, '') AS full_name", "u.created_at").
		From("users u").
		LeftJoin("profiles p ON p.id = u.id").
		PlaceholderFormat(squirrel.Dollar)
}

// GetUserCredentials returns the user with the given email and its password hash.
func (r *Repository) GetUserCredentials(ctx context.Context, email string) (*model.User, string, error) {
	var user User
	query, args, err := r.selectUser().
		Where(squirrel.Eq{"u.email": email}).
		ToSql()
	if err != nil {
		return nil, "", err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	return user.toModel(), user.PasswordHash, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user User
	query, args, err := r.selectUser().
		Where(squirrel.Eq{"u.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query, args, err := squirrel.
		Update("users").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
