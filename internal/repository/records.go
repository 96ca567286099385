package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"QH_quranhabits/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type userRecord struct {
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type syncStatus struct {
	Kinds         pq.StringArray `db:"kinds"`
	LastUpdatedAt *time.Time     `db:"last_updated_at"`
}

// SelectRecord returns the JSON blob stored for the user under kind.
func (r *Repository) SelectRecord(ctx context.Context, userID uuid.UUID, kind string) ([]byte, error) {
	var record userRecord

	query, args, err := squirrel.
		Select("data", "updated_at").
		From("user_records").
		Where(squirrel.Eq{"user_id": userID, "kind": kind}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &record, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return record.Data, nil
}

// UpsertRecord replaces the user's blob for kind.
func (r *Repository) UpsertRecord(ctx context.Context, userID uuid.UUID, kind string, data []byte, updatedAt time.Time) error {
	query, args, err := squirrel.
		Insert("user_records").
		Columns("user_id", "kind", "data", "updated_at").
		Values(userID, kind, string(data), updatedAt).
		Suffix("ON CONFLICT (user_id, kind) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) SyncStatus(ctx context.Context, userID uuid.UUID) (*model.SyncStatus, error) {
	var status syncStatus

	query, args, err := squirrel.
		Select(
			"COALESCE(array_agg(kind ORDER BY kind), '{}') AS kinds",
			"max(updated_at) AS last_updated_at",
		).
		From("user_records").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &status, query, args...)
	if err != nil {
		return nil, err
	}

	return &model.SyncStatus{
		UserID:        userID,
		Records:       []string(status.Kinds),
		LastUpdatedAt: status.LastUpdatedAt,
	}, nil
}
