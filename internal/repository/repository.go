package repository

import (
	"context"
	_ "embed"
	"fmt"

	"QH_quranhabits/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")

	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrResetTokenNotFound = errors.New("password reset token not found or expired")
)

//go:embed schema.sql
var schema string

type Repository struct {
	db *sqlx.DB
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

// Migrate creates the tables used by the auth and record services if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	logger.Logger().Info("Database schema is up to date")
	return nil
}

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"sslmode"`
}

func New(cfg Config) (*Repository, error) {
	url := cfg.GetDatabaseURL()
	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully")

	return &Repository{
		db: db,
	}, nil
}

func (c *Config) GetDatabaseURL() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}
