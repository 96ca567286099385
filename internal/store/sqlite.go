package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"QH_quranhabits/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const localCacheSchema = `
CREATE TABLE IF NOT EXISTS local_cache (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLiteCache keeps the local cache in a single SQLite file.
type SQLiteCache struct {
	db *sqlx.DB
}

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	// one writer, and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure local cache: %w", err)
	}
	if _, err := db.Exec(localCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create local cache schema: %w", err)
	}

	logger.Logger().Info("Opened local cache", zap.String("path", path))

	return &SQLiteCache{db: db}, nil
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) Get(namespace, key string) ([]byte, error) {
	query, args, err := squirrel.
		Select("value").
		From("local_cache").
		Where(squirrel.Eq{"namespace": namespace, "key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.db.Get(&value, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	return value, nil
}

func (s *SQLiteCache) Set(namespace, key string, value []byte) error {
	query, args, err := squirrel.
		Insert("local_cache").
		Columns("namespace", "key", "value", "updated_at").
		Values(namespace, key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(query, args...)
	return err
}
