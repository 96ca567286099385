package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QH_quranhabits/internal/metrics"
	"QH_quranhabits/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RemoteRecords is the per-user record table of the remote data service.
type RemoteRecords interface {
	SelectRecord(ctx context.Context, userID uuid.UUID, kind string) ([]byte, error)
	UpsertRecord(ctx context.Context, userID uuid.UUID, kind string, data []byte, updatedAt time.Time) error
}

// Codec describes how one persisted entity is named, serialized and defaulted.
type Codec[T any] struct {
	// LocalKey is the versioned local cache key.
	LocalKey string
	// Kind names the record in the remote store.
	Kind    string
	Encode  func(T) ([]byte, error)
	Decode  func([]byte) (T, error)
	Default func() T
}

// Record mirrors one entity between the local cache and the remote store.
// The local cache is written first on every persist; the remote store is
// best effort and its failures are only logged.
type Record[T any] struct {
	codec   Codec[T]
	local   LocalCache
	remote  RemoteRecords
	session Session
	now     func() time.Time
	log     *zap.Logger
}

func (r *Record[T]) Fetch(ctx context.Context) T {
	if user := r.session.User; user != nil && r.remote != nil {
		data, err := r.remote.SelectRecord(ctx, user.ID, r.codec.Kind)
		switch {
		case err == nil:
			value, decodeErr := r.codec.Decode(data)
			if decodeErr == nil {
				r.mirror(value)
				return value
			}
			metrics.RemoteSyncFailures.WithLabelValues(r.codec.Kind, "decode").Inc()
			r.log.Warn("remote record unreadable, using local cache", zap.Error(decodeErr))
		case errors.Is(err, repository.ErrNotFound):
			r.log.Debug("no remote record, using local cache")
		default:
			metrics.RemoteSyncFailures.WithLabelValues(r.codec.Kind, "select").Inc()
			r.log.Warn("failed to read remote record, using local cache", zap.Error(err))
		}
	}

	data, err := r.local.Get(r.session.DeviceID, r.codec.LocalKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			metrics.LocalCacheFailures.WithLabelValues(r.codec.Kind, "get").Inc()
			r.log.Warn("failed to read local cache", zap.Error(err))
		}
		return r.codec.Default()
	}

	value, err := r.codec.Decode(data)
	if err != nil {
		metrics.LocalCacheFailures.WithLabelValues(r.codec.Kind, "decode").Inc()
		r.log.Warn("local cache entry unreadable, using default", zap.Error(err))
		return r.codec.Default()
	}
	return value
}

func (r *Record[T]) Persist(ctx context.Context, value T) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.codec.Kind, err)
	}

	if err := r.local.Set(r.session.DeviceID, r.codec.LocalKey, data); err != nil {
		metrics.LocalCacheFailures.WithLabelValues(r.codec.Kind, "set").Inc()
		return fmt.Errorf("failed to write local cache: %w", err)
	}

	if user := r.session.User; user != nil && r.remote != nil {
		err := r.remote.UpsertRecord(ctx, user.ID, r.codec.Kind, data, r.now().UTC())
		if err != nil {
			metrics.RemoteSyncFailures.WithLabelValues(r.codec.Kind, "upsert").Inc()
			r.log.Warn("failed to upsert remote record", zap.Error(err))
		}
	}

	return nil
}

func (r *Record[T]) mirror(value T) {
	data, err := r.codec.Encode(value)
	if err == nil {
		err = r.local.Set(r.session.DeviceID, r.codec.LocalKey, data)
	}
	if err != nil {
		metrics.LocalCacheFailures.WithLabelValues(r.codec.Kind, "mirror").Inc()
		r.log.Warn("failed to mirror remote record locally", zap.Error(err))
	}
}
