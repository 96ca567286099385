package mocks

import (
	"context"

	"QH_quranhabits/internal/model"

	"github.com/stretchr/testify/mock"
)

// MemoryChallenges is an in-memory ChallengeRepository. PersistErr, when set,
// is returned by Persist and the list is left unchanged.
type MemoryChallenges struct {
	Items      []model.Challenge
	PersistErr error
	Persisted  int
}

func (m *MemoryChallenges) Fetch(ctx context.Context) []model.Challenge {
	out := make([]model.Challenge, 0, len(m.Items))
	for _, c := range m.Items {
		out = append(out, c.Clone())
	}
	return out
}

func (m *MemoryChallenges) Persist(ctx context.Context, challenges []model.Challenge) error {
	if m.PersistErr != nil {
		return m.PersistErr
	}
	m.Items = challenges
	m.Persisted++
	return nil
}

type MemoryProgress struct {
	Value      model.UserProgress
	PersistErr error
}

func (m *MemoryProgress) Fetch(ctx context.Context) model.UserProgress {
	if m.Value.Theme == "" {
		return model.DefaultProgress()
	}
	return m.Value.Clone()
}

func (m *MemoryProgress) Persist(ctx context.Context, progress model.UserProgress) error {
	if m.PersistErr != nil {
		return m.PersistErr
	}
	m.Value = progress
	return nil
}

type MockChapterDirectory struct {
	mock.Mock
}

func (m *MockChapterDirectory) Chapter(ctx context.Context, id int) (model.Chapter, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Chapter), args.Error(1)
}
