package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) SelectRecord(ctx context.Context, userID uuid.UUID, kind string) ([]byte, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRemote) UpsertRecord(ctx context.Context, userID uuid.UUID, kind string, data []byte, updatedAt time.Time) error {
	args := m.Called(ctx, userID, kind, data, updatedAt)
	return args.Error(0)
}

type failingCache struct{}

func (failingCache) Get(string, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingCache) Set(string, string, []byte) error   { return errors.New("disk gone") }

var testUser = &model.User{
	ID:    uuid.MustParse("8a3c1f0e-2f47-4b7e-9d0c-5f1f3b6f2a11"),
	Email: "aisha@example.com",
	Name:  "Aisha",
}

func sampleChallenges() []model.Challenge {
	return []model.Challenge{
		{
			ID:           "c1",
			Title:        "Juz Amma",
			CreatedAt:    time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
			StartDate:    time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
			DurationDays: 10,
			Plan: model.QuranPlan{
				Mode:       model.ReadingWhole,
				TotalUnits: 604,
				UnitType:   model.UnitPages,
				Logs:       model.CountLog{"0": 4},
			},
		},
	}
}

func TestRecord_UnauthenticatedPersistThenFetch(t *testing.T) {
	remote := &mockRemote{}
	factory := NewFactory(NewMemoryCache(), remote)
	st := factory.Open(Session{DeviceID: "phone"})

	challenges := sampleChallenges()
	require.NoError(t, st.Challenges.Persist(context.Background(), challenges))
	assert.Equal(t, challenges, st.Challenges.Fetch(context.Background()))

	surah := 3
	progress := model.UserProgress{LastReadSurahID: &surah, Bookmarks: []model.Bookmark{}, Theme: model.ThemeDark}
	require.NoError(t, st.Progress.Persist(context.Background(), progress))
	assert.Equal(t, progress, st.Progress.Fetch(context.Background()))

	remote.AssertNotCalled(t, "SelectRecord", mock.Anything, mock.Anything, mock.Anything)
	remote.AssertNotCalled(t, "UpsertRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecord_FetchDefaults(t *testing.T) {
	cache := NewMemoryCache()
	st := NewFactory(cache, nil).Open(Session{})

	assert.Equal(t, []model.Challenge{}, st.Challenges.Fetch(context.Background()))
	assert.Equal(t, model.DefaultProgress(), st.Progress.Fetch(context.Background()))

	require.NoError(t, cache.Set(DefaultDeviceID, ChallengesKey, []byte(`{"not":"a list"}`)))
	require.NoError(t, cache.Set(DefaultDeviceID, ProgressKey, []byte(`garbage`)))
	assert.Equal(t, []model.Challenge{}, st.Challenges.Fetch(context.Background()))
	assert.Equal(t, model.DefaultProgress(), st.Progress.Fetch(context.Background()))
}

func TestRecord_LegacyBookmarksAreReset(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Set("tablet", ProgressKey,
		[]byte(`{"lastReadSurahId":1,"lastReadAyahNumber":7,"bookmarks":["1:1","2:255"],"theme":"dark"}`)))

	st := NewFactory(cache, nil).Open(Session{DeviceID: "tablet"})
	progress := st.Progress.Fetch(context.Background())

	assert.Equal(t, []model.Bookmark{}, progress.Bookmarks)
	assert.Equal(t, model.ThemeDark, progress.Theme)
	require.NotNil(t, progress.LastReadAyahNumber)
	assert.Equal(t, 7, *progress.LastReadAyahNumber)
}

func TestRecord_AuthenticatedFetchPrefersRemoteAndMirrors(t *testing.T) {
	cache := NewMemoryCache()
	remote := &mockRemote{}

	remoteData, err := model.EncodeChallenges(sampleChallenges())
	require.NoError(t, err)
	remote.On("SelectRecord", mock.Anything, testUser.ID, RecordChallenges).Return(remoteData, nil)

	require.NoError(t, cache.Set("laptop", ChallengesKey, []byte(`[]`)))

	st := NewFactory(cache, remote).Open(Session{DeviceID: "laptop", User: testUser})
	got := st.Challenges.Fetch(context.Background())
	assert.Equal(t, sampleChallenges(), got)

	mirrored, err := cache.Get("laptop", ChallengesKey)
	require.NoError(t, err)
	assert.JSONEq(t, string(remoteData), string(mirrored))

	remote.AssertExpectations(t)
}

func TestRecord_AuthenticatedFetchFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
		remoteRaw []byte
	}{
		{name: "remote absent", remoteErr: repository.ErrNotFound},
		{name: "remote unreachable", remoteErr: errors.New("connection refused")},
		{name: "remote corrupt", remoteRaw: []byte(`{`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache()
			local, err := model.EncodeChallenges(sampleChallenges())
			require.NoError(t, err)
			require.NoError(t, cache.Set(DefaultDeviceID, ChallengesKey, local))

			remote := &mockRemote{}
			if tt.remoteErr != nil {
				remote.On("SelectRecord", mock.Anything, testUser.ID, RecordChallenges).Return(nil, tt.remoteErr)
			} else {
				remote.On("SelectRecord", mock.Anything, testUser.ID, RecordChallenges).Return(tt.remoteRaw, nil)
			}

			st := NewFactory(cache, remote).Open(Session{User: testUser})
			assert.Equal(t, sampleChallenges(), st.Challenges.Fetch(context.Background()))
			remote.AssertExpectations(t)
		})
	}
}

func TestRecord_AuthenticatedPersist(t *testing.T) {
	cache := NewMemoryCache()
	remote := &mockRemote{}
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	expected, err := model.EncodeChallenges(sampleChallenges())
	require.NoError(t, err)
	remote.On("UpsertRecord", mock.Anything, testUser.ID, RecordChallenges, expected, now).Return(nil)

	factory := NewFactory(cache, remote)
	factory.now = func() time.Time { return now }
	st := factory.Open(Session{DeviceID: "phone", User: testUser})

	require.NoError(t, st.Challenges.Persist(context.Background(), sampleChallenges()))

	stored, err := cache.Get("phone", ChallengesKey)
	require.NoError(t, err)
	assert.Equal(t, expected, stored)
	remote.AssertExpectations(t)
}

func TestRecord_RemotePersistFailureIsNotSurfaced(t *testing.T) {
	cache := NewMemoryCache()
	remote := &mockRemote{}
	remote.On("UpsertRecord", mock.Anything, testUser.ID, RecordProgress, mock.Anything, mock.Anything).
		Return(errors.New("timeout"))

	st := NewFactory(cache, remote).Open(Session{User: testUser})
	progress := model.DefaultProgress()
	progress.Theme = model.ThemeDark

	require.NoError(t, st.Progress.Persist(context.Background(), progress))

	stored, err := cache.Get(DefaultDeviceID, ProgressKey)
	require.NoError(t, err)
	decoded, err := model.DecodeProgress(stored)
	require.NoError(t, err)
	assert.Equal(t, progress, decoded)
	remote.AssertExpectations(t)
}

func TestRecord_LocalWriteFailureIsSurfaced(t *testing.T) {
	remote := &mockRemote{}
	st := NewFactory(failingCache{}, remote).Open(Session{User: testUser})

	err := st.Challenges.Persist(context.Background(), sampleChallenges())
	assert.Error(t, err)
	remote.AssertNotCalled(t, "UpsertRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecord_DevicesAreIsolated(t *testing.T) {
	factory := NewFactory(NewMemoryCache(), nil)
	phone := factory.Open(Session{DeviceID: "phone"})
	tablet := factory.Open(Session{DeviceID: "tablet"})

	require.NoError(t, phone.Challenges.Persist(context.Background(), sampleChallenges()))
	assert.Empty(t, tablet.Challenges.Fetch(context.Background()))
}

func TestNormalizeDeviceID(t *testing.T) {
	assert.Equal(t, DefaultDeviceID, NormalizeDeviceID("  "))
	assert.Equal(t, "phone", NormalizeDeviceID(" phone "))
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, NormalizeDeviceID(string(long)), maxDeviceIDLen)

	wide := "a" + strings.Repeat("ج", maxDeviceIDLen)
	got := NormalizeDeviceID(wide)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, maxDeviceIDLen-1)
	assert.True(t, strings.HasPrefix(wide, got))

	assert.Equal(t, "phone", NormalizeDeviceID("pho\xffne"))
	assert.Equal(t, DefaultDeviceID, NormalizeDeviceID("\xff\xfe"))
}
