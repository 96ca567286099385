package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressService() *ProgressService {
	s := NewProgressService()
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestProgressService_SetLastRead(t *testing.T) {
	s := newProgressService()
	repo := &mocks.MemoryProgress{}

	progress, err := s.SetLastRead(context.Background(), repo, 18, 10)
	require.NoError(t, err)
	require.NotNil(t, progress.LastReadSurahID)
	assert.Equal(t, 18, *progress.LastReadSurahID)
	assert.Equal(t, 10, *repo.Value.LastReadAyahNumber)
	assert.Equal(t, model.ThemeLight, repo.Value.Theme)

	for _, pos := range [][2]int{{0, 1}, {115, 1}, {1, 0}, {2, 287}} {
		_, err = s.SetLastRead(context.Background(), repo, pos[0], pos[1])
		assert.ErrorIs(t, err, ErrInvalidPosition)
	}
	assert.Equal(t, 18, *repo.Value.LastReadSurahID)

	progress, err = s.SetLastRead(context.Background(), repo, model.TotalChapters, 6)
	require.NoError(t, err)
	assert.Equal(t, 114, *progress.LastReadSurahID)
}

func TestProgressService_ToggleBookmark(t *testing.T) {
	s := newProgressService()
	repo := &mocks.MemoryProgress{}
	ctx := context.Background()

	in := BookmarkInput{VerseKey: "2:255", SurahID: 2, SurahName: "Al-Baqarah", AyahNumber: 255, TextUthmani: "ٱللَّهُ لَآ إِلَٰهَ إِلَّا هُوَ"}

	progress, added, err := s.ToggleBookmark(ctx, repo, in)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, progress.Bookmarks, 1)
	assert.Equal(t, fixedNow.UnixMilli(), progress.Bookmarks[0].Timestamp)
	assert.Equal(t, in.TextUthmani, progress.Bookmarks[0].TextUthmani)

	progress, added, err = s.ToggleBookmark(ctx, repo, in)
	require.NoError(t, err)
	assert.False(t, added)
	assert.NotNil(t, progress.Bookmarks)
	assert.Empty(t, progress.Bookmarks)

	_, _, err = s.ToggleBookmark(ctx, repo, BookmarkInput{VerseKey: "2:254", SurahID: 2, AyahNumber: 255})
	assert.ErrorIs(t, err, ErrInvalidBookmark)

	_, _, err = s.ToggleBookmark(ctx, repo, BookmarkInput{VerseKey: "120:1", SurahID: 120, AyahNumber: 1})
	assert.ErrorIs(t, err, ErrInvalidBookmark)
}

func TestProgressService_SetTheme(t *testing.T) {
	s := newProgressService()
	repo := &mocks.MemoryProgress{}

	progress, err := s.SetTheme(context.Background(), repo, model.ThemeDark)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, progress.Theme)
	assert.Equal(t, model.ThemeDark, s.GetProgress(context.Background(), repo).Theme)

	_, err = s.SetTheme(context.Background(), repo, "sepia")
	assert.ErrorIs(t, err, ErrInvalidTheme)
}

func TestProgressService_PersistFailure(t *testing.T) {
	s := newProgressService()
	repo := &mocks.MemoryProgress{PersistErr: errors.New("disk full")}

	_, err := s.SetTheme(context.Background(), repo, model.ThemeDark)
	assert.Error(t, err)
}
