package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"QH_quranhabits/internal/model"
)

type BookmarkInput struct {
	VerseKey    string `json:"verse_key"`
	SurahID     int    `json:"surah_id"`
	SurahName   string `json:"surah_name"`
	AyahNumber  int    `json:"ayah_number"`
	TextUthmani string `json:"text_uthmani"`
}

func validVerse(surahID, ayahNumber int) bool {
	return surahID >= 1 && surahID <= model.TotalChapters &&
		ayahNumber >= 1 && ayahNumber <= model.MaxAyahsPerChapter
}

func (in BookmarkInput) validate() error {
	if !validVerse(in.SurahID, in.AyahNumber) {
		return ErrInvalidBookmark
	}
	expected := strconv.Itoa(in.SurahID) + ":" + strconv.Itoa(in.AyahNumber)
	if in.VerseKey != expected {
		return ErrInvalidBookmark
	}
	return nil
}

type ProgressService struct {
	now func() time.Time
}

func NewProgressService() *ProgressService {
	return &ProgressService{now: time.Now}
}

func (s *ProgressService) GetProgress(ctx context.Context, repo ProgressRepository) model.UserProgress {
	return repo.Fetch(ctx)
}

func (s *ProgressService) SetLastRead(ctx context.Context, repo ProgressRepository, surahID, ayahNumber int) (model.UserProgress, error) {
	if !validVerse(surahID, ayahNumber) {
		return model.UserProgress{}, ErrInvalidPosition
	}

	progress := repo.Fetch(ctx)
	progress.LastReadSurahID = &surahID
	progress.LastReadAyahNumber = &ayahNumber
	return s.persist(ctx, repo, progress)
}

// ToggleBookmark removes the bookmark of the verse if present, otherwise adds
// one with a snapshot of the verse text. The bool reports whether it was added.
func (s *ProgressService) ToggleBookmark(ctx context.Context, repo ProgressRepository, in BookmarkInput) (model.UserProgress, bool, error) {
	in.VerseKey = strings.TrimSpace(in.VerseKey)
	if err := in.validate(); err != nil {
		return model.UserProgress{}, false, err
	}

	progress := repo.Fetch(ctx)
	added := false
	if i := progress.BookmarkIndex(in.VerseKey); i >= 0 {
		progress.Bookmarks = append(progress.Bookmarks[:i], progress.Bookmarks[i+1:]...)
	} else {
		progress.Bookmarks = append(progress.Bookmarks, model.Bookmark{
			VerseKey:    in.VerseKey,
			SurahID:     in.SurahID,
			SurahName:   in.SurahName,
			AyahNumber:  in.AyahNumber,
			TextUthmani: in.TextUthmani,
			Timestamp:   s.now().UnixMilli(),
		})
		added = true
	}

	progress, err := s.persist(ctx, repo, progress)
	return progress, added, err
}

func (s *ProgressService) SetTheme(ctx context.Context, repo ProgressRepository, theme model.Theme) (model.UserProgress, error) {
	if !theme.Valid() {
		return model.UserProgress{}, ErrInvalidTheme
	}

	progress := repo.Fetch(ctx)
	progress.Theme = theme
	return s.persist(ctx, repo, progress)
}

func (s *ProgressService) persist(ctx context.Context, repo ProgressRepository, progress model.UserProgress) (model.UserProgress, error) {
	if progress.Bookmarks == nil {
		progress.Bookmarks = []model.Bookmark{}
	}
	if err := repo.Persist(ctx, progress); err != nil {
		return model.UserProgress{}, fmt.Errorf("failed to persist progress: %w", err)
	}
	return progress, nil
}
