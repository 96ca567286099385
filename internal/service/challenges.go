package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/tracker"
	"QH_quranhabits/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateChallengeInput struct {
	Kind         model.ChallengeKind `json:"type"`
	Title        string              `json:"title"`
	DurationDays int                 `json:"durationDays"`

	Mode      model.ReadingMode `json:"mode"`
	ChapterID *int              `json:"chapterId"`

	TargetPerDay int    `json:"targetPerDay"`
	Text         string `json:"text"`

	Habits []string `json:"habits"`
}

type ChallengeService struct {
	chapters ChapterDirectory
	now      func() time.Time
}

func NewChallengeService(chapters ChapterDirectory) *ChallengeService {
	return &ChallengeService{
		chapters: chapters,
		now:      time.Now,
	}
}

func (s *ChallengeService) view(c model.Challenge) ChallengeView {
	return ChallengeView{
		Challenge: c,
		Stats:     tracker.Summarize(c, s.now()),
	}
}

// List returns the challenges of the given kind, or all of them when kind is empty.
func (s *ChallengeService) List(ctx context.Context, repo ChallengeRepository, kind model.ChallengeKind) ([]ChallengeView, error) {
	if kind != "" && !kind.Valid() {
		return nil, ErrUnknownKind
	}

	views := []ChallengeView{}
	for _, c := range repo.Fetch(ctx) {
		if kind != "" && c.Kind() != kind {
			continue
		}
		views = append(views, s.view(c))
	}
	return views, nil
}

func (s *ChallengeService) Get(ctx context.Context, repo ChallengeRepository, id string) (ChallengeView, error) {
	for _, c := range repo.Fetch(ctx) {
		if c.ID == id {
			return s.view(c), nil
		}
	}
	return ChallengeView{}, ErrChallengeNotFound
}

func (s *ChallengeService) Create(ctx context.Context, repo ChallengeRepository, in CreateChallengeInput) (ChallengeView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ChallengeView{}, ErrTitleRequired
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	c := model.Challenge{
		ID:           uuid.NewString(),
		Title:        title,
		CreatedAt:    now,
		StartDate:    now,
		DurationDays: in.DurationDays,
	}

	switch in.Kind {
	case model.KindQuran:
		if in.DurationDays < 1 {
			return ChallengeView{}, ErrInvalidDuration
		}
		plan, err := s.quranPlan(ctx, in)
		if err != nil {
			return ChallengeView{}, err
		}
		c.Plan = plan
	case model.KindDhikr:
		target := in.TargetPerDay
		if target <= 0 {
			target = model.DefaultDhikrTarget
		}
		if target > model.MaxCount {
			target = model.MaxCount
		}
		c.DurationDays = 0
		c.Plan = model.DhikrPlan{
			TargetPerDay: target,
			Text:         strings.TrimSpace(in.Text),
			Logs:         model.CountLog{},
		}
	case model.KindHabit:
		if in.DurationDays < 1 {
			return ChallengeView{}, ErrInvalidDuration
		}
		habits := make([]string, 0, len(in.Habits))
		for _, h := range in.Habits {
			if h = strings.TrimSpace(h); h != "" {
				habits = append(habits, h)
			}
		}
		if len(habits) == 0 {
			return ChallengeView{}, ErrHabitsRequired
		}
		c.Plan = model.HabitPlan{
			Habits: habits,
			Logs:   model.HabitLog{},
		}
	default:
		return ChallengeView{}, ErrUnknownKind
	}

	challenges := repo.Fetch(ctx)
	challenges = append(challenges, c)
	if err := repo.Persist(ctx, challenges); err != nil {
		return ChallengeView{}, fmt.Errorf("failed to persist challenges: %w", err)
	}

	logger.Logger().Debug("Challenge created",
		zap.String("id", c.ID),
		zap.String("type", string(c.Kind())),
	)
	return s.view(c), nil
}

func (s *ChallengeService) quranPlan(ctx context.Context, in CreateChallengeInput) (model.QuranPlan, error) {
	if in.Mode != model.ReadingSurah {
		return model.QuranPlan{
			Mode:       model.ReadingWhole,
			TotalUnits: model.TotalMushafPages,
			UnitType:   model.UnitPages,
			Logs:       model.CountLog{},
		}, nil
	}

	if in.ChapterID == nil || *in.ChapterID < 1 || *in.ChapterID > model.TotalChapters {
		return model.QuranPlan{}, ErrChapterRequired
	}
	chapter, err := s.chapters.Chapter(ctx, *in.ChapterID)
	if err != nil {
		logger.Logger().Warn("Failed to resolve chapter",
			zap.Int("chapter_id", *in.ChapterID),
			zap.Error(err),
		)
		return model.QuranPlan{}, ErrChapterRequired
	}

	id := chapter.ID
	return model.QuranPlan{
		Mode:        model.ReadingSurah,
		ChapterID:   &id,
		ChapterName: chapter.NameSimple,
		TotalUnits:  chapter.VersesCount,
		UnitType:    model.UnitAyahs,
		Logs:        model.CountLog{},
	}, nil
}

func (s *ChallengeService) Delete(ctx context.Context, repo ChallengeRepository, id string) error {
	challenges := repo.Fetch(ctx)
	kept := make([]model.Challenge, 0, len(challenges))
	for _, c := range challenges {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(challenges) {
		return ErrChallengeNotFound
	}
	if err := repo.Persist(ctx, kept); err != nil {
		return fmt.Errorf("failed to persist challenges: %w", err)
	}
	return nil
}

func (s *ChallengeService) Advance(ctx context.Context, repo ChallengeRepository, id string) (ChallengeView, error) {
	return s.update(ctx, repo, id, func(c model.Challenge) (model.Challenge, error) {
		return tracker.AdvanceDay(c, s.now())
	})
}

// LogQuran records today's reading. With finishDay the challenge also moves on
// to its next day.
func (s *ChallengeService) LogQuran(ctx context.Context, repo ChallengeRepository, id string, amount int, finishDay bool) (ChallengeView, error) {
	return s.update(ctx, repo, id, func(c model.Challenge) (model.Challenge, error) {
		next, err := tracker.LogQuran(c, amount)
		if err != nil || !finishDay {
			return next, err
		}
		return tracker.Advance(next)
	})
}

func (s *ChallengeService) LogDhikr(ctx context.Context, repo ChallengeRepository, id string, amount int) (ChallengeView, error) {
	return s.update(ctx, repo, id, func(c model.Challenge) (model.Challenge, error) {
		return tracker.LogDhikr(c, tracker.DateKey(s.now()), amount)
	})
}

// ToggleHabit flips one habit on date, or on the challenge's current day when
// date is empty.
func (s *ChallengeService) ToggleHabit(ctx context.Context, repo ChallengeRepository, id string, index int, date string) (ChallengeView, error) {
	return s.update(ctx, repo, id, func(c model.Challenge) (model.Challenge, error) {
		if date == "" {
			date = tracker.CurrentDate(c, s.now())
		}
		return tracker.ToggleHabit(c, date, index)
	})
}

func (s *ChallengeService) update(ctx context.Context, repo ChallengeRepository, id string, apply func(model.Challenge) (model.Challenge, error)) (ChallengeView, error) {
	challenges := repo.Fetch(ctx)
	for i, c := range challenges {
		if c.ID != id {
			continue
		}

		next, err := apply(c)
		if err != nil {
			return ChallengeView{}, err
		}
		challenges[i] = next

		if err := repo.Persist(ctx, challenges); err != nil {
			return ChallengeView{}, fmt.Errorf("failed to persist challenges: %w", err)
		}
		return s.view(next), nil
	}
	return ChallengeView{}, ErrChallengeNotFound
}

// IsValidationError reports whether err is caused by the caller's input rather
// than by the service or its collaborators.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrTitleRequired, ErrUnknownKind, ErrInvalidDuration, ErrChapterRequired, ErrHabitsRequired,
		ErrInvalidPosition, ErrInvalidBookmark, ErrInvalidTheme,
		ErrInvalidEmail, ErrWeakPassword, ErrNameRequired,
		tracker.ErrInvalidAmount, tracker.ErrInvalidDateKey, tracker.ErrInvalidHabitIndex, tracker.ErrKindMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
