package service

import (
	"context"
	"errors"
	"time"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/tracker"
	"QH_quranhabits/pkg/auth"

	"github.com/google/uuid"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrUnknownKind       = errors.New("unknown challenge type")
	ErrInvalidDuration   = errors.New("duration must be at least one day")
	ErrChapterRequired   = errors.New("a valid chapter is required for surah mode")
	ErrHabitsRequired    = errors.New("at least one habit is required")
	ErrInvalidPosition   = errors.New("invalid reading position")
	ErrInvalidBookmark   = errors.New("invalid bookmark")
	ErrInvalidTheme      = errors.New("invalid theme")

	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidSession     = errors.New("session is invalid or expired")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

type Service struct {
	*ChallengeService
	*ProgressService
	*AuthService
}

func NewService(challenges *ChallengeService, progress *ProgressService, auth *AuthService) *Service {
	return &Service{
		ChallengeService: challenges,
		ProgressService:  progress,
		AuthService:      auth,
	}
}

// ChallengeRepository is one session's persisted challenge list.
type ChallengeRepository interface {
	Fetch(ctx context.Context) []model.Challenge
	Persist(ctx context.Context, challenges []model.Challenge) error
}

// ProgressRepository is one session's persisted reader progress.
type ProgressRepository interface {
	Fetch(ctx context.Context) model.UserProgress
	Persist(ctx context.Context, progress model.UserProgress) error
}

type ChapterDirectory interface {
	Chapter(ctx context.Context, id int) (model.Chapter, error)
}

type ChallengeServiceI interface {
	List(ctx context.Context, repo ChallengeRepository, kind model.ChallengeKind) ([]ChallengeView, error)
	Get(ctx context.Context, repo ChallengeRepository, id string) (ChallengeView, error)
	Create(ctx context.Context, repo ChallengeRepository, in CreateChallengeInput) (ChallengeView, error)
	Delete(ctx context.Context, repo ChallengeRepository, id string) error
	Advance(ctx context.Context, repo ChallengeRepository, id string) (ChallengeView, error)
	LogQuran(ctx context.Context, repo ChallengeRepository, id string, amount int, finishDay bool) (ChallengeView, error)
	LogDhikr(ctx context.Context, repo ChallengeRepository, id string, amount int) (ChallengeView, error)
	ToggleHabit(ctx context.Context, repo ChallengeRepository, id string, index int, date string) (ChallengeView, error)
}

type ProgressServiceI interface {
	GetProgress(ctx context.Context, repo ProgressRepository) model.UserProgress
	SetLastRead(ctx context.Context, repo ProgressRepository, surahID, ayahNumber int) (model.UserProgress, error)
	ToggleBookmark(ctx context.Context, repo ProgressRepository, in BookmarkInput) (model.UserProgress, bool, error)
	SetTheme(ctx context.Context, repo ProgressRepository, theme model.Theme) (model.UserProgress, error)
}

type AuthServiceI interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*model.AuthResult, error)
	GetSession(ctx context.Context, token string) (*model.User, *model.AuthSession, error)
	SignOut(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Subscribe(userID uuid.UUID) (<-chan auth.Event, func())
}

type AuthRepository interface {
	CreateUser(ctx context.Context, user *model.User, passwordHash string) error
	GetUserCredentials(ctx context.Context, email string) (*model.User, string, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	CreateSession(ctx context.Context, session *model.AuthSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.AuthSession, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, at time.Time) error
	CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, at time.Time) (uuid.UUID, error)
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// ChallengeView is a challenge together with its derived statistics.
type ChallengeView struct {
	Challenge model.Challenge `json:"challenge"`
	Stats     tracker.Stats   `json:"stats"`
}
