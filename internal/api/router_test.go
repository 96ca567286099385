package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/internal/store"
	"QH_quranhabits/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "valid-token"

var testUser = &model.User{
	ID:       uuid.MustParse("2f0c8d8e-5b0a-4a43-a3a4-4f7c9a1e7b21"),
	Email:    "aisha@example.com",
	Name:     "Aisha",
	JoinedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
}

type stubAuth struct {
	service.AuthServiceI
}

func (stubAuth) GetSession(ctx context.Context, token string) (*model.User, *model.AuthSession, error) {
	if token != validToken {
		return nil, nil, service.ErrInvalidSession
	}
	return testUser, &model.AuthSession{ID: uuid.New(), UserID: testUser.ID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubAuth) SignIn(ctx context.Context, email, password string) (*model.AuthResult, error) {
	if password != "correct horse" {
		return nil, service.ErrInvalidCredentials
	}
	return &model.AuthResult{User: testUser, Token: validToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubAuth) Subscribe(userID uuid.UUID) (<-chan auth.Event, func()) {
	ch := make(chan auth.Event)
	return ch, func() {}
}

type stubChapters struct{}

func (stubChapters) Chapter(ctx context.Context, id int) (model.Chapter, error) {
	if id == 1 {
		return model.Chapter{ID: 1, NameSimple: "Al-Fatihah", VersesCount: 7}, nil
	}
	return model.Chapter{}, errors.New("chapter not found")
}

type failingContent struct{}

func (failingContent) Chapters(ctx context.Context) ([]model.Chapter, error) {
	return nil, errors.New("upstream down")
}

func (failingContent) Verses(ctx context.Context, chapterID, page, perPage int) (model.VersePage, error) {
	return model.VersePage{}, errors.New("upstream down")
}

type stubSync struct{}

func (stubSync) SyncStatus(ctx context.Context, userID uuid.UUID) (*model.SyncStatus, error) {
	return &model.SyncStatus{UserID: userID, Records: []string{"challenges"}}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := stubAuth{}
	factory := store.NewFactory(store.NewMemoryCache(), nil)

	return NewRouter(Dependencies{
		Challenges: service.NewChallengeService(stubChapters{}),
		Progress:   service.NewProgressService(),
		Auth:       resolver,
		Content:    failingContent{},
		Sync:       stubSync{},
		Session:    middleware.NewSession(resolver, factory),
	})
}

func doRequest(router *gin.Engine, method, path, device, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if device != "" {
		req.Header.Set(middleware.DeviceIDHeader, device)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type viewResponse struct {
	Challenge struct {
		ID              string `json:"id"`
		Type            string `json:"type"`
		CurrentDayIndex int    `json:"currentDayIndex"`
		Completed       bool   `json:"completed"`
	} `json:"challenge"`
	Stats struct {
		DailyTarget int     `json:"daily_target"`
		Logged      int     `json:"logged"`
		Percentage  float64 `json:"percentage"`
		CanAdvance  bool    `json:"can_advance"`
	} `json:"stats"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestChallengeRoutes_HabitLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/challenges", "phone", "", gin.H{
		"type":         "habit",
		"title":        "Morning",
		"durationDays": 2,
		"habits":       []string{"Fajr"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[viewResponse](t, w)
	assert.Equal(t, "habit", created.Challenge.Type)
	id := created.Challenge.ID

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+id+"/advance", "phone", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+id+"/habits/0/toggle", "phone", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[viewResponse](t, w).Stats.CanAdvance)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+id+"/habits/3/toggle", "phone", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+id+"/advance", "phone", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[viewResponse](t, w).Challenge.CurrentDayIndex)

	w = doRequest(router, http.MethodGet, "/api/v1/challenges?type=habit", "phone", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Challenges []viewResponse `json:"challenges"`
	}](t, w).Challenges, 1)

	w = doRequest(router, http.MethodGet, "/api/v1/challenges", "tablet", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[struct {
		Challenges []viewResponse `json:"challenges"`
	}](t, w).Challenges)

	w = doRequest(router, http.MethodDelete, "/api/v1/challenges/"+id, "phone", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/challenges/"+id, "phone", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChallengeRoutes_QuranAndDhikr(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/challenges", "", "", gin.H{
		"type": "quran", "title": "Fatihah", "durationDays": 7, "mode": "surah", "chapterId": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quran := decode[viewResponse](t, w)
	assert.Equal(t, 1, quran.Stats.DailyTarget)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+quran.Challenge.ID+"/quran", "", "", gin.H{"amount": 3, "finish_day": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	logged := decode[viewResponse](t, w)
	assert.Equal(t, 3, logged.Stats.Logged)
	assert.Equal(t, 1, logged.Challenge.CurrentDayIndex)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+quran.Challenge.ID+"/quran", "", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges", "", "", gin.H{
		"type": "quran", "title": "Unknown", "durationDays": 7, "mode": "surah", "chapterId": 500,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges", "", "", gin.H{"type": "duco", "title": "Tasbih"})
	require.Equal(t, http.StatusCreated, w.Code)
	dhikr := decode[viewResponse](t, w)
	assert.Equal(t, 33, dhikr.Stats.DailyTarget)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+dhikr.Challenge.ID+"/dhikr", "", "", gin.H{"amount": 11})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 33.333, decode[viewResponse](t, w).Stats.Percentage, 0.01)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+dhikr.Challenge.ID+"/dhikr", "", "", gin.H{"reset": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[viewResponse](t, w).Stats.Logged)

	w = doRequest(router, http.MethodPost, "/api/v1/challenges/"+dhikr.Challenge.ID+"/advance", "", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProgressRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/progress", "phone", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[model.UserProgress](t, w)
	assert.Equal(t, model.DefaultProgress(), progress)

	w = doRequest(router, http.MethodPut, "/api/v1/progress/theme", "phone", "", gin.H{"theme": "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ThemeDark, decode[model.UserProgress](t, w).Theme)

	w = doRequest(router, http.MethodPut, "/api/v1/progress/theme", "phone", "", gin.H{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPut, "/api/v1/progress/last-read", "phone", "", gin.H{"surah_id": 2, "ayah_number": 255})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/progress/bookmarks/toggle", "phone", "", gin.H{
		"verse_key": "2:255", "surah_id": 2, "surah_name": "Al-Baqarah", "ayah_number": 255, "text_uthmani": "ٱللَّهُ",
	})
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[struct {
		Bookmarked bool               `json:"bookmarked"`
		Progress   model.UserProgress `json:"progress"`
	}](t, w)
	assert.True(t, toggled.Bookmarked)
	require.Len(t, toggled.Progress.Bookmarks, 1)
	require.NotNil(t, toggled.Progress.LastReadSurahID)
	assert.Equal(t, 2, *toggled.Progress.LastReadSurahID)
	assert.Equal(t, model.ThemeDark, toggled.Progress.Theme)
}

func TestSessionHandling(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/sync", "phone", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/progress", "phone", "expired", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/sync", "phone", validToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[map[string]any](t, w)
	assert.Equal(t, "phone", status["device_id"])
	assert.Equal(t, []any{"challenges"}, status["records"])

	w = doRequest(router, http.MethodGet, "/api/v1/auth/session", "", validToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[struct {
		User userResponse `json:"user"`
	}](t, w)
	assert.Equal(t, "aisha@example.com", session.User.Email)

	w = doRequest(router, http.MethodPost, "/api/v1/auth/signin", "", "", gin.H{"email": "aisha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/auth/signin", "", "", gin.H{"email": "aisha@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, validToken, decode[authResponse](t, w).Token)
}

func TestQuranRoutes_DegradeToEmpty(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/quran/chapters", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chapters":[]}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/quran/chapters/1/verses", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[model.VersePage](t, w).Verses)

	w = doRequest(router, http.MethodGet, "/api/v1/quran/chapters/abc/verses", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
