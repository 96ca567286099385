package quran

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"QH_quranhabits/internal/metrics"
	"QH_quranhabits/internal/model"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL       = "https://api.quran.com/api/v4"
	DefaultTranslationID = 131
	DefaultPerPage       = 50
	MaxPerPage           = 300

	verseFields = "text_uthmani,page_number"
)

var (
	ErrChapterNotFound = errors.New("chapter not found")
	ErrUpstream        = errors.New("content api request failed")
)

type Config struct {
	BaseURL           string        `yaml:"baseUrl"`
	TranslationID     int           `yaml:"translationId"`
	Language          string        `yaml:"language"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Client reads chapter metadata and verses from the public Quran content API.
// The chapter list never changes, so the first successful response is kept
// for the lifetime of the client.
type Client struct {
	baseURL       string
	translationID int
	language      string
	http          *http.Client
	limiter       *rate.Limiter

	mu       sync.RWMutex
	chapters []model.Chapter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TranslationID == 0 {
		cfg.TranslationID = DefaultTranslationID
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		translationID: cfg.TranslationID,
		language:      cfg.Language,
		http:          &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

func (c *Client) Chapters(ctx context.Context) ([]model.Chapter, error) {
	c.mu.RLock()
	cached := c.chapters
	c.mu.RUnlock()
	if cached != nil {
		return cloneChapters(cached), nil
	}

	var out struct {
		Chapters []model.Chapter `json:"chapters"`
	}
	query := url.Values{"language": {c.language}}
	if err := c.get(ctx, "chapters", "/chapters", query, &out); err != nil {
		return nil, err
	}
	if out.Chapters == nil {
		out.Chapters = []model.Chapter{}
	}

	c.mu.Lock()
	c.chapters = out.Chapters
	c.mu.Unlock()

	return cloneChapters(out.Chapters), nil
}

// Chapter looks a chapter up in the (memoized) chapter list.
func (c *Client) Chapter(ctx context.Context, id int) (model.Chapter, error) {
	chapters, err := c.Chapters(ctx)
	if err != nil {
		return model.Chapter{}, err
	}
	for _, ch := range chapters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return model.Chapter{}, ErrChapterNotFound
}

func (c *Client) Verses(ctx context.Context, chapterID, page, perPage int) (model.VersePage, error) {
	if chapterID < 1 {
		return model.VersePage{}, ErrChapterNotFound
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	query := url.Values{
		"language":     {c.language},
		"words":        {"false"},
		"translations": {strconv.Itoa(c.translationID)},
		"fields":       {verseFields},
		"page":         {strconv.Itoa(page)},
		"per_page":     {strconv.Itoa(perPage)},
	}

	var out model.VersePage
	if err := c.get(ctx, "verses", fmt.Sprintf("/verses/by_chapter/%d", chapterID), query, &out); err != nil {
		return model.VersePage{}, err
	}
	if out.Verses == nil {
		out.Verses = []model.Verse{}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ContentAPIFailures.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && endpoint == "verses" {
		return ErrChapterNotFound
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ContentAPIFailures.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ContentAPIFailures.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.ContentAPIFailures.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}

func cloneChapters(in []model.Chapter) []model.Chapter {
	out := make([]model.Chapter, len(in))
	copy(out, in)
	return out
}
