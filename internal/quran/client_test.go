package quran

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chaptersBody = `{"chapters":[
	{"id":1,"name_simple":"Al-Fatihah","name_arabic":"الفاتحة","verses_count":7,"revelation_place":"makkah","translated_name":{"name":"The Opener","language_name":"english"}},
	{"id":36,"name_simple":"Ya-Sin","name_arabic":"يس","verses_count":83,"revelation_place":"makkah","translated_name":{"name":"Ya Sin","language_name":"english"}}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 1000, Burst: 100})
}

func TestClient_ChaptersAreMemoized(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chapters", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		w.Write([]byte(chaptersBody))
	})

	chapters, err := client.Chapters(context.Background())
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Ya-Sin", chapters[1].NameSimple)
	assert.Equal(t, 83, chapters[1].VersesCount)

	chapter, err := client.Chapter(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "The Opener", chapter.TranslatedName.Name)

	_, err = client.Chapter(context.Background(), 200)
	assert.ErrorIs(t, err, ErrChapterNotFound)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_FailedChaptersAreNotMemoized(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(chaptersBody))
	})

	_, err := client.Chapters(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	chapters, err := client.Chapters(context.Background())
	require.NoError(t, err)
	assert.Len(t, chapters, 2)
}

func TestClient_Verses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verses/by_chapter/36", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "131", q.Get("translations"))
		assert.Equal(t, "text_uthmani,page_number", q.Get("fields"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "300", q.Get("per_page"))
		w.Write([]byte(`{
			"verses":[{"id":3706,"verse_number":1,"verse_key":"36:1","text_uthmani":"يسٓ","page_number":440,
				"translations":[{"resource_id":131,"text":"Ya, Seen."}]}],
			"pagination":{"per_page":300,"current_page":2,"next_page":null,"total_pages":2,"total_records":83}
		}`))
	})

	page, err := client.Verses(context.Background(), 36, 2, 1000)
	require.NoError(t, err)
	require.Len(t, page.Verses, 1)
	assert.Equal(t, "36:1", page.Verses[0].VerseKey)
	assert.Equal(t, 440, page.Verses[0].PageNumber)
	assert.Equal(t, "Ya, Seen.", page.Verses[0].Translations[0].Text)
	assert.Nil(t, page.Pagination.NextPage)
	assert.Equal(t, 83, page.Pagination.TotalRecords)
}

func TestClient_VersesErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Verses(context.Background(), 0, 1, 10)
	assert.ErrorIs(t, err, ErrChapterNotFound)

	_, err = client.Verses(context.Background(), 999, 1, 10)
	assert.ErrorIs(t, err, ErrChapterNotFound)
}
