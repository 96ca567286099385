package model

import (
	"bytes"

	"github.com/goccy/go-json"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

type Bookmark struct {
	VerseKey    string `json:"verse_key"`
	SurahID     int    `json:"surah_id"`
	SurahName   string `json:"surah_name"`
	AyahNumber  int    `json:"ayah_number"`
	TextUthmani string `json:"text_uthmani"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

type UserProgress struct {
	LastReadSurahID    *int       `json:"lastReadSurahId"`
	LastReadAyahNumber *int       `json:"lastReadAyahNumber"`
	Bookmarks          []Bookmark `json:"bookmarks"`
	Theme              Theme      `json:"theme"`
}

func DefaultProgress() UserProgress {
	return UserProgress{
		Bookmarks: []Bookmark{},
		Theme:     ThemeLight,
	}
}

func (p UserProgress) Clone() UserProgress {
	if p.LastReadSurahID != nil {
		v := *p.LastReadSurahID
		p.LastReadSurahID = &v
	}
	if p.LastReadAyahNumber != nil {
		v := *p.LastReadAyahNumber
		p.LastReadAyahNumber = &v
	}
	p.Bookmarks = append([]Bookmark{}, p.Bookmarks...)
	return p
}

func (p UserProgress) BookmarkIndex(verseKey string) int {
	for i, b := range p.Bookmarks {
		if b.VerseKey == verseKey {
			return i
		}
	}
	return -1
}

type progressWire struct {
	LastReadSurahID    *int            `json:"lastReadSurahId"`
	LastReadAyahNumber *int            `json:"lastReadAyahNumber"`
	Bookmarks          json.RawMessage `json:"bookmarks"`
	Theme              Theme           `json:"theme"`
}

// DecodeProgress decodes a stored progress record. Bookmark lists in the legacy
// format (bare verse-key strings) are discarded rather than interpreted.
func DecodeProgress(data []byte) (UserProgress, error) {
	var w progressWire
	if err := json.Unmarshal(data, &w); err != nil {
		return DefaultProgress(), err
	}

	out := UserProgress{
		LastReadSurahID:    w.LastReadSurahID,
		LastReadAyahNumber: w.LastReadAyahNumber,
		Bookmarks:          decodeBookmarks(w.Bookmarks),
		Theme:              w.Theme,
	}
	if !out.Theme.Valid() {
		out.Theme = ThemeLight
	}
	return out, nil
}

func EncodeProgress(p UserProgress) ([]byte, error) {
	if p.Bookmarks == nil {
		p.Bookmarks = []Bookmark{}
	}
	if !p.Theme.Valid() {
		p.Theme = ThemeLight
	}
	return json.Marshal(p)
}

func decodeBookmarks(raw json.RawMessage) []Bookmark {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return []Bookmark{}
	}
	if first := bytes.TrimSpace(elems[0]); len(first) > 0 && first[0] == '"' {
		return []Bookmark{}
	}

	bookmarks := make([]Bookmark, 0, len(elems))
	for _, e := range elems {
		var b Bookmark
		if err := json.Unmarshal(e, &b); err != nil || b.VerseKey == "" {
			continue
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks
}
