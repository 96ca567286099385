package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProgress(t *testing.T) {
	surah := 2
	ayah := 255

	tests := []struct {
		name     string
		raw      string
		expected UserProgress
		wantErr  bool
	}{
		{
			name: "current format",
			raw:  `{"lastReadSurahId":2,"lastReadAyahNumber":255,"bookmarks":[{"verse_key":"2:255","surah_id":2,"surah_name":"Al-Baqarah","ayah_number":255,"text_uthmani":"ٱللَّهُ","timestamp":1710000000000}],"theme":"dark"}`,
			expected: UserProgress{
				LastReadSurahID:    &surah,
				LastReadAyahNumber: &ayah,
				Bookmarks: []Bookmark{{
					VerseKey:    "2:255",
					SurahID:     2,
					SurahName:   "Al-Baqarah",
					AyahNumber:  255,
					TextUthmani: "ٱللَّهُ",
					Timestamp:   1710000000000,
				}},
				Theme: ThemeDark,
			},
		},
		{
			name: "legacy string bookmarks are discarded",
			raw:  `{"lastReadSurahId":null,"lastReadAyahNumber":null,"bookmarks":["2:255","1:1"],"theme":"light"}`,
			expected: UserProgress{
				Bookmarks: []Bookmark{},
				Theme:     ThemeLight,
			},
		},
		{
			name: "missing bookmarks and unknown theme",
			raw:  `{"theme":"sepia"}`,
			expected: UserProgress{
				Bookmarks: []Bookmark{},
				Theme:     ThemeLight,
			},
		},
		{
			name:     "corrupt data",
			raw:      `{"bookmarks":`,
			expected: DefaultProgress(),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeProgress([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeProgress_RoundTrip(t *testing.T) {
	surah := 18
	p := UserProgress{
		LastReadSurahID: &surah,
		Bookmarks: []Bookmark{
			{VerseKey: "18:10", SurahID: 18, SurahName: "Al-Kahf", AyahNumber: 10, Timestamp: 1},
		},
		Theme: ThemeDark,
	}

	data, err := EncodeProgress(p)
	require.NoError(t, err)

	decoded, err := DecodeProgress(data)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestUserProgress_Clone(t *testing.T) {
	surah := 1
	p := UserProgress{LastReadSurahID: &surah, Bookmarks: []Bookmark{{VerseKey: "1:1"}}, Theme: ThemeLight}
	clone := p.Clone()
	*clone.LastReadSurahID = 2
	clone.Bookmarks[0].VerseKey = "1:2"

	assert.Equal(t, 1, *p.LastReadSurahID)
	assert.Equal(t, "1:1", p.Bookmarks[0].VerseKey)
	assert.Equal(t, 0, p.BookmarkIndex("1:1"))
	assert.Equal(t, -1, p.BookmarkIndex("1:2"))
}
