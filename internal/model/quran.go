package model

type TranslatedName struct {
	Name         string `json:"name"`
	LanguageName string `json:"language_name"`
}

type Chapter struct {
	ID              int            `json:"id"`
	NameSimple      string         `json:"name_simple"`
	NameComplex     string         `json:"name_complex"`
	NameArabic      string         `json:"name_arabic"`
	VersesCount     int            `json:"verses_count"`
	RevelationPlace string         `json:"revelation_place"`
	RevelationOrder int            `json:"revelation_order"`
	TranslatedName  TranslatedName `json:"translated_name"`
}

type Translation struct {
	ResourceID int    `json:"resource_id"`
	Text       string `json:"text"`
}

type Verse struct {
	ID           int           `json:"id"`
	VerseNumber  int           `json:"verse_number"`
	VerseKey     string        `json:"verse_key"`
	TextUthmani  string        `json:"text_uthmani"`
	PageNumber   int           `json:"page_number"`
	Translations []Translation `json:"translations"`
}

type Pagination struct {
	PerPage      int  `json:"per_page"`
	CurrentPage  int  `json:"current_page"`
	NextPage     *int `json:"next_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
}

type VersePage struct {
	Verses     []Verse    `json:"verses"`
	Pagination Pagination `json:"pagination"`
}
