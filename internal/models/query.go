package models

// SearchQuery describes the media item subtitles are searched for.
// Optional fields are nil when unset; a set value of 0 is still sent upstream.
type SearchQuery struct {
	Title        string    `json:"title"`
	SeriesName   *string   `json:"seriesName,omitempty"`
	Season       *int      `json:"season,omitempty"`
	Episode      *int      `json:"episode,omitempty"`
	Year         *int      `json:"year,omitempty"`
	Language     string    `json:"language"` // Two-letter ISO 639-1 code
	Forced       *bool     `json:"forced,omitempty"`
	PerfectMatch bool      `json:"perfectMatch"`
	MediaKind    MediaKind `json:"mediaKind"`
}

// Keyword returns the search keyword: the series name when set, else the title
func (q SearchQuery) Keyword() string {
	if q.SeriesName != nil {
		return *q.SeriesName
	}
	return q.Title
}
