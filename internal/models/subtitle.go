package models

import (
	"io"
	"math"
)

// ProviderName is the name reported by every candidate produced by this provider
const ProviderName = "Podnapisi"

// DefaultSubtitleFormat is used when the upstream does not tell us better
const DefaultSubtitleFormat = "srt"

// SubtitleCandidate represents one search result, not yet downloaded
type SubtitleCandidate struct {
	ID            string   `json:"id"` // Encoded CandidateID
	Provider      string   `json:"provider"`
	Name          string   `json:"name"`     // Release name
	Language      string   `json:"language"` // Normalized three-letter code
	Rating        *float64 `json:"rating,omitempty"`
	DownloadCount *int     `json:"downloadCount,omitempty"`
	Format        string   `json:"format"`
}

// Downloads returns the download count, treating an unset count as the lowest value
func (c SubtitleCandidate) Downloads() int {
	if c.DownloadCount == nil {
		return math.MinInt
	}
	return *c.DownloadCount
}

// SubtitleContent is the result of fetching a subtitle.
// Content can only be read once.
type SubtitleContent struct {
	Format   string    // File extension without the dot, e.g. "srt"
	Language string    // Normalized three-letter code
	Filename string    // Name of the entry inside the downloaded archive
	Size     int       // Decompressed size in bytes
	Content  io.Reader // Decompressed subtitle bytes
}
