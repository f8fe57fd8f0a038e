package models

import "strings"

// MediaKind represents the kind of video a subtitle is searched for
type MediaKind int

const (
	MediaKindUnknown MediaKind = iota
	MediaKindEpisode
	MediaKindMovie
)

// String returns the string representation of the media kind
func (k MediaKind) String() string {
	switch k {
	case MediaKindEpisode:
		return "episode"
	case MediaKindMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// ParseMediaKind converts a string into a MediaKind, case-insensitively
func ParseMediaKind(s string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "episode", "series", "tv":
		return MediaKindEpisode
	case "movie", "film":
		return MediaKindMovie
	default:
		return MediaKindUnknown
	}
}
