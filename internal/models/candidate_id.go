package models

import (
	"fmt"
	"strings"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
)

// CandidateID links a search result to a later download.
// Language is the raw upstream language token so the download request
// reuses exactly what the catalog returned.
type CandidateID struct {
	ProviderID string
	TitleSlug  string
	Language   string
}

// String encodes the identifier as "{providerId},{titleSlug},{language},"
func (id CandidateID) String() string {
	return fmt.Sprintf("%s,%s,%s,", id.ProviderID, id.TitleSlug, id.Language)
}

// ParseCandidateID decodes an identifier produced by a search.
// Only the first three comma-separated fields are read; a trailing empty field is ignored.
func ParseCandidateID(raw string) (CandidateID, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < 3 {
		return CandidateID{}, apperrors.NewMalformedIDError(raw, fmt.Sprintf("expected 3 comma-separated fields, got %d", len(fields)))
	}

	id := CandidateID{
		ProviderID: strings.TrimSpace(fields[0]),
		TitleSlug:  strings.TrimSpace(fields[1]),
		Language:   strings.TrimSpace(fields[2]),
	}
	switch {
	case id.ProviderID == "":
		return CandidateID{}, apperrors.NewMalformedIDError(raw, "provider id is empty")
	case id.TitleSlug == "":
		return CandidateID{}, apperrors.NewMalformedIDError(raw, "title slug is empty")
	case id.Language == "":
		return CandidateID{}, apperrors.NewMalformedIDError(raw, "language is empty")
	}

	return id, nil
}
