package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/metrics"
	"github.com/Belphemur/PodnapisiClient/internal/models"
)

// Search queries the legacy XML search endpoint and returns ranked candidates
func (c *client) Search(ctx context.Context, query models.SearchQuery) ([]models.SubtitleCandidate, error) {
	logger := config.GetLogger()

	searchURL, ok := BuildSearchURL(c.baseURL, query)
	if !ok {
		logger.Debug().
			Str("keyword", query.Keyword()).
			Bool("forced", query.Forced != nil).
			Bool("perfectMatch", query.PerfectMatch).
			Msg("Skipping search, filter not supported by the search endpoint")
		metrics.SubtitleSearchesTotal.WithLabelValues("skipped").Inc()
		return []models.SubtitleCandidate{}, nil
	}

	logger.Info().
		Str("keyword", query.Keyword()).
		Str("language", query.Language).
		Str("mediaKind", query.MediaKind.String()).
		Msg("Searching subtitles")

	resp, err := c.get(ctx, searchURL, "search results")
	if err != nil {
		if errors.Is(err, &apperrors.ErrNotFound{}) {
			logger.Info().Str("url", searchURL).Msg("Search endpoint returned 404, no results")
			metrics.SubtitleSearchesTotal.WithLabelValues(apperrors.KindNotFound.String()).Inc()
			return []models.SubtitleCandidate{}, nil
		}
		metrics.SubtitleSearchesTotal.WithLabelValues(apperrors.KindOf(err).String()).Inc()
		return nil, fmt.Errorf("failed to search subtitles: %w", err)
	}
	defer resp.Body.Close()

	candidates, err := c.searchParser.ParseAll(ctx, resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		metrics.SubtitleSearchesTotal.WithLabelValues(apperrors.KindOf(err).String()).Inc()
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	if candidates == nil {
		candidates = []models.SubtitleCandidate{}
	}

	RankCandidates(candidates)

	metrics.SubtitleSearchesTotal.WithLabelValues(apperrors.KindOK.String()).Inc()
	metrics.SubtitleCandidatesTotal.Add(float64(len(candidates)))

	logger.Info().
		Str("keyword", query.Keyword()).
		Int("candidates", len(candidates)).
		Msg("Search completed")

	return candidates, nil
}
