package client

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/metrics"
	"github.com/Belphemur/PodnapisiClient/internal/models"
)

// maxDownloadSize caps the downloaded archive (150 MB)
const maxDownloadSize = 150 * 1024 * 1024

// Fetch downloads the subtitle archive for id and returns its first entry.
// A malformed id fails before any request is made.
func (c *client) Fetch(ctx context.Context, id string) (*models.SubtitleContent, error) {
	content, err := c.fetch(ctx, id)
	metrics.SubtitleDownloadsTotal.WithLabelValues(apperrors.KindOf(err).String()).Inc()
	return content, err
}

func (c *client) fetch(ctx context.Context, id string) (*models.SubtitleContent, error) {
	logger := config.GetLogger()

	candidateID, err := models.ParseCandidateID(id)
	if err != nil {
		return nil, err
	}

	downloadURL := BuildDownloadURL(c.baseURL, candidateID)
	logger.Info().
		Str("subtitleID", id).
		Str("url", downloadURL).
		Msg("Downloading subtitle")

	resp, err := c.get(ctx, downloadURL, "subtitle")
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitle: %w", err)
	}
	defer resp.Body.Close()

	archive, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperrors.ErrTransport{URL: downloadURL, Err: err}
	}
	if len(archive) > maxDownloadSize {
		return nil, apperrors.NewArchiveError(fmt.Sprintf("download exceeds the %d byte limit", maxDownloadSize), nil)
	}

	unwrapped, err := c.unwrapper.Unwrap(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap subtitle %s: %w", id, err)
	}

	metrics.SubtitleDownloadBytes.Observe(float64(len(unwrapped.Content)))

	return &models.SubtitleContent{
		Format:   unwrapped.Format,
		Language: c.normalizer.Normalize(candidateID.Language),
		Filename: unwrapped.Filename,
		Size:     len(unwrapped.Content),
		Content:  bytes.NewReader(unwrapped.Content),
	}, nil
}
