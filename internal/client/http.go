package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
)

// get issues a GET request with the client User-Agent.
// A 404 becomes *apperrors.ErrNotFound, any other non-2xx status or network failure an
// *apperrors.ErrTransport; in both cases the response body is already closed.
func (c *client) get(ctx context.Context, endpoint string, resource string) (*http.Response, error) {
	logger := config.GetLogger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	logger.Debug().Str("url", endpoint).Msg("Sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperrors.ErrTransport{URL: endpoint, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	// Drain a little so the connection can be reused
	_, _ = io.CopyN(io.Discard, resp.Body, 4096)
	resp.Body.Close()

	logger.Debug().Str("url", endpoint).Int("statusCode", resp.StatusCode).Msg("Request returned non-success status")

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFoundError(resource, endpoint)
	}
	return nil, &apperrors.ErrTransport{URL: endpoint, StatusCode: resp.StatusCode}
}
