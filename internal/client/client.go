package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/language"
	"github.com/Belphemur/PodnapisiClient/internal/models"
	"github.com/Belphemur/PodnapisiClient/internal/parser"
	"github.com/Belphemur/PodnapisiClient/internal/services"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/failsafehttp"
)

// Client defines the subtitle provider backed by the Podnapisi catalog
type Client interface {
	// Name is the provider name reported on every candidate
	Name() string
	// Priority orders this provider among sibling providers, lower runs first
	Priority() int
	// SupportedMediaKinds lists the media kinds Search accepts
	SupportedMediaKinds() []models.MediaKind

	// Search returns the candidates for query, most downloaded first.
	// Queries the upstream cannot answer, and 404 responses, give an empty list.
	Search(ctx context.Context, query models.SearchQuery) ([]models.SubtitleCandidate, error)
	// Fetch downloads the subtitle identified by a SubtitleCandidate.ID
	Fetch(ctx context.Context, id string) (*models.SubtitleContent, error)

	// Close releases idle connections held by the client.
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	normalizer   *language.Normalizer
	searchParser *parser.SearchParser
	unwrapper    services.SubtitleUnwrapper
}

// NewClient creates a new client instance with proxy and retry configuration if provided
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()

	// Parse timeout duration
	timeout := 30 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		} else {
			timeout = parsedTimeout
		}
	}

	// Clone DefaultTransport to preserve its pooling, HTTP/2 and dial timeouts
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// Retries wrap the decompressing transport so every attempt gets a fresh body
	var transport http.RoundTripper = newCompressionTransport(baseTransport)
	if cfg.Retry.MaxRetries > 0 {
		transport = newRetryTransport(transport, cfg.Retry.MaxRetries, parseBackoff(cfg.Retry.Backoff))
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	baseURL := cfg.PodnapisiDomain
	if baseURL == "" {
		baseURL = config.DefaultPodnapisiDomain
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.GetUserAgent()
	}

	parserOpts := parser.DefaultOptions()
	if cfg.Parser.MaxEntityChars > 0 {
		parserOpts.MaxEntityChars = cfg.Parser.MaxEntityChars
	}
	normalizer := language.NewNormalizer(nil)

	return &client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		normalizer:   normalizer,
		searchParser: parser.NewSearchParser(normalizer, parserOpts),
		unwrapper:    services.NewSubtitleUnwrapper(),
	}
}

// newRetryTransport retries connection errors, 429 and 5xx responses with exponential backoff.
// The last response is handed back once retries are exhausted so status mapping still applies.
func newRetryTransport(inner http.RoundTripper, maxRetries int, backoff time.Duration) http.RoundTripper {
	logger := config.GetLogger()

	policy := failsafehttp.NewRetryPolicyBuilder().
		WithMaxRetries(maxRetries).
		WithBackoff(backoff, backoff*8).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			event := logger.Warn().Int("attempt", e.Attempts())
			if resp := e.LastResult(); resp != nil {
				event = event.Int("statusCode", resp.StatusCode)
			}
			event.Err(e.LastError()).Msg("Retrying request")
		}).
		Build()

	return failsafehttp.NewRoundTripper(inner, policy)
}

func parseBackoff(raw string) time.Duration {
	backoff, err := time.ParseDuration(raw)
	if err != nil || backoff <= 0 {
		if raw != "" {
			logger := config.GetLogger()
			logger.Warn().Str("backoff", raw).Msg("Invalid retry backoff, using default 1s")
		}
		return time.Second
	}
	return backoff
}

// Close releases idle connections held by the client.
func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
