package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/models"
)

// slugSegment is the index of the title slug in a '/'-split subtitle detail URL
const slugSegment = 5

// LanguageNormalizer maps a raw language token to its canonical three-letter code
type LanguageNormalizer interface {
	Normalize(token string) string
}

// Options tunes the search parser
type Options struct {
	// Numbers is the format of <rating> and <downloads> content
	Numbers NumberFormat
	// MaxEntityChars caps the characters produced by expanding DTD entities in one document
	MaxEntityChars int
}

// DefaultOptions returns the options matching the upstream XML search endpoint
func DefaultOptions() Options {
	return Options{
		Numbers:        InvariantNumberFormat,
		MaxEntityChars: config.DefaultMaxEntityChars,
	}
}

// SearchParser turns the legacy XML search response into subtitle candidates
type SearchParser struct {
	normalizer LanguageNormalizer
	opts       Options
}

// NewSearchParser creates a new search parser instance
func NewSearchParser(normalizer LanguageNormalizer, opts Options) *SearchParser {
	return &SearchParser{
		normalizer: normalizer,
		opts:       opts,
	}
}

// SearchCursor walks a search response forward-only, one <subtitle> element at a time.
// Only the subtree being parsed is held in memory.
type SearchCursor struct {
	ctx          context.Context
	parser       *SearchParser
	dec          *xml.Decoder
	entityBudget int
	entityValues []string
	inRoot       bool
	done         bool
}

// Open prepares a cursor over body. contentType is the response Content-Type header, used for charset detection.
func (p *SearchParser) Open(ctx context.Context, body io.Reader, contentType string) (*SearchCursor, error) {
	utf8Body, err := NewUTF8Reader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect response charset: %w", err)
	}

	dec := xml.NewDecoder(utf8Body)
	dec.Strict = true
	dec.Entity = map[string]string{}
	// The body was already converted to UTF-8 by NewUTF8Reader.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	return &SearchCursor{
		ctx:          ctx,
		parser:       p,
		dec:          dec,
		entityBudget: p.opts.MaxEntityChars,
	}, nil
}

// ParseAll drains the whole response and returns candidates in document order
func (p *SearchParser) ParseAll(ctx context.Context, body io.Reader, contentType string) ([]models.SubtitleCandidate, error) {
	logger := config.GetLogger()

	cursor, err := p.Open(ctx, body, contentType)
	if err != nil {
		return nil, err
	}

	var candidates []models.SubtitleCandidate
	for {
		candidate, err := cursor.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Error().Err(err).Int("parsed", len(candidates)).Msg("Failed to parse search response")
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	logger.Debug().Int("candidates", len(candidates)).Msg("Completed XML parsing for search results")
	return candidates, nil
}

// Next returns the next candidate, or io.EOF once the document element is closed.
// The context is checked before every token read.
func (c *SearchCursor) Next() (models.SubtitleCandidate, error) {
	for {
		if c.done {
			return models.SubtitleCandidate{}, io.EOF
		}
		if err := c.ctx.Err(); err != nil {
			return models.SubtitleCandidate{}, err
		}

		tok, err := c.dec.Token()
		if errors.Is(err, io.EOF) {
			c.done = true
			return models.SubtitleCandidate{}, io.EOF
		}
		if err != nil {
			return models.SubtitleCandidate{}, fmt.Errorf("failed to read search XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			c.registerEntities(t)
		case xml.StartElement:
			if !c.inRoot {
				c.inRoot = true
				continue
			}
			if t.Name.Local != "subtitle" {
				if err := c.dec.Skip(); err != nil {
					return models.SubtitleCandidate{}, fmt.Errorf("failed to skip <%s>: %w", t.Name.Local, err)
				}
				continue
			}

			candidate, ok, err := c.parseSubtitle()
			if err != nil {
				return models.SubtitleCandidate{}, err
			}
			if ok {
				return candidate, nil
			}
		case xml.EndElement:
			// Document element closed; anything after it is ignored.
			c.done = true
			return models.SubtitleCandidate{}, io.EOF
		}
	}
}

// parseSubtitle reads the children of one <subtitle> element.
// It reports false for an element without children.
func (c *SearchCursor) parseSubtitle() (models.SubtitleCandidate, bool, error) {
	logger := config.GetLogger()

	candidate := models.SubtitleCandidate{
		Provider: models.ProviderName,
		Format:   models.DefaultSubtitleFormat,
	}
	var id strings.Builder
	children := 0

	for {
		if err := c.ctx.Err(); err != nil {
			return models.SubtitleCandidate{}, false, err
		}

		tok, err := c.dec.Token()
		if err != nil {
			return models.SubtitleCandidate{}, false, fmt.Errorf("failed to read <subtitle>: %w", eofIsUnexpected(err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			children++
			if err := c.readField(t, &candidate, &id); err != nil {
				return models.SubtitleCandidate{}, false, err
			}
		case xml.EndElement:
			if children == 0 {
				return models.SubtitleCandidate{}, false, nil
			}
			candidate.ID = id.String()

			logger.Debug().
				Str("id", candidate.ID).
				Str("name", candidate.Name).
				Str("language", candidate.Language).
				Msg("Successfully extracted subtitle candidate")
			return candidate, true, nil
		}
	}
}

func (c *SearchCursor) readField(start xml.StartElement, candidate *models.SubtitleCandidate, id *strings.Builder) error {
	numbers := c.parser.opts.Numbers

	switch start.Name.Local {
	case "pid":
		text, err := c.readText(start)
		if err != nil {
			return err
		}
		id.WriteString(text + ",")
	case "release":
		text, err := c.readText(start)
		if err != nil {
			return err
		}
		candidate.Name = text
	case "url":
		text, err := c.readText(start)
		if err != nil {
			return err
		}
		slug, err := titleSlug(text)
		if err != nil {
			return err
		}
		id.WriteString(slug + ",")
	case "language":
		raw, err := c.readText(start)
		if err != nil {
			return err
		}
		candidate.Language = raw
		if c.parser.normalizer != nil {
			candidate.Language = c.parser.normalizer.Normalize(raw)
		}
		id.WriteString(raw + ",")
	case "rating":
		text, err := c.readText(start)
		if err != nil {
			return err
		}
		if rating, ok := numbers.ParseFloat(text); ok {
			candidate.Rating = &rating
		}
	case "downloads":
		text, err := c.readText(start)
		if err != nil {
			return err
		}
		if downloads, ok := numbers.ParseInt(text); ok {
			candidate.DownloadCount = &downloads
		}
	default:
		if err := c.dec.Skip(); err != nil {
			return fmt.Errorf("failed to skip <%s>: %w", start.Name.Local, err)
		}
	}
	return nil
}

// readText returns the character data of the element opened by start, whitespace included.
// Nested elements are skipped.
func (c *SearchCursor) readText(start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return "", fmt.Errorf("failed to read <%s>: %w", start.Name.Local, eofIsUnexpected(err))
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if err := c.dec.Skip(); err != nil {
				return "", fmt.Errorf("failed to skip <%s>: %w", t.Name.Local, err)
			}
		case xml.EndElement:
			text, err := c.expandEntities(sb.String())
			if err != nil {
				return "", err
			}
			return text, nil
		}
	}
}

// titleSlug extracts the slug from a subtitle detail URL
func titleSlug(rawURL string) (string, error) {
	segments := strings.Split(rawURL, "/")
	if len(segments) <= slugSegment {
		return "", &apperrors.ErrMalformedInput{
			Field:  "subtitle url",
			Value:  rawURL,
			Reason: fmt.Sprintf("expected at least %d '/'-separated segments, got %d", slugSegment+1, len(segments)),
		}
	}
	return segments[slugSegment], nil
}

func eofIsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
