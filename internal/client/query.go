package client

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Belphemur/PodnapisiClient/internal/models"
)

const (
	searchPath = "/subtitles/search/old"

	paramXML     = "sXML"
	paramLang    = "sL"
	paramKeyword = "sK"
	paramSeason  = "sTS"
	paramEpisode = "sTE"
	paramYear    = "sY"
)

// BuildSearchURL builds the legacy XML search URL for query.
// It reports false when the query asks for a filter the endpoint cannot apply
// (forced subtitles or perfect matches), in which case nothing should be requested.
func BuildSearchURL(baseURL string, query models.SearchQuery) (string, bool) {
	if query.Forced != nil || query.PerfectMatch {
		return "", false
	}

	params := url.Values{}
	params.Set(paramXML, "1")
	params.Set(paramLang, query.Language)
	params.Set(paramKeyword, query.Keyword())
	if query.Season != nil {
		params.Set(paramSeason, strconv.Itoa(*query.Season))
	}
	if query.Episode != nil {
		params.Set(paramEpisode, strconv.Itoa(*query.Episode))
	}
	if query.Year != nil {
		params.Set(paramYear, strconv.Itoa(*query.Year))
	}

	return strings.TrimRight(baseURL, "/") + searchPath + "?" + params.Encode(), true
}

// BuildDownloadURL builds the download URL of the subtitle identified by id
func BuildDownloadURL(baseURL string, id models.CandidateID) string {
	return strings.Join([]string{
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(id.Language),
		"subtitles",
		url.PathEscape(id.TitleSlug),
		url.PathEscape(id.ProviderID),
		"download",
	}, "/")
}
