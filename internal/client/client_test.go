package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/metrics"
	"github.com/Belphemur/PodnapisiClient/internal/models"
	"github.com/Belphemur/PodnapisiClient/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const testUserAgent = "podnapisi-test/1.0"

func newTestClient(t *testing.T, serverURL string) Client {
	t.Helper()
	cfg := &config.Config{
		PodnapisiDomain: serverURL,
		ClientTimeout:   "10s",
		UserAgent:       testUserAgent,
	}
	c := NewClient(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// countingServer serves handler and counts the requests it receives
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestClient_Metadata(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "http://127.0.0.1:0")

	if c.Name() != "Podnapisi" {
		t.Errorf("Expected name 'Podnapisi', got %q", c.Name())
	}
	if c.Priority() != 2 {
		t.Errorf("Expected priority 2, got %d", c.Priority())
	}
	kinds := c.SupportedMediaKinds()
	if !reflect.DeepEqual(kinds, []models.MediaKind{models.MediaKindEpisode, models.MediaKindMovie}) {
		t.Errorf("Unexpected media kinds %v", kinds)
	}
	kinds[0] = models.MediaKindUnknown
	if c.SupportedMediaKinds()[0] != models.MediaKindEpisode {
		t.Error("Expected SupportedMediaKinds to return a copy")
	}
}

func TestClient_Search(t *testing.T) {
	t.Parallel()
	xmlBody := testutil.GenerateSearchXML([]testutil.SubtitleEntryOptions{
		{PID: "a1", Release: "Show.S01E02.HDTV", URL: testutil.DetailURL("show-2007"), Language: "en", Rating: "4.5", Downloads: "5"},
		{PID: "b2", Release: "Show.S01E02.NoCount", URL: testutil.DetailURL("show-2007"), Language: "en"},
		{PID: "c3", Release: "Show.S01E02.WEB", URL: testutil.DetailURL("show-2007"), Language: "en", Downloads: "50"},
	})

	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subtitles/search/old" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("sXML") != "1" || q.Get("sL") != "en" || q.Get("sK") != "Show" || q.Get("sTS") != "1" || q.Get("sTE") != "2" {
			t.Errorf("Unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != testUserAgent {
			t.Errorf("Expected User-Agent %q, got %q", testUserAgent, r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write([]byte(xmlBody))
	})

	c := newTestClient(t, server.URL)
	candidates, err := c.Search(context.Background(), models.SearchQuery{
		Title:      "Pilot",
		SeriesName: testutil.StringPtr("Show"),
		Season:     testutil.IntPtr(1),
		Episode:    testutil.IntPtr(2),
		Language:   "en",
		MediaKind:  models.MediaKindEpisode,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 request, got %d", calls.Load())
	}

	var names []string
	for _, candidate := range candidates {
		names = append(names, candidate.Name)
	}
	want := []string{"Show.S01E02.WEB", "Show.S01E02.HDTV", "Show.S01E02.NoCount"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected ranked order %v, got %v", want, names)
	}
	if candidates[1].ID != "a1,show-2007,en," || candidates[1].Language != "eng" {
		t.Errorf("Unexpected candidate %+v", candidates[1])
	}
	if candidates[0].Provider != "Podnapisi" || candidates[0].Format != "srt" {
		t.Errorf("Unexpected candidate metadata %+v", candidates[0])
	}
}

func TestClient_Search_NotFoundIsEmpty(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	candidates, err := newTestClient(t, server.URL).Search(context.Background(), models.SearchQuery{Title: "Nothing", Language: "en"})
	if err != nil {
		t.Fatalf("Expected no error for 404, got: %v", err)
	}
	if candidates == nil || len(candidates) != 0 {
		t.Errorf("Expected empty non-nil list, got %#v", candidates)
	}
}

func TestClient_Search_EmptyResults(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateEmptySearchXML()))
	})

	candidates, err := newTestClient(t, server.URL).Search(context.Background(), models.SearchQuery{Title: "Nothing", Language: "en"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates == nil || len(candidates) != 0 {
		t.Errorf("Expected empty non-nil list, got %#v", candidates)
	}
}

func TestClient_Search_ServerError(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := newTestClient(t, server.URL).Search(context.Background(), models.SearchQuery{Title: "x", Language: "en"})
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	var transportErr *apperrors.ErrTransport
	if !errors.As(err, &transportErr) || transportErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected ErrTransport with status 500, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindTransport {
		t.Errorf("Expected transport kind, got %s", apperrors.KindOf(err))
	}
}

func TestClient_Search_UnsupportedFiltersMakeNoRequest(t *testing.T) {
	t.Parallel()
	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateEmptySearchXML()))
	})
	c := newTestClient(t, server.URL)

	queries := []models.SearchQuery{
		{Title: "x", Language: "en", Forced: testutil.BoolPtr(true)},
		{Title: "x", Language: "en", Forced: testutil.BoolPtr(false)},
		{Title: "x", Language: "en", PerfectMatch: true},
	}
	for _, q := range queries {
		candidates, err := c.Search(context.Background(), q)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if candidates == nil || len(candidates) != 0 {
			t.Errorf("Expected empty list, got %#v", candidates)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("Expected zero requests, got %d", calls.Load())
	}
}

func TestClient_Search_MalformedURLAborts(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateSearchXML([]testutil.SubtitleEntryOptions{
			{PID: "1", URL: testutil.DetailURL("ok"), Language: "en", Downloads: "9"},
			{PID: "2", URL: "https://short/url", Language: "en"},
		})))
	})

	candidates, err := newTestClient(t, server.URL).Search(context.Background(), models.SearchQuery{Title: "x", Language: "en"})
	if !errors.Is(err, &apperrors.ErrMalformedInput{}) {
		t.Fatalf("Expected ErrMalformedInput, got %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected no partial results, got %+v", candidates)
	}
}

func TestClient_Search_ContextCancelled(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateEmptySearchXML()))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).Search(ctx, models.SearchQuery{Title: "x", Language: "en"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestClient_Search_RecordsMetrics(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateEmptySearchXML()))
	})
	c := newTestClient(t, server.URL)

	beforeOK := getCounterVecValue(metrics.SubtitleSearchesTotal, "ok")
	beforeSkipped := getCounterVecValue(metrics.SubtitleSearchesTotal, "skipped")

	if _, err := c.Search(context.Background(), models.SearchQuery{Title: "x", Language: "en"}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if _, err := c.Search(context.Background(), models.SearchQuery{Title: "x", Language: "en", PerfectMatch: true}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if after := getCounterVecValue(metrics.SubtitleSearchesTotal, "ok"); after < beforeOK+1 {
		t.Errorf("Expected ok counter to increment, before %.0f after %.0f", beforeOK, after)
	}
	if after := getCounterVecValue(metrics.SubtitleSearchesTotal, "skipped"); after < beforeSkipped+1 {
		t.Errorf("Expected skipped counter to increment, before %.0f after %.0f", beforeSkipped, after)
	}
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()
	subtitle := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	archive := testutil.CreateTestZip(t, []testutil.ArchiveEntry{{Name: "movie.srt", Content: subtitle}})

	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/en/subtitles/show-2007/kNo9/download" {
			t.Errorf("Unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("User-Agent") != testUserAgent {
			t.Errorf("Expected User-Agent %q, got %q", testUserAgent, r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	})

	content, err := newTestClient(t, server.URL).Fetch(context.Background(), "kNo9,show-2007,en,")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 request, got %d", calls.Load())
	}
	if content.Format != "srt" {
		t.Errorf("Expected format 'srt', got %q", content.Format)
	}
	if content.Language != "eng" {
		t.Errorf("Expected language 'eng', got %q", content.Language)
	}
	if content.Filename != "movie.srt" || content.Size != len(subtitle) {
		t.Errorf("Unexpected filename/size %q/%d", content.Filename, content.Size)
	}

	data, err := io.ReadAll(content.Content)
	if err != nil {
		t.Fatalf("Failed to read content: %v", err)
	}
	if string(data) != subtitle {
		t.Errorf("Expected exact subtitle bytes, got %q", data)
	}
}

func TestClient_Fetch_DefaultFormat(t *testing.T) {
	t.Parallel()
	archive := testutil.CreateTestZip(t, []testutil.ArchiveEntry{{Name: "subtitle", Content: "x"}})
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	content, err := newTestClient(t, server.URL).Fetch(context.Background(), "1,slug,sl")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if content.Format != "srt" {
		t.Errorf("Expected default format 'srt', got %q", content.Format)
	}
	if content.Language != "slv" {
		t.Errorf("Expected language 'slv', got %q", content.Language)
	}
}

func TestClient_Fetch_MalformedIDMakesNoRequest(t *testing.T) {
	t.Parallel()
	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, server.URL)

	for _, id := range []string{"kNo9,show-2007", "", "a,,en,", ",b,c"} {
		_, err := c.Fetch(context.Background(), id)
		if !errors.Is(err, &apperrors.ErrMalformedInput{}) {
			t.Errorf("Fetch(%q): expected ErrMalformedInput, got %v", id, err)
		}
		if apperrors.KindOf(err) != apperrors.KindMalformedInput {
			t.Errorf("Fetch(%q): expected malformed kind, got %s", id, apperrors.KindOf(err))
		}
	}
	if calls.Load() != 0 {
		t.Errorf("Expected zero requests, got %d", calls.Load())
	}
}

func TestClient_Fetch_Errors(t *testing.T) {
	t.Parallel()
	emptyZip := testutil.CreateTestZip(t, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    apperrors.Kind
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    apperrors.KindNotFound,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    apperrors.KindTransport,
		},
		{
			name:    "not an archive",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>rate limited</html>")) },
			want:    apperrors.KindArchive,
		},
		{
			name:    "empty archive",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(emptyZip) },
			want:    apperrors.KindArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, _ := countingServer(t, tt.handler)

			content, err := newTestClient(t, server.URL).Fetch(context.Background(), "1,slug,en,")
			if err == nil {
				t.Fatalf("Expected error, got content %+v", content)
			}
			if got := apperrors.KindOf(err); got != tt.want {
				t.Errorf("Expected kind %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestClient_SearchThenFetchRoundTrip(t *testing.T) {
	t.Parallel()
	archive := testutil.CreateTestZip(t, []testutil.ArchiveEntry{{Name: "Show.S01E01.ass", Content: "[Script Info]"}})

	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subtitles/search/old":
			_, _ = w.Write([]byte(testutil.GenerateSearchXML([]testutil.SubtitleEntryOptions{
				{PID: "Zx1", Release: "Show.S01E01", URL: testutil.DetailURL("show-2010"), Language: "pt-br", Downloads: "3"},
			})))
		case "/pt-br/subtitles/show-2010/Zx1/download":
			_, _ = w.Write(archive)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, server.URL)

	candidates, err := c.Search(context.Background(), models.SearchQuery{Title: "Show", Language: "pt"})
	if err != nil || len(candidates) != 1 {
		t.Fatalf("Expected one candidate, got %v, %v", candidates, err)
	}

	content, err := c.Fetch(context.Background(), candidates[0].ID)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content.Format != "ass" || content.Language != "por" {
		t.Errorf("Unexpected content %q/%q", content.Format, content.Language)
	}
}

func TestClient_Search_UnparsableCountRanksLast(t *testing.T) {
	t.Parallel()
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.GenerateSearchXML([]testutil.SubtitleEntryOptions{
			{PID: "1", URL: testutil.DetailURL("c"), Language: "en", Downloads: "-5"},
			{PID: "2", URL: testutil.DetailURL("c"), Language: "en", Downloads: "n/a"},
		})))
	})

	candidates, err := newTestClient(t, server.URL).Search(context.Background(), models.SearchQuery{Title: "x", Language: "en"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "1,c,en," || candidates[0].DownloadCount == nil || *candidates[0].DownloadCount != -5 {
		t.Errorf("Expected the parsed negative count first, got %+v", candidates[0])
	}
	if candidates[1].ID != "2,c,en," || candidates[1].DownloadCount != nil {
		t.Errorf("Expected the unset count last, got %+v", candidates[1])
	}
}
