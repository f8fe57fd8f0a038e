package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Provider operation metrics. The status label is an apperrors.Kind string.
var (
	SubtitleSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_searches_total",
			Help: "Total number of subtitle searches.",
		},
		[]string{"status"},
	)

	SubtitleCandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subtitle_candidates_total",
			Help: "Total number of subtitle candidates returned by searches.",
		},
	)

	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)

	SubtitleDownloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subtitle_download_bytes",
			Help:    "Size of extracted subtitle files in bytes.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(
		SubtitleSearchesTotal,
		SubtitleCandidatesTotal,
		SubtitleDownloadsTotal,
		SubtitleDownloadBytes,
	)
}
