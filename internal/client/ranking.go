package client

import (
	"cmp"
	"slices"

	"github.com/Belphemur/PodnapisiClient/internal/models"
)

// RankCandidates orders candidates by download count, highest first.
// Candidates without a count sort last; ties keep document order.
func RankCandidates(candidates []models.SubtitleCandidate) {
	slices.SortStableFunc(candidates, compareDownloads)
}

func compareDownloads(a, b models.SubtitleCandidate) int {
	switch {
	case a.DownloadCount == nil && b.DownloadCount == nil:
		return 0
	case a.DownloadCount == nil:
		return 1
	case b.DownloadCount == nil:
		return -1
	}
	return cmp.Compare(*b.DownloadCount, *a.DownloadCount)
}
