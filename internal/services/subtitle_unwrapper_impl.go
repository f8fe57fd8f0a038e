package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/models"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/nwaples/rardecode/v2"
)

// maxUncompressedSize is the largest subtitle entry we are willing to decompress (20 MB).
// Subtitle files are a few hundred KB at most; anything bigger is treated as a zip bomb.
const maxUncompressedSize = 20 * 1024 * 1024

type containerKind int

const (
	containerUnknown containerKind = iota
	containerZip
	containerRar
	containerGzip
)

func (k containerKind) String() string {
	switch k {
	case containerZip:
		return "zip"
	case containerRar:
		return "rar"
	case containerGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

var (
	zipLocalHeader = []byte("PK\x03\x04")
	zipEmptyEnd    = []byte("PK\x05\x06")
	rarSignature   = []byte("Rar!\x1a\x07")
	gzipSignature  = []byte{0x1f, 0x8b}
)

// detectContainer identifies the archive format from its magic bytes
func detectContainer(content []byte) containerKind {
	switch {
	case bytes.HasPrefix(content, zipLocalHeader), bytes.HasPrefix(content, zipEmptyEnd):
		return containerZip
	case bytes.HasPrefix(content, rarSignature):
		return containerRar
	case bytes.HasPrefix(content, gzipSignature):
		return containerGzip
	default:
		return containerUnknown
	}
}

// DefaultSubtitleUnwrapper implements SubtitleUnwrapper
type DefaultSubtitleUnwrapper struct {
	maxSize int64
}

// NewSubtitleUnwrapper creates a new unwrapper with the default entry size limit
func NewSubtitleUnwrapper() SubtitleUnwrapper {
	return &DefaultSubtitleUnwrapper{maxSize: maxUncompressedSize}
}

// Unwrap extracts the first non-directory entry of content. Later entries are ignored.
func (u *DefaultSubtitleUnwrapper) Unwrap(content []byte) (*UnwrappedSubtitle, error) {
	logger := config.GetLogger()

	kind := detectContainer(content)
	logger.Debug().
		Str("container", kind.String()).
		Int("size", len(content)).
		Msg("Unwrapping downloaded subtitle")

	var (
		name string
		data []byte
		err  error
	)
	switch kind {
	case containerZip:
		name, data, err = u.firstZipEntry(content)
	case containerRar:
		name, data, err = u.firstRarEntry(content)
	case containerGzip:
		name, data, err = u.gzipEntry(content)
	default:
		return nil, apperrors.NewArchiveError("unrecognised container format", nil)
	}
	if err != nil {
		return nil, err
	}

	filename := sanitizeFilename(name)
	result := &UnwrappedSubtitle{
		Filename: filename,
		Format:   formatFromFilename(filename),
		Content:  data,
	}

	logger.Info().
		Str("container", kind.String()).
		Str("filename", result.Filename).
		Str("format", result.Format).
		Int("size", len(result.Content)).
		Msg("Extracted subtitle from archive")

	return result, nil
}

func (u *DefaultSubtitleUnwrapper) firstZipEntry(content []byte) (string, []byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", nil, apperrors.NewArchiveError("failed to open ZIP archive", err)
	}

	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if file.UncompressedSize64 > uint64(u.maxSize) {
			return "", nil, apperrors.NewArchiveError(
				fmt.Sprintf("entry %s declares %d bytes, over the %d byte limit", file.Name, file.UncompressedSize64, u.maxSize), nil)
		}

		rc, err := file.Open()
		if err != nil {
			return "", nil, apperrors.NewArchiveError(fmt.Sprintf("failed to open %s in ZIP", file.Name), err)
		}
		defer rc.Close()

		data, err := u.readLimited(rc, file.Name)
		if err != nil {
			return "", nil, err
		}
		return file.Name, data, nil
	}

	return "", nil, apperrors.NewArchiveError(fmt.Sprintf("ZIP archive has no file entries (searched %d entries)", len(zipReader.File)), nil)
}

func (u *DefaultSubtitleUnwrapper) firstRarEntry(content []byte) (string, []byte, error) {
	rarReader, err := rardecode.NewReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, apperrors.NewArchiveError("failed to open RAR archive", err)
	}

	entries := 0
	for {
		header, err := rarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, apperrors.NewArchiveError("failed to read RAR entry", err)
		}
		entries++
		if header.IsDir {
			continue
		}

		data, err := u.readLimited(rarReader, header.Name)
		if err != nil {
			return "", nil, err
		}
		return header.Name, data, nil
	}

	return "", nil, apperrors.NewArchiveError(fmt.Sprintf("RAR archive has no file entries (searched %d entries)", entries), nil)
}

func (u *DefaultSubtitleUnwrapper) gzipEntry(content []byte) (string, []byte, error) {
	gzipReader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, apperrors.NewArchiveError("failed to open gzip stream", err)
	}
	defer gzipReader.Close()

	data, err := u.readLimited(gzipReader, gzipReader.Name)
	if err != nil {
		return "", nil, err
	}
	return gzipReader.Name, data, nil
}

// readLimited reads r fully, failing once more than maxSize bytes come out
func (u *DefaultSubtitleUnwrapper) readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return nil, apperrors.NewArchiveError(fmt.Sprintf("failed to read %s", name), err)
	}
	if int64(len(data)) > u.maxSize {
		return nil, apperrors.NewArchiveError(fmt.Sprintf("entry %s exceeds the %d byte limit", name, u.maxSize), nil)
	}
	return data, nil
}

// sanitizeFilename keeps the base name of an archive entry and makes it valid UTF-8
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return strings.ToValidUTF8(name, "\uFFFD")
}

// formatFromFilename returns the lowercased text after the last '.', or the default format
func formatFromFilename(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return models.DefaultSubtitleFormat
	}
	return strings.ToLower(filename[idx+1:])
}
