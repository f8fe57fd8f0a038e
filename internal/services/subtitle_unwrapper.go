package services

// UnwrappedSubtitle is the single subtitle file taken out of a downloaded container
type UnwrappedSubtitle struct {
	Filename string // Base name of the entry, valid UTF-8, may be empty
	Format   string // Lowercased extension without the dot, "srt" when unknown
	Content  []byte
}

// SubtitleUnwrapper defines the interface for extracting a subtitle from a downloaded archive
type SubtitleUnwrapper interface {
	// Unwrap returns the first file entry of a ZIP, RAR or gzip container
	Unwrap(content []byte) (*UnwrappedSubtitle, error)
}
