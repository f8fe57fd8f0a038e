package language

// Normalizer maps arbitrary language tokens to three-letter ISO 639 codes
type Normalizer struct {
	finder Finder
}

// NewNormalizer creates a normalizer backed by finder, or by NewFinder when finder is nil
func NewNormalizer(finder Finder) *Normalizer {
	if finder == nil {
		finder = NewFinder()
	}
	return &Normalizer{finder: finder}
}

// Normalize returns the three-letter code for token.
// An unknown token is returned unchanged and an empty token stays empty.
func (n *Normalizer) Normalize(token string) string {
	if token == "" {
		return token
	}
	if info, ok := n.finder.FindLanguage(token); ok && info.ThreeLetterISO != "" {
		return info.ThreeLetterISO
	}
	return token
}
