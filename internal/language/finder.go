package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Info describes a resolved language
type Info struct {
	Tag            language.Tag
	Name           string // English display name
	TwoLetterISO   string // ISO 639-1, empty when the language has none
	ThreeLetterISO string // ISO 639-2/T
}

// Finder resolves a free-form language token into language metadata
type Finder interface {
	FindLanguage(token string) (Info, bool)
}

// knownLanguages are the languages whose display names are recognised in addition
// to every code golang.org/x/text can parse.
var knownLanguages = []string{
	"ar", "bg", "bn", "bs", "ca", "cs", "cy", "da", "de", "el", "en", "eo", "es", "et", "eu",
	"fa", "fi", "fr", "ga", "gl", "he", "hi", "hr", "hu", "hy", "id", "is", "it", "ja", "ka",
	"kk", "km", "ko", "ku", "lt", "lv", "mk", "ml", "mn", "ms", "mt", "nb", "nl", "nn", "no",
	"pl", "pt", "ro", "ru", "si", "sk", "sl", "sq", "sr", "sv", "sw", "ta", "te", "th", "tl",
	"tr", "uk", "ur", "uz", "vi", "zh",
}

// tagFinder is the default Finder backed by golang.org/x/text
type tagFinder struct {
	byName map[string]language.Tag
}

// NewFinder returns a Finder that understands BCP 47 tags, ISO 639-1/2/3 codes
// and English or native language names.
func NewFinder() Finder {
	english := display.English.Languages()
	byName := make(map[string]language.Tag, len(knownLanguages)*2)
	for _, code := range knownLanguages {
		tag := language.MustParse(code)
		if name := english.Name(tag); name != "" {
			byName[strings.ToLower(name)] = tag
		}
		if self := display.Self.Name(tag); self != "" {
			byName[strings.ToLower(self)] = tag
		}
	}
	return &tagFinder{byName: byName}
}

func (f *tagFinder) FindLanguage(token string) (Info, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Info{}, false
	}

	tag, err := language.Parse(token)
	if err != nil {
		named, ok := f.byName[strings.ToLower(token)]
		if !ok {
			return Info{}, false
		}
		tag = named
	}
	// Base would infer "en" for the root tag.
	if tag.IsRoot() {
		return Info{}, false
	}

	base, confidence := tag.Base()
	if confidence == language.No {
		return Info{}, false
	}
	iso3 := base.ISO3()
	if iso3 == "" || iso3 == "und" {
		return Info{}, false
	}

	info := Info{
		Tag:            tag,
		Name:           display.English.Languages().Name(tag),
		ThreeLetterISO: iso3,
	}
	if iso2 := base.String(); len(iso2) == 2 {
		info.TwoLetterISO = iso2
	}
	return info, true
}
