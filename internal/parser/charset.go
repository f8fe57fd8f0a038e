package parser

import (
	"bufio"
	"bytes"
	"io"
	"regexp"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// sniffLen is how much of the document is inspected for a BOM or XML declaration
const sniffLen = 1024

var xmlDeclEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:\-]+)["']`)

// NewUTF8Reader wraps an io.Reader with character encoding detection and conversion to UTF-8,
// then drops the control characters XML 1.0 forbids so a single stray byte does not abort a search.
//
// The charset is detected from:
// 1. Byte order marks (BOM)
// 2. The XML <?xml encoding="..."?> declaration
// 3. The charset parameter of contentType
// 4. Heuristic detection if none of the above are present
func NewUTF8Reader(body io.Reader, contentType string) (io.Reader, error) {
	buffered := bufio.NewReaderSize(body, sniffLen)
	head, _ := buffered.Peek(sniffLen)
	if len(head) == 0 {
		return buffered, nil
	}

	var utf8Reader io.Reader
	if label := declaredEncoding(head); label != "" && !hasBOM(head) {
		if enc, _ := charset.Lookup(label); enc != nil {
			utf8Reader = transform.NewReader(buffered, enc.NewDecoder())
		}
	}
	if utf8Reader == nil {
		var err error
		utf8Reader, err = charset.NewReader(buffered, contentType)
		if err != nil {
			return nil, err
		}
	}

	return transform.NewReader(utf8Reader, runes.Remove(runes.Predicate(isIllegalXMLChar))), nil
}

func declaredEncoding(head []byte) string {
	if m := xmlDeclEncoding.FindSubmatch(head); m != nil {
		return string(m[1])
	}
	return ""
}

func hasBOM(head []byte) bool {
	return bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(head, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(head, []byte{0xFF, 0xFE})
}

func isIllegalXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20:
		return true
	case r == 0xFFFE || r == 0xFFFF:
		return true
	case r >= 0xFDD0 && r <= 0xFDEF:
		// Noncharacters; U+FDD0 is reserved for entity placeholders.
		return true
	default:
		return false
	}
}
