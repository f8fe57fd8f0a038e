package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Belphemur/PodnapisiClient/internal/apperrors"
	"github.com/Belphemur/PodnapisiClient/internal/config"
)

// entityMarker prefixes the placeholder the decoder substitutes for a DTD entity reference.
// The rune after it is privateUseBase+index into SearchCursor.entityValues.
// Noncharacters are stripped from the input by NewUTF8Reader, so the marker is unambiguous.
const (
	entityMarker    = '\uFDD0'
	privateUseBase  = 0xE000
	maxDTDEntities  = 0xF8FF - privateUseBase
	entityFieldName = "xml entity"
)

// internalEntity matches general entities with a literal value. Parameter entities (%)
// and external entities (SYSTEM/PUBLIC) do not match and are never resolved.
var internalEntity = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_][\w.\-]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// valueReference matches the predefined and character references allowed in an entity value.
// References to other general entities are left as written.
var valueReference = regexp.MustCompile(`&(?:(lt|gt|amp|apos|quot)|#([0-9]+)|#x([0-9A-Fa-f]+));`)

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": `"`,
}

// registerEntities declares the internal entities of a DOCTYPE to the decoder as placeholders.
// Expansion happens in expandEntities, where the produced characters are counted.
func (c *SearchCursor) registerEntities(directive xml.Directive) {
	if !bytes.HasPrefix(bytes.TrimSpace(directive), []byte("DOCTYPE")) {
		return
	}
	logger := config.GetLogger()

	for _, m := range internalEntity.FindAllSubmatch(directive, -1) {
		name := string(m[1])
		if _, exists := c.dec.Entity[name]; exists {
			// XML keeps the first declaration.
			continue
		}
		if len(c.entityValues) >= maxDTDEntities {
			logger.Warn().Str("entity", name).Msg("Ignoring DTD entity, too many declarations")
			continue
		}

		value := m[2]
		if value == nil {
			value = m[3]
		}
		c.dec.Entity[name] = string([]rune{entityMarker, rune(privateUseBase + len(c.entityValues))})
		c.entityValues = append(c.entityValues, decodeEntityValue(string(value)))
	}

	logger.Debug().Int("entities", len(c.entityValues)).Msg("Registered DTD entities")
}

// decodeEntityValue resolves predefined and character references in a declared value.
// Invalid code points are dropped.
func decodeEntityValue(value string) string {
	if !strings.ContainsRune(value, '&') {
		return value
	}
	return valueReference.ReplaceAllStringFunc(value, func(ref string) string {
		m := valueReference.FindStringSubmatch(ref)
		if m[1] != "" {
			return predefinedEntities[m[1]]
		}
		digits, base := m[2], 10
		if digits == "" {
			digits, base = m[3], 16
		}
		code, err := strconv.ParseInt(digits, base, 32)
		if err != nil || !utf8.ValidRune(rune(code)) || isIllegalXMLChar(rune(code)) {
			return ""
		}
		return string(rune(code))
	})
}

// expandEntities replaces entity placeholders in text with their values, charging
// every produced character against the cursor's expansion budget.
func (c *SearchCursor) expandEntities(text string) (string, error) {
	if !strings.ContainsRune(text, entityMarker) {
		return text, nil
	}

	var sb strings.Builder
	pending := false
	for _, r := range text {
		if !pending {
			if r == entityMarker {
				pending = true
				continue
			}
			sb.WriteRune(r)
			continue
		}

		pending = false
		idx := int(r) - privateUseBase
		if idx < 0 || idx >= len(c.entityValues) {
			continue
		}
		value := c.entityValues[idx]
		size := utf8.RuneCountInString(value)
		if size > c.entityBudget {
			return "", &apperrors.ErrMalformedInput{
				Field:  entityFieldName,
				Value:  value,
				Reason: fmt.Sprintf("entity expansion exceeds the limit of %d characters", c.parser.opts.MaxEntityChars),
			}
		}
		c.entityBudget -= size
		sb.WriteString(value)
	}
	return sb.String(), nil
}
