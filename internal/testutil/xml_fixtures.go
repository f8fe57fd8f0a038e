package testutil

import (
	"fmt"
	"html"
	"strings"
)

// SubtitleEntryOptions contains options for generating one <subtitle> element.
// Empty fields are omitted from the output.
type SubtitleEntryOptions struct {
	PID       string
	Title     string // Unrecognised by the parser, emitted to exercise skipping
	Release   string
	URL       string
	Language  string
	Rating    string
	Downloads string
	Extra     string // Raw XML appended inside the element
}

// DetailURL builds a subtitle detail URL whose sixth '/'-separated segment is slug,
// mirroring the layout of the real catalog.
func DetailURL(slug string) string {
	return fmt.Sprintf("https://www.podnapisi.net/subtitles/en-show/%s", slug)
}

// GenerateSearchXML generates a legacy search response with the given subtitle entries
// based on the real podnapisi.net XML layout
func GenerateSearchXML(entries []SubtitleEntryOptions) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<results>
	<pagination>
		<current>1</current>
		<count>1</count>
		<results>` + fmt.Sprint(len(entries)) + `</results>
	</pagination>
`)

	for _, entry := range entries {
		sb.WriteString(GenerateSubtitleXML(entry))
	}

	sb.WriteString("</results>\n")
	return sb.String()
}

// GenerateSubtitleXML generates a single <subtitle> element
func GenerateSubtitleXML(entry SubtitleEntryOptions) string {
	var sb strings.Builder
	sb.WriteString("\t<subtitle>\n")

	writeElement(&sb, "pid", entry.PID)
	writeElement(&sb, "title", entry.Title)
	writeElement(&sb, "release", entry.Release)
	writeElement(&sb, "url", entry.URL)
	writeElement(&sb, "language", entry.Language)
	writeElement(&sb, "rating", entry.Rating)
	writeElement(&sb, "downloads", entry.Downloads)
	if entry.Extra != "" {
		sb.WriteString("\t\t" + entry.Extra + "\n")
	}

	sb.WriteString("\t</subtitle>\n")
	return sb.String()
}

// GenerateEmptySearchXML generates a response without any subtitle
func GenerateEmptySearchXML() string {
	return GenerateSearchXML(nil)
}

func writeElement(sb *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "\t\t<%s>%s</%s>\n", name, html.EscapeString(value), name)
}
