// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"net/http"
	"strings"
)

// linkEntry is one parsed element of an RFC 5988 style "Link" header:
// a URL in angle brackets followed by semicolon-separated key="value"
// parameters.
type linkEntry struct {
	url    string
	params map[string]string
}

// parseLinkHeader splits the header value into its comma-separated entries.
// Commas inside the angle-bracketed URL do not terminate an entry.
func parseLinkHeader(value string) []linkEntry {
	var entries []linkEntry
	for _, raw := range splitEntries(value) {
		if e, ok := parseEntry(raw); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func splitEntries(value string) []string {
	var parts []string
	var b strings.Builder
	inURL := false
	for _, r := range value {
		switch {
		case r == '<':
			inURL = true
			b.WriteRune(r)
		case r == '>':
			inURL = false
			b.WriteRune(r)
		case r == ',' && !inURL:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func parseEntry(raw string) (linkEntry, bool) {
	fields := strings.Split(raw, ";")
	target := strings.TrimSpace(fields[0])
	if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
		return linkEntry{}, false
	}

	e := linkEntry{
		url:    strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">"),
		params: make(map[string]string, len(fields)-1),
	}
	for _, f := range fields[1:] {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"`)
		e.params[key] = val
	}
	return e, true
}

// relURL returns the URL of the entry whose rel parameter equals rel, or ""
// when the header has no such entry.
func relURL(h http.Header, rel string) string {
	for _, e := range parseLinkHeader(h.Get("Link")) {
		if e.params["rel"] == rel {
			return e.url
		}
	}
	return ""
}

// NextPage extracts the next-page cursor from a response header. An empty
// result signals that pagination is complete.
func NextPage(h http.Header) string {
	return relURL(h, "next")
}

// LastPage extracts the last-page URL, used to reach the oldest commit.
func LastPage(h http.Header) string {
	return relURL(h, "last")
}
