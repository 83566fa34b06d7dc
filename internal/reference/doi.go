// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reference extracts publication identifiers from free text and
// normalizes them into the reference entries the store keys on.
package reference

import (
	"regexp"
	"strings"
)

// DOI names are case insensitive; everything extracted here is lowercased
// so the store never holds two casings of the same name.
var (
	// generalPattern matches full DOI names, tolerating blanks around the
	// dot and the forward slash as they appear in prose and line-wrapped
	// readme text.
	generalPattern = regexp.MustCompile(`(10 ?\. ?[0-9]{4,}(?:[.][0-9]+)* ?/ ?[-._;()/:A-Za-z0-9]+)`)
	// shortPattern matches shortDOI handles (10/abcde), which never start
	// with a second "10" segment.
	shortPattern = regexp.MustCompile("((?:doi\\.org| 10|doi\\.org/10|doi ?: ?10)/[a-zA-Z0-9]+)[`\\s><.)]")
)

// Extracted names that are part of a download link keep the link's file
// extension; those extensions are stripped.
var ignoredExtensions = []string{".pdf", ".svg"}

// ExtractDOIs returns every DOI name found in fragment, lowercased, in
// order of appearance. Full names come first, then shortDOI handles
// normalized to their "10/<suffix>" form.
func ExtractDOIs(fragment string) []string {
	var dois []string
	for _, doi := range generalPattern.FindAllString(fragment, -1) {
		dois = append(dois, trimExtension(strings.ToLower(doi)))
	}
	for _, m := range shortPattern.FindAllStringSubmatch(fragment, -1) {
		doi := strings.ToLower(m[1])
		if shortHandleExcluded(doi) {
			continue
		}
		suffix := doi[strings.LastIndex(doi, "/")+1:]
		dois = append(dois, "10/"+suffix)
	}
	return dois
}

func trimExtension(doi string) string {
	for _, ext := range ignoredExtensions {
		if strings.HasSuffix(doi, ext) {
			return strings.TrimSuffix(doi, ext)
		}
	}
	return doi
}

// shortHandleExcluded rejects matches whose suffix segment starts with
// "10": those are full DOI prefixes, not shortDOI handles, and the
// general pattern already covers them.
func shortHandleExcluded(doi string) bool {
	suffix := doi[strings.LastIndex(doi, "/")+1:]
	return strings.HasPrefix(suffix, "10")
}
