// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

import (
	"strings"

	"github.com/pdiddy/rs-harvester/pkg/types"
)

// junkSuffixes are fragments that free-text extraction glues onto the end
// of repository and DOI names: trailing sentence words, download-link path
// segments, and session cruft.
var junkSuffixes = []string{
	".git", ".The", "pdf", ".svg", ".In", "fulltext", "meta",
	".html", "abstract", ".To", "full", "status", "epdf",
	"jsessionid", "users", "badges", "issuetoc", "suppinfo",
}

// NewEntry selects the best available identifier for a publication:
// DOI first, then the DOI recovered from an external link, then the
// arXiv ID, then the raw title. includeDOI false skips both DOI forms,
// which is how a previously-reconciled bad DOI is kept out of new
// entries. ok is false when the publication carries no usable identifier.
func NewEntry(pub types.Publication, doiFromLink string, includeDOI bool) (entry types.ReferenceEntry, ok bool) {
	switch {
	case includeDOI && pub.DOI != "":
		return types.ReferenceEntry{ID: pub.DOI, Mode: types.RefDOI}, true
	case includeDOI && doiFromLink != "":
		return types.ReferenceEntry{ID: doiFromLink, Mode: types.RefDOI}, true
	case pub.ArxivID != "":
		return types.ReferenceEntry{ID: pub.ArxivID, Mode: types.RefArxiv}, true
	case pub.Title != "":
		return types.ReferenceEntry{ID: pub.Title, Mode: types.RefTitle}, true
	}
	return types.ReferenceEntry{}, false
}

// TrimNameSuffix strips one junk suffix, or a single trailing
// non-alphanumeric rune, from an extracted name. ok is false when the
// name ends cleanly and needs no truncation.
func TrimNameSuffix(name string) (string, bool) {
	for _, suffix := range junkSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), true
		}
	}
	if name != "" && !isAlnum(name[len(name)-1]) {
		return name[:len(name)-1], true
	}
	return "", false
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
