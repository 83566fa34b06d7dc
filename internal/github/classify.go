// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"context"
	"strings"
)

// nonSourceIdentifiers are filename fragments that never indicate source
// code. A repository whose listing consists only of such files is not
// classified as research software.
var nonSourceIdentifiers = []string{"readme", "license", "gitignore"}

type contentEntry struct {
	Name string `json:"name"`
}

// HasNoSourceCode reports whether a repository's top-level file listing
// indicates the absence of source code. A failed content fetch classifies
// as true: absence of data is deliberately treated the same as a confirmed
// empty repository, a false-positive-safe policy inherited from the
// harvesting design (transient fetch errors therefore read as "no source
// code" too).
func (c *Client) HasNoSourceCode(ctx context.Context, name string, remaining int) (bool, int, error) {
	content, rem, err := c.GetAPIResponse(ctx, CategoryContent, name, remaining, "")
	if err != nil {
		return true, rem, err
	}
	if content == nil {
		return true, rem, nil
	}

	var entries []contentEntry
	if err := content.JSON(&entries); err != nil {
		return true, rem, nil
	}

	if len(entries) > len(nonSourceIdentifiers) {
		return false, rem, nil
	}
	for _, e := range entries {
		if !matchesNonSource(e.Name) {
			return false, rem, nil
		}
	}
	return true, rem, nil
}

func matchesNonSource(name string) bool {
	lower := strings.ToLower(name)
	for _, id := range nonSourceIdentifiers {
		if strings.Contains(lower, id) {
			return true
		}
	}
	return false
}
