// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: github-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GitHubTokenKey is the filename the harvester's API token is read from.
const GitHubTokenKey = "github-token"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// GitHubToken resolves the API token: an explicitly configured value wins,
// then the RS_HARVESTER_TOKEN environment variable, then the github-token
// secret file. An empty result means the harvester runs unauthenticated.
func GitHubToken(configured, dir string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("RS_HARVESTER_TOKEN"); env != "" {
		return env
	}
	loaded, err := Load(dir)
	if err != nil {
		return ""
	}
	return loaded[GitHubTokenKey]
}
