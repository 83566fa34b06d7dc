// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"encoding/json"
	"net/http"
)

// Category selects one of the fixed core endpoint shapes.
type Category string

const (
	// CategoryUser lists the repositories of a user.
	CategoryUser Category = "user"
	// CategoryMetadata fetches a repository's metadata document.
	CategoryMetadata Category = "metadata"
	// CategoryContent lists the top-level files of a repository.
	CategoryContent Category = "content"
	// CategoryCommit fetches the most recent commit (single-entry page).
	CategoryCommit Category = "commit"
	// CategoryReadme fetches the readme in raw media type.
	CategoryReadme Category = "readme"
	// CategoryLanguage fetches the language breakdown.
	CategoryLanguage Category = "language"
)

// Repo is the subset of a search result item the harvester persists.
type Repo struct {
	ID          int64  `json:"id" bson:"id"`
	FullName    string `json:"full_name" bson:"full_name"`
	Description string `json:"description" bson:"description"`
	HTMLURL     string `json:"html_url" bson:"html_url"`
	Language    string `json:"language" bson:"language"`
	CreatedAt   string `json:"created_at" bson:"created_at"`
	Stars       int    `json:"stargazers_count" bson:"stargazers_count"`
	Fork        bool   `json:"fork" bson:"fork"`
	Owner       Owner  `json:"owner" bson:"owner"`
}

// Owner identifies the account a repository belongs to.
type Owner struct {
	Login string `json:"login" bson:"login"`
	Type  string `json:"type" bson:"type"`
}

// SearchResult is the body of one search result page.
type SearchResult struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []Repo `json:"items"`
}

// Response is a fully read API response: status, headers, and body bytes.
// A nil *Response from client methods means "no data available this round",
// never a hard failure.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
