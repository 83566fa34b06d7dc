package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "rs-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// HarvestConfig holds settings for the repository harvesting pass.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Token is the GitHub API token. When empty the harvester runs
	// unauthenticated with much longer politeness delays.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// SearchTerms are the search keywords, one harvesting pass per term.
	SearchTerms []string `json:"search_terms" yaml:"search_terms"`

	// Start and End bound the search period (YYYY-MM-DD).
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	// Interval selects the window granularity: "daily" or a compound
	// delta such as "months=6" or "years=1,months=6".
	Interval string `json:"interval" yaml:"interval"`

	// CheckpointPath is the SQLite ledger recording completed windows so an
	// interrupted pass resumes where it stopped (default "harvest.db").
	CheckpointPath string `json:"checkpoint_path" yaml:"checkpoint_path"`

	// Enrich enables the per-repository enrichment step (content listing,
	// commit timeline, readme DOI extraction, language breakdown).
	Enrich bool `json:"enrich" yaml:"enrich"`

	// Group labels the evaluation group research-software records are
	// assigned to (e.g. "keyword_search").
	Group string `json:"group" yaml:"group"`
}

// ArxivConfig holds settings for the arXiv publication harvest.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline"`

	// Start is the index of the first publication to request.
	Start int `json:"start" yaml:"start"`

	// PageSize is the number of entries requested per call (arXiv caps
	// slices at 2000; default 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Wait is the pause between two API calls. The arXiv terms of use ask
	// for no more than one request every three seconds (default 5s).
	Wait time.Duration `json:"wait" yaml:"wait"`
}

// DatabaseConfig identifies the document store and its collections.
type DatabaseConfig struct {
	// URI is the MongoDB connection string (default "mongodb://localhost:27017").
	URI string `json:"uri" yaml:"uri"`

	// Name is the database name (default "rs_harvester").
	Name string `json:"name" yaml:"name"`

	// Collections maps each record kind to its collection name.
	Collections CollectionNames `json:"collections" yaml:"collections"`
}

// CollectionNames holds the per-kind collection names.
type CollectionNames struct {
	Repositories   string `json:"repositories" yaml:"repositories"`
	RsRepositories string `json:"rs_repositories" yaml:"rs_repositories"`
	Publications   string `json:"publications" yaml:"publications"`
}

// Defaults fills zero-valued fields with their documented defaults.
func (c *DatabaseConfig) Defaults() {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Name == "" {
		c.Name = "rs_harvester"
	}
	if c.Collections.Repositories == "" {
		c.Collections.Repositories = "repositories"
	}
	if c.Collections.RsRepositories == "" {
		c.Collections.RsRepositories = "rs_repositories"
	}
	if c.Collections.Publications == "" {
		c.Collections.Publications = "rs_publications"
	}
}

// HarvesterConfig groups all component configurations.
type HarvesterConfig struct {
	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest"`
	Arxiv    ArxivConfig    `json:"arxiv" yaml:"arxiv"`
	Database DatabaseConfig `json:"database" yaml:"database"`
}
