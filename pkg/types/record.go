// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReferenceMode classifies a publication identifier. Identifiers carry a
// priority-ordered fallback: DOI preferred, then arXiv ID, then raw title.
type ReferenceMode string

const (
	RefDOI   ReferenceMode = "doi"
	RefArxiv ReferenceMode = "arxiv_id"
	RefTitle ReferenceMode = "title"
)

// ReferenceEntry is a publication identifier as stored in repository
// reference lists and as the identity key of publication records.
type ReferenceEntry struct {
	ID   string        `bson:"id" json:"id" yaml:"id"`
	Mode ReferenceMode `bson:"mode" json:"mode" yaml:"mode"`
}

// Subject holds the discipline hierarchy assigned to a research-software
// repository: a supergroup (main subject), groups, and optional subgroups.
type Subject struct {
	Supergroup []string `json:"supergroup" yaml:"supergroup"`
	Groups     []string `json:"groups" yaml:"groups"`
	Subgroups  []string `json:"subgroups,omitempty" yaml:"subgroups,omitempty"`
}

// Publication holds the metadata harvested for one arXiv publication.
type Publication struct {
	Source      string    `bson:"source" json:"source"`
	RequestDate time.Time `bson:"request_date" json:"request_date"`
	ArxivID     string    `bson:"arxiv_id" json:"arxiv_id"`
	DOI         string    `bson:"doi" json:"doi"`
	Title       string    `bson:"title" json:"title"`
	Published   string    `bson:"published" json:"published"`
	Updated     string    `bson:"updated" json:"updated"`
	URL         string    `bson:"url" json:"url"`
	DOIURL      string    `bson:"DOI_url" json:"DOI_url"`
	PDFURL      string    `bson:"pdf_url" json:"pdf_url"`

	// PrimaryCategory is the first arXiv category tag; AllCategories joins
	// every tag with ", ".
	PrimaryCategory string `bson:"primary_category" json:"primary_category"`
	AllCategories   string `bson:"all_categories" json:"all_categories"`

	JournalRef    string `bson:"journal_ref" json:"journal_ref"`
	Summary       string `bson:"summary" json:"summary"`
	SummaryDetail string `bson:"summary_detail" json:"summary_detail"`
	Comment       string `bson:"arxiv_comment" json:"arxiv_comment"`
}
