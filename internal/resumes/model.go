// Package resumes implements the resume record domain: the upload pipeline,
// search and filters, the CRUD surface, and the Postgres persistence behind
// them.
package resumes

import "time"

// Resume is a stored resume record together with its associated entity names.
type Resume struct {
	ID             string
	Name           string
	Major          string
	GraduationYear string
	StorageKey     string
	FileSize       int64
	UploadedBy     string
	ParsingWarning string
	IsActive       bool
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Companies      []string
	Keywords       []string
}

// Entity is a named company or keyword row.
type Entity struct {
	ID   string
	Name string
}

// SearchFilter narrows a resume search. Empty fields are ignored. The
// multi-value fields hold already-split, normalized terms combined with OR.
type SearchFilter struct {
	Query          string
	Name           string
	Major          string
	GraduationYear string
	Companies      []string
	Keywords       []string
}

// FilterOptions lists the distinct values available for search filtering,
// drawn from active resumes.
type FilterOptions struct {
	Majors          []string
	GraduationYears []string
	Companies       []string
	Keywords        []string
}
