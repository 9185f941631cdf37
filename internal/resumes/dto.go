package resumes

import "time"

// envelope is the success payload shape shared by all resume endpoints.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

type resumeResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Major          string    `json:"major"`
	GraduationYear string    `json:"graduationYear"`
	PdfURL         string    `json:"pdfUrl,omitempty"`
	FileSize       int64     `json:"fileSize"`
	UploadedBy     string    `json:"uploadedBy"`
	ParsingWarning string    `json:"parsingWarning,omitempty"`
	Companies      []string  `json:"companies"`
	Keywords       []string  `json:"keywords"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toResponse(rec Resume, pdfURL string) resumeResponse {
	companies := rec.Companies
	if companies == nil {
		companies = []string{}
	}
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return resumeResponse{
		ID:             rec.ID,
		Name:           rec.Name,
		Major:          rec.Major,
		GraduationYear: rec.GraduationYear,
		PdfURL:         pdfURL,
		FileSize:       rec.FileSize,
		UploadedBy:     rec.UploadedBy,
		ParsingWarning: rec.ParsingWarning,
		Companies:      companies,
		Keywords:       keywords,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

type filtersResponse struct {
	Majors          []string `json:"majors"`
	GraduationYears []string `json:"graduationYears"`
	Companies       []string `json:"companies"`
	Keywords        []string `json:"keywords"`
}
