// Package content defines the CMS wire model, list parameters and the
// normalized projection of content records.
package content

// Status is the envelope outcome reported by the CMS.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Envelope is the outer wrapper of every CMS response.
type Envelope[T any] struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Page is one page of a list response.
//
// The backend is inconsistent about which pagination fields it fills in, so
// every metadata field is optional. Nil means "not reported".
type Page[T any] struct {
	Content          []T    `json:"content"`
	Number           *int   `json:"number,omitempty"`
	Size             *int   `json:"size,omitempty"`
	NumberOfElements *int   `json:"numberOfElements,omitempty"`
	TotalElements    *int64 `json:"totalElements,omitempty"`
	TotalPages       *int   `json:"totalPages,omitempty"`
	First            *bool  `json:"first,omitempty"`
	Last             *bool  `json:"last,omitempty"`
	Empty            *bool  `json:"empty,omitempty"`
}

// ListResponse is the envelope returned by the list endpoint. A nil Data
// means the backend sent no page at all.
type ListResponse = Envelope[*Page[Record]]

// DetailResponse is the envelope returned by the detail endpoint.
type DetailResponse = Envelope[*Record]

// Record is a raw content item.
type Record struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Text         string       `json:"text"`
	Type         string       `json:"type"`
	CustomFields CustomFields `json:"customFields"`
}

// DedupeKey identifies the record during aggregation.
func (r Record) DedupeKey() int64 {
	return r.ID
}

// Normalized is the fixed-shape projection of a Record.
type Normalized struct {
	ID              int64   `json:"id" yaml:"id"`
	Title           string  `json:"title" yaml:"title"`
	Text            string  `json:"text" yaml:"text"`
	Type            string  `json:"type" yaml:"type"`
	InsideImage     string  `json:"insideImage" yaml:"insideImage"`
	OutsideImage    string  `json:"outsideImage" yaml:"outsideImage"`
	PDFPath         string  `json:"pdfPath" yaml:"pdfPath"`
	References      *string `json:"references" yaml:"references"`
	Citation        *string `json:"citation" yaml:"citation"`
	Abstract        *string `json:"abstract" yaml:"abstract"`
	Team            *string `json:"team" yaml:"team"`
	PublicationType *string `json:"publicationType" yaml:"publicationType"`
	Fake            *bool   `json:"fake" yaml:"fake"`
}

// DedupeKey identifies the normalized record during aggregation.
func (n Normalized) DedupeKey() int64 {
	return n.ID
}
