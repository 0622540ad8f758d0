package model

import (
	"fmt"
	"strings"
)

// LawID identifies a section row in the legal database
type LawID string

// UnmarshalJSON accepts a JSON string or number
func (id *LawID) UnmarshalJSON(data []byte) error {
	s, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("law id: %w", err)
	}
	*id = LawID(s)
	return nil
}

// DocumentID identifies an original document in the catalog
type DocumentID string

// UnmarshalJSON accepts a JSON string or number
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	s, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	*id = DocumentID(s)
	return nil
}

// Law is a bare-act section as served by the legal database
type Law struct {
	ID           LawID  `json:"id" yaml:"id"`
	SectionID    string `json:"section_id" yaml:"section_id"`
	SectionTitle string `json:"section_title" yaml:"section_title"`
	Description  string `json:"description" yaml:"description"`
	Act          string `json:"act,omitempty" yaml:"act,omitempty"`
}

// LawList is the envelope of GET /database and POST /search
type LawList struct {
	Data []Law `json:"data"`
}

// ActSearch is the body of POST /search
type ActSearch struct {
	Query string `json:"query"`
	Act   string `json:"act"`
}

// Document is an original statute document (PDF) in the catalog
type Document struct {
	ID          DocumentID `json:"id" yaml:"id"`
	ActName     string     `json:"act_name" yaml:"act_name"`
	Description string     `json:"description" yaml:"description"`
}

// FilterDocuments keeps documents whose act name or description contains
// the query, case-insensitively. An empty query keeps everything.
func FilterDocuments(docs []Document, query string) []Document {
	if query == "" {
		return docs
	}
	q := strings.ToLower(query)
	var out []Document
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.ActName), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	return out
}
