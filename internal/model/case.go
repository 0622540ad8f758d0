package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderHeading is used when the inference payload carries no heading
const PlaceholderHeading = "New Case Identified"

// CaseStatus is the free-text lifecycle status of a case
type CaseStatus string

const (
	StatusAssigned           CaseStatus = "assigned"
	StatusClosed             CaseStatus = "closed"
	StatusUnderInvestigation CaseStatus = "under-investigation"
)

// DefaultStatus is assigned to freshly derived drafts
const DefaultStatus = StatusUnderInvestigation

// Label returns a short display label for the status.
// Unknown statuses are rendered as-is.
func (s CaseStatus) Label() string {
	switch s {
	case StatusAssigned:
		return "ASSIGNED"
	case StatusClosed:
		return "CLOSED"
	case StatusUnderInvestigation:
		return "INVESTIGATING"
	case "":
		return "UNKNOWN"
	default:
		return strings.ToUpper(string(s))
	}
}

// CaseID is assigned by the case store. The backend has been observed to
// return both numeric and string identifiers, so both decode into CaseID.
type CaseID string

// UnmarshalJSON accepts a JSON string or number
func (id *CaseID) UnmarshalJSON(data []byte) error {
	s, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("case id: %w", err)
	}
	*id = CaseID(s)
	return nil
}

// decodeID reads an identifier sent either as a JSON string or a number.
// null decodes to "".
func decodeID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// CaseRecord is the entity persisted by the case store
type CaseRecord struct {
	ID                CaseID     `json:"id,omitempty" yaml:"id,omitempty"`
	CaseHeading       string     `json:"caseHeading" yaml:"case_heading"`
	Query             string     `json:"query" yaml:"query"`
	ApplicableArticle string     `json:"applicableArticle" yaml:"applicable_article"`
	Description       string     `json:"description" yaml:"description"`
	Tags              Tags       `json:"tags" yaml:"tags"`
	Status            CaseStatus `json:"status" yaml:"status"`
}

// IsDraft reports whether the record has not been persisted yet
func (r CaseRecord) IsDraft() bool {
	return r.ID == ""
}

// Clone returns a deep copy of the record
func (r CaseRecord) Clone() CaseRecord {
	out := r
	if r.Tags != nil {
		out.Tags = append(Tags(nil), r.Tags...)
	}
	return out
}

// CaseList is the envelope returned by GET /case_list
type CaseList struct {
	Cases []CaseRecord `json:"cases"`
}

// FilterByStatus returns the cases whose status matches. An empty status
// matches everything.
func FilterByStatus(cases []CaseRecord, status CaseStatus) []CaseRecord {
	if status == "" {
		return cases
	}
	var out []CaseRecord
	for _, c := range cases {
		if strings.EqualFold(string(c.Status), string(status)) {
			out = append(out, c)
		}
	}
	return out
}

// FindCase looks a case up by id
func FindCase(cases []CaseRecord, id CaseID) (CaseRecord, bool) {
	for _, c := range cases {
		if c.ID == id {
			return c, true
		}
	}
	return CaseRecord{}, false
}
