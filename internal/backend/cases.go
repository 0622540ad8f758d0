package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ppiankov/lawai/internal/model"
)

// CaseStore persists and lists case records
type CaseStore struct {
	client  *Client
	saveURL string
	listURL string
}

// NewCaseStore creates the case store client
func NewCaseStore(c *Client) *CaseStore {
	return &CaseStore{
		client:  c,
		saveURL: endpoint(c.baseURL, c.paths.CaseSavePath, "/case_save/"),
		listURL: endpoint(c.baseURL, c.paths.CaseListPath, "/case_list/"),
	}
}

type saveResponse struct {
	ID   model.CaseID      `json:"id"`
	Case *model.CaseRecord `json:"case"`
}

// SaveCase posts the record and returns it with the id the store assigned.
// Stores that do not echo an id yield the record unchanged.
func (s *CaseStore) SaveCase(ctx context.Context, rec model.CaseRecord) (model.CaseRecord, error) {
	rec = rec.Clone()
	rec.Tags = rec.Tags.Clean()

	body, err := s.client.doJSON(ctx, http.MethodPost, s.saveURL, rec)
	if err != nil {
		return model.CaseRecord{}, fmt.Errorf("save case: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return rec, nil
	}

	var resp saveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.client.logger.Warn("unrecognized case_save response", zap.Error(err))
		return rec, nil
	}

	switch {
	case resp.Case != nil && resp.Case.ID != "":
		return *resp.Case, nil
	case resp.ID != "":
		rec.ID = resp.ID
	}
	return rec, nil
}

// ListCases fetches the case database
func (s *CaseStore) ListCases(ctx context.Context) ([]model.CaseRecord, error) {
	body, err := s.client.doJSON(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	var list model.CaseList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode case list: %w", err)
	}
	return list.Cases, nil
}
