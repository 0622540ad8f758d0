package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ppiankov/lawai/internal/model"
)

// Catalog reads the statute database and the original act documents
type Catalog struct {
	client *Client
}

// NewCatalog creates the catalog client
func NewCatalog(c *Client) *Catalog {
	return &Catalog{client: c}
}

// SearchActs searches bare-act sections of one act (e.g. "IPC")
func (c *Catalog) SearchActs(ctx context.Context, query, act string) ([]model.Law, error) {
	if act == "" {
		return nil, fmt.Errorf("act type is required")
	}

	body, err := c.client.doJSON(ctx, http.MethodPost, c.client.catalogURL+"/search/", model.ActSearch{Query: query, Act: act})
	if err != nil {
		return nil, fmt.Errorf("search acts: %w", err)
	}
	return decodeLaws(body)
}

// ListLaws returns the whole bare-act database
func (c *Catalog) ListLaws(ctx context.Context) ([]model.Law, error) {
	body, err := c.client.doJSON(ctx, http.MethodGet, c.client.catalogURL+"/database/", nil)
	if err != nil {
		return nil, fmt.Errorf("list laws: %w", err)
	}
	return decodeLaws(body)
}

// ListDocuments returns the original document catalog
func (c *Catalog) ListDocuments(ctx context.Context) ([]model.Document, error) {
	body, err := c.client.doJSON(ctx, http.MethodGet, c.client.catalogURL+"/pdfs/", nil)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

// DownloadDocument streams the document to w and returns the bytes written
func (c *Catalog) DownloadDocument(ctx context.Context, id model.DocumentID, w io.Writer) (int64, error) {
	rawURL := fmt.Sprintf("%s/pdfs/%s/download/", c.client.catalogURL, url.PathEscape(string(id)))

	resp, err := c.client.send(ctx, http.MethodGet, rawURL, nil, "application/pdf")
	if err != nil {
		return 0, fmt.Errorf("download document %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download document %s: %w", id, err)
	}
	return n, nil
}

func decodeLaws(body []byte) ([]model.Law, error) {
	var list model.LawList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode laws: %w", err)
	}
	return list.Data, nil
}
