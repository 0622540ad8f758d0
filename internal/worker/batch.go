package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/lawai/internal/model"
)

// Triager turns one query into a case record
type Triager interface {
	Triage(ctx context.Context, query string) (model.CaseRecord, error)
}

// QueryResult is the outcome of one batch query
type QueryResult struct {
	Query string
	Case  model.CaseRecord
	Error error
}

// Saved reports whether the store assigned an id
func (r *QueryResult) Saved() bool {
	return r.Case.ID != ""
}

// BatchProcessor triages many queries concurrently. Each query gets its own
// workflow; only the rate limiter and cache behind the triager are shared.
type BatchProcessor struct {
	triager     Triager
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(triager Triager, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		triager:     triager,
		concurrency: concurrency,
	}
}

// ProcessQueries triages queries and returns results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*QueryResult {
	return Map(ctx, b.concurrency, queries, func(ctx context.Context, query string) *QueryResult {
		if err := ctx.Err(); err != nil {
			return &QueryResult{Query: query, Error: err}
		}
		rec, err := b.triager.Triage(ctx, query)
		return &QueryResult{Query: query, Case: rec, Error: err}
	})
}

// ProcessFile reads queries from a file and triages them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads one query per line. Blank lines and lines
// starting with # are skipped; repeated queries are kept once.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
