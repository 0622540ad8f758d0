package normalize

import (
	"fmt"
	"strings"

	"github.com/ppiankov/lawai/internal/model"
)

// Flatten renders a response as a single display string
func Flatten(resp model.Response) string {
	switch r := resp.(type) {
	case model.SectionMap:
		lines := make([]string, 0, len(r.Sections))
		for _, s := range r.Sections {
			lines = append(lines, fmt.Sprintf("Section %s: %s", s.ID, s.Description))
		}
		return strings.Join(lines, "\n")
	case model.SectionList:
		lines := make([]string, 0, len(r.IDs))
		for _, id := range r.IDs {
			lines = append(lines, "Section "+id)
		}
		return strings.Join(lines, "\n")
	case model.FreeText:
		return r.Text
	case nil:
		return ""
	default:
		panic(fmt.Sprintf("normalize: unhandled response variant %T", resp))
	}
}

// Derive builds a draft case record from a normalized answer.
// The result depends only on the answer, so deriving twice is idempotent.
func Derive(answer model.Answer) model.CaseRecord {
	heading := answer.Heading
	if heading == "" {
		heading = model.PlaceholderHeading
	}

	text := Flatten(answer.Response)

	return model.CaseRecord{
		CaseHeading:       heading,
		Query:             answer.Query,
		ApplicableArticle: text,
		Description:       text,
		Tags:              model.Tags{},
		Status:            model.DefaultStatus,
	}
}
