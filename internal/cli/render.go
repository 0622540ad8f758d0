package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/normalize"
)

// answerView is the structured rendering of a normalized answer
type answerView struct {
	Query    string          `json:"query" yaml:"query"`
	Kind     string          `json:"kind" yaml:"kind"`
	Field    string          `json:"field,omitempty" yaml:"field,omitempty"`
	Sections []model.Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	Text     string          `json:"text,omitempty" yaml:"text,omitempty"`
}

func newAnswerView(a model.Answer) answerView {
	v := answerView{Query: a.Query}
	if a.Response == nil {
		v.Kind = model.KindFreeText.String()
		return v
	}
	v.Kind = a.Response.Kind().String()

	switch r := a.Response.(type) {
	case model.SectionMap:
		v.Field, v.Sections = r.Field, r.Sections
	case model.SectionList:
		v.Field = r.Field
		for _, id := range r.IDs {
			v.Sections = append(v.Sections, model.Section{ID: id})
		}
	case model.FreeText:
		v.Text = r.Text
	}
	return v
}

// queryOutput is what `lawai query` prints in json/yaml mode
type queryOutput struct {
	Answer answerView       `json:"answer" yaml:"answer"`
	Case   model.CaseRecord `json:"case" yaml:"case"`
	Saved  bool             `json:"saved" yaml:"saved"`
}

// render writes v as json or yaml, or calls text for the text format
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func writeAnswer(w io.Writer, a model.Answer) {
	kind := model.KindFreeText
	if a.Response != nil {
		kind = a.Response.Kind()
	}
	fmt.Fprintf(w, "Applicable law (%s):\n", kind)
	for _, line := range strings.Split(normalize.Flatten(a.Response), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
}

func writeCase(w io.Writer, rec model.CaseRecord) {
	id := string(rec.ID)
	if rec.IsDraft() {
		id = "(draft)"
	}
	fmt.Fprintf(w, "%s  [%s]  %s\n", id, rec.Status.Label(), rec.CaseHeading)
	fmt.Fprintf(w, "  Query:   %s\n", rec.Query)
	if len(rec.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:    %s\n", rec.Tags)
	}
	if rec.ApplicableArticle != "" {
		fmt.Fprintf(w, "  Applicable article:\n")
		for _, line := range strings.Split(rec.ApplicableArticle, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if rec.Description != "" && rec.Description != rec.ApplicableArticle {
		fmt.Fprintf(w, "  Description:\n")
		for _, line := range strings.Split(rec.Description, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func writeCaseTable(w io.Writer, cases []model.CaseRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tHEADING\tTAGS")
	for _, c := range cases {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Status.Label(), truncate(c.CaseHeading, 48), c.Tags)
	}
	_ = tw.Flush()
}

func writeLaws(w io.Writer, laws []model.Law) {
	for _, law := range laws {
		act := ""
		if law.Act != "" {
			act = " (" + law.Act + ")"
		}
		fmt.Fprintf(w, "Section %s%s: %s\n", law.SectionID, act, law.SectionTitle)
		if law.Description != "" {
			fmt.Fprintf(w, "  %s\n", law.Description)
		}
	}
}

func writeDocuments(w io.Writer, docs []model.Document) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACT\tDESCRIPTION")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.ActName, truncate(d.Description, 60))
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// sanitizeFilename makes s safe to use as a file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		",", "",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." || s == ".." {
		s = "document"
	}
	return s
}
