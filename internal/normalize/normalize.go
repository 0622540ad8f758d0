// Package normalize turns raw inference payloads into the model.Response
// tagged union and derives case record drafts from it.
//
// Parse is the only place in the codebase that looks at payload shape.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/lawai/internal/model"
)

// ErrMalformed is returned alongside a FreeText fallback when the payload is
// not valid JSON.
var ErrMalformed = errors.New("payload is not valid JSON")

// headingFields are the envelope members accepted as an explicit case heading
var headingFields = []string{"caseHeading", "case_heading", "heading", "title"}

// Normalizer parses payloads. The zero value is usable.
type Normalizer struct {
	// StripMarkup reduces HTML in section descriptions to plain text
	StripMarkup bool
}

// New creates a normalizer
func New(stripMarkup bool) *Normalizer {
	return &Normalizer{StripMarkup: stripMarkup}
}

type member struct {
	key   string
	value json.RawMessage
}

// Parse classifies the payload. Rules, first match wins:
//  1. object with a member whose value is an object -> SectionMap
//  2. object with a member whose value is an array  -> SectionList
//  3. JSON string                                   -> FreeText verbatim
//  4. anything else                                 -> FreeText, canonical JSON
//
// A non-JSON payload yields a FreeText of the raw text and ErrMalformed.
// The returned answer is always usable.
func (n *Normalizer) Parse(query string, payload []byte) (model.Answer, error) {
	answer := model.Answer{
		Query: query,
		Raw:   append([]byte(nil), payload...),
	}

	trimmed := bytes.TrimSpace(payload)
	if !json.Valid(trimmed) {
		answer.Response = model.FreeText{Text: string(trimmed)}
		return answer, ErrMalformed
	}

	switch trimmed[0] {
	case '{':
		members, err := orderedMembers(trimmed)
		if err != nil {
			answer.Response = model.FreeText{Text: string(trimmed)}
			return answer, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		answer.Heading = findHeading(members)
		answer.Response = n.classifyObject(members, trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			answer.Response = model.FreeText{Text: string(trimmed)}
			return answer, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		answer.Response = model.FreeText{Text: s}
	default:
		answer.Response = model.FreeText{Text: canonical(trimmed)}
	}

	return answer, nil
}

func (n *Normalizer) classifyObject(members []member, raw []byte) model.Response {
	for _, m := range members {
		if firstByte(m.value) != '{' {
			continue
		}
		inner, err := orderedMembers(m.value)
		if err != nil {
			continue
		}
		sections := make([]model.Section, 0, len(inner))
		for _, s := range inner {
			desc := scalarText(s.value)
			if n.StripMarkup {
				desc = StripMarkup(desc)
			}
			sections = append(sections, model.Section{ID: s.key, Description: desc})
		}
		return model.SectionMap{Field: m.key, Sections: sections}
	}

	for _, m := range members {
		if firstByte(m.value) != '[' {
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(m.value, &elems); err != nil {
			continue
		}
		ids := make([]string, 0, len(elems))
		for _, e := range elems {
			ids = append(ids, scalarText(e))
		}
		return model.SectionList{Field: m.key, IDs: ids}
	}

	return model.FreeText{Text: canonical(raw)}
}

// orderedMembers decodes the top level of a JSON object preserving key order
func orderedMembers(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return members, nil
}

func findHeading(members []member) string {
	for _, field := range headingFields {
		for _, m := range members {
			if m.key != field || firstByte(m.value) != '"' {
				continue
			}
			var s string
			if err := json.Unmarshal(m.value, &s); err == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// scalarText renders strings verbatim and every other value canonically
func scalarText(raw json.RawMessage) string {
	if firstByte(raw) == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return canonical(raw)
}

// canonical re-encodes a JSON value with sorted object keys and no HTML
// escaping, so equal values always produce equal text.
func canonical(raw []byte) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(bytes.TrimSpace(raw))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}
