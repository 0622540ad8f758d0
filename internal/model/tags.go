package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Tags is an insertion-ordered set of non-empty strings.
// Matching is case-sensitive.
type Tags []string

// Add trims the tag and appends it unless it is empty or already present.
// Returns true if the set changed.
func (t *Tags) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || t.Contains(tag) {
		return false
	}
	*t = append(*t, tag)
	return true
}

// Remove deletes the tag at index. Out-of-range indices are a no-op.
func (t *Tags) Remove(index int) bool {
	if index < 0 || index >= len(*t) {
		return false
	}
	*t = append((*t)[:index:index], (*t)[index+1:]...)
	return true
}

// Contains reports whether tag is in the set
func (t Tags) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clean returns a copy with empty and duplicate entries dropped
func (t Tags) Clean() Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		out.Add(tag)
	}
	return out
}

// ParseTags splits a comma-separated tag string, e.g. "theft, investigation, IPC"
func ParseTags(s string) Tags {
	var out Tags
	for _, part := range strings.Split(s, ",") {
		out.Add(part)
	}
	return out
}

// String joins the tags for display
func (t Tags) String() string {
	return strings.Join(t, ", ")
}

// MarshalJSON always emits an array, never null
func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(t.Clean()))
}

// UnmarshalJSON accepts either an array of strings or a comma-separated string
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = Tags(list).Clean()
	return nil
}
