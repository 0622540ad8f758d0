package model

// ResponseKind discriminates the normalized inference response
type ResponseKind int

const (
	KindFreeText ResponseKind = iota
	KindSectionMap
	KindSectionList
)

func (k ResponseKind) String() string {
	switch k {
	case KindSectionMap:
		return "section_map"
	case KindSectionList:
		return "section_list"
	default:
		return "free_text"
	}
}

// Response is the normalized inference payload. It is produced exactly once,
// by the normalizer at the API boundary; everything downstream switches on
// the concrete variant type.
type Response interface {
	Kind() ResponseKind
	isResponse()
}

// Section is a statute section reference with an optional description
type Section struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SectionMap maps section ids to descriptions, in transport order
type SectionMap struct {
	Field    string    // payload member the sections came from, e.g. "acts"
	Sections []Section // ordered as delivered
}

// SectionList is an ordered list of bare section ids
type SectionList struct {
	Field string
	IDs   []string
}

// FreeText is an opaque answer with no recognized structure
type FreeText struct {
	Text string
}

func (SectionMap) Kind() ResponseKind  { return KindSectionMap }
func (SectionList) Kind() ResponseKind { return KindSectionList }
func (FreeText) Kind() ResponseKind    { return KindFreeText }

func (SectionMap) isResponse()  {}
func (SectionList) isResponse() {}
func (FreeText) isResponse()    {}

// Answer is a normalized inference result plus the fields the normalizer
// lifted from the payload envelope.
type Answer struct {
	Query    string
	Response Response
	Heading  string // explicit heading from the payload, empty if absent
	Raw      []byte // payload as received
}
