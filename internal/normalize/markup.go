package normalize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripMarkup reduces an HTML fragment to its text content. Whitespace inside
// text runs is kept as delivered; block elements become a single separating
// space. Input is returned unchanged unless every element in it is a known
// formatting tag, so legal text such as "value<lakh and term>7" survives.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return s
	}

	var buf strings.Builder
	hasElement, known := false, true
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			hasElement = true
			switch {
			case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
				return
			case isBlock(n.DataAtom):
				separate(&buf)
			case !isInline(n.DataAtom):
				known = false
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			separate(&buf)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	if !hasElement || !known {
		return s
	}
	return strings.TrimSpace(buf.String())
}

// separate writes one space unless the buffer is empty or already ends in whitespace.
func separate(buf *strings.Builder) {
	out := buf.String()
	if out == "" || strings.HasSuffix(out, " ") || strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\t") {
		return
	}
	buf.WriteByte(' ')
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.Ul, atom.Ol, atom.Section, atom.Blockquote,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Table, atom.Tbody, atom.Thead, atom.Tr, atom.Td, atom.Th:
		return true
	}
	return false
}

func isInline(a atom.Atom) bool {
	switch a {
	case atom.B, atom.I, atom.U, atom.Em, atom.Strong, atom.Span, atom.A, atom.Sub, atom.Sup,
		atom.Small, atom.Mark, atom.Code, atom.Abbr, atom.Cite, atom.Q, atom.S, atom.Del, atom.Ins:
		return true
	}
	return false
}
