package reader

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/termex/pkg/termex/internalerr"
)

// blockElements end a paragraph. Inline elements such as b or a continue
// the text around them.
var blockElements = map[atom.Atom]bool{
	atom.Title: true, atom.P: true, atom.Div: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Tr: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Nav: true,
	atom.Aside: true, atom.Blockquote: true, atom.Pre: true, atom.Figcaption: true,
	atom.Hr: true, atom.Body: true,
}

// parseHTML returns the document's text with one paragraph per block
// element, separated by blank lines. br becomes a line break. Script and
// style content is dropped.
func parseHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", internalerr.ErrInvalidInput, err)
	}

	var blocks []string
	var cur strings.Builder
	flush := func() {
		lines := strings.Split(cur.String(), "\n")
		kept := lines[:0]
		for _, l := range lines {
			if l = strings.Join(strings.Fields(l), " "); l != "" {
				kept = append(kept, l)
			}
		}
		blocks = append(blocks, strings.Join(kept, "\n"))
		cur.Reset()
	}

	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(collapseSpace(n.Data))
			return
		case html.ElementNode:
			switch {
			case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
				return
			case n.DataAtom == atom.Br:
				cur.WriteByte('\n')
				return
			case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
				cur.WriteByte(' ')
			case blockElements[n.DataAtom]:
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)
	flush()

	return joinBlocks(blocks), nil
}

// collapseSpace replaces each run of whitespace, newlines included, with a
// single space.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}
