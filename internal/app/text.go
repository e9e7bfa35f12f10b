package app

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockEnds are the tags whose end starts a new line.
var blockEnds = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.Ul: true, atom.Ol: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// plainText reduces an HTML or plain body to the text sent over WhatsApp.
func plainText(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return strings.TrimSpace(body)
	}

	var b strings.Builder
	var skip atom.Atom
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tok.Data)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.DataAtom {
			case atom.Br:
				b.WriteByte('\n')
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip = tok.DataAtom
				}
			}
		case html.EndTagToken:
			if tok.DataAtom == skip {
				skip = 0
			}
			if blockEnds[tok.DataAtom] {
				b.WriteByte('\n')
			}
		}
	}

	// At most one blank line in a row.
	var lines []string
	blank := false
	for _, l := range strings.Split(b.String(), "\n") {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		lines = append(lines, l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
