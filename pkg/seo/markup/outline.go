// Package markup reads the structure of an HTML body: headings, images,
// paragraphs, list items and the readable prose between them.
package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is an h1..h6 element.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Offset int    `json:"offset"` // byte offset of the start tag in the body
}

// Image is an img element.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Offset int    `json:"offset"`
}

// Outline is the parsed view of a body used by analyzers and the
// structure fingerprint.
type Outline struct {
	Headings   []Heading
	Images     []Image
	Paragraphs int
	ListItems  int
	Links      int
	// Prose is readable text outside headings, one block per line.
	Prose string
	// Text is all readable text including headings.
	Text string
}

// Subheadings returns h2..h6.
func (o *Outline) Subheadings() []Heading {
	var out []Heading
	for _, h := range o.Headings {
		if h.Level >= 2 {
			out = append(out, h)
		}
	}
	return out
}

// HeadingCounts returns the number of headings per level, index 0 = h1.
func (o *Outline) HeadingCounts() [6]int {
	var counts [6]int
	for _, h := range o.Headings {
		if h.Level >= 1 && h.Level <= 6 {
			counts[h.Level-1]++
		}
	}
	return counts
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Br, atom.Section, atom.Article,
		atom.Blockquote, atom.Pre, atom.Table, atom.Tr, atom.Td, atom.Th, atom.Figcaption,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func isSkipped(a atom.Atom) bool {
	return a == atom.Script || a == atom.Style || a == atom.Noscript || a == atom.Template
}

// Parse tokenizes body and builds its outline. Malformed markup is
// tolerated the same way browsers tolerate it.
func Parse(body string) (*Outline, error) {
	out := &Outline{}
	z := html.NewTokenizer(strings.NewReader(body))

	var (
		offset  int
		prose   strings.Builder
		all     strings.Builder
		heading *Heading
		hText   strings.Builder
		skip    int
	)

	breakLine := func() {
		if prose.Len() > 0 && !strings.HasSuffix(prose.String(), "\n") {
			prose.WriteByte('\n')
		}
		if all.Len() > 0 && !strings.HasSuffix(all.String(), "\n") {
			all.WriteByte('\n')
		}
	}

	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			out.Prose = strings.TrimSpace(prose.String())
			out.Text = strings.TrimSpace(all.String())
			return out, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			a := tok.DataAtom
			if isSkipped(a) && tt == html.StartTagToken {
				skip++
			}
			if isBlock(a) {
				breakLine()
			}
			switch {
			case headingLevel(a) > 0 && tt == html.StartTagToken:
				heading = &Heading{Level: headingLevel(a), Offset: offset}
				hText.Reset()
			case a == atom.Img:
				img := Image{Offset: offset}
				for _, attr := range tok.Attr {
					switch attr.Key {
					case "src":
						img.Src = attr.Val
					case "alt":
						img.Alt = strings.TrimSpace(attr.Val)
					}
				}
				out.Images = append(out.Images, img)
			case a == atom.P:
				out.Paragraphs++
			case a == atom.Li:
				out.ListItems++
			case a == atom.A:
				out.Links++
			}

		case html.EndTagToken:
			tok := z.Token()
			a := tok.DataAtom
			if isSkipped(a) && skip > 0 {
				skip--
			}
			if heading != nil && headingLevel(a) == heading.Level {
				heading.Text = normalizeSpace(hText.String())
				out.Headings = append(out.Headings, *heading)
				heading = nil
			}
			if isBlock(a) {
				breakLine()
			}

		case html.TextToken:
			if skip > 0 {
				break
			}
			text := string(z.Text())
			all.WriteString(text)
			if heading != nil {
				hText.WriteString(text)
			} else {
				prose.WriteString(text)
			}
		}
		offset += raw
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
