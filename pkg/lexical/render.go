package lexical

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var ErrNotEditorState = errors.New("body is not lexical editor state")

// IsEditorState reports whether body looks like serialized editor state.
func IsEditorState(body string) bool {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var head struct {
		Root *struct {
			Type string `json:"type"`
		} `json:"root"`
	}
	if err := json.Unmarshal([]byte(trimmed), &head); err != nil {
		return false
	}
	return head.Root != nil && head.Root.Type == "root"
}

// Render converts serialized editor state to HTML. Each top-level block
// is written on its own line.
func Render(state string) (string, error) {
	var es EditorState
	if err := json.Unmarshal([]byte(state), &es); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotEditorState, err)
	}
	if es.Root.Type != "root" {
		return "", ErrNotEditorState
	}

	blocks := make([]string, 0, len(es.Root.Children))
	for _, child := range es.Root.Children {
		var sb strings.Builder
		writeNode(child, &sb)
		if sb.Len() > 0 {
			blocks = append(blocks, sb.String())
		}
	}
	return strings.Join(blocks, "\n"), nil
}

func writeNode(node Node, sb *strings.Builder) {
	switch node.Type {
	case "paragraph":
		sb.WriteString("<p" + alignAttr(node) + ">")
		writeChildren(node, sb)
		sb.WriteString("</p>")

	case "heading":
		tag := headingTag(node.Tag)
		sb.WriteString("<" + tag + alignAttr(node) + ">")
		writeChildren(node, sb)
		sb.WriteString("</" + tag + ">")

	case "quote":
		sb.WriteString("<blockquote>")
		writeChildren(node, sb)
		sb.WriteString("</blockquote>")

	case "text":
		writeText(node, sb)

	case "linebreak":
		sb.WriteString("<br>")

	case "link", "autolink":
		sb.WriteString(`<a href="` + html.EscapeString(node.URL) + `"`)
		if node.Rel != "" {
			sb.WriteString(` rel="` + html.EscapeString(node.Rel) + `"`)
		}
		if node.Title != "" {
			sb.WriteString(` title="` + html.EscapeString(node.Title) + `"`)
		}
		sb.WriteString(">")
		writeChildren(node, sb)
		sb.WriteString("</a>")

	case "list":
		writeList(node, sb)

	case "image":
		sb.WriteString(`<img src="` + html.EscapeString(node.Src) + `" alt="` + html.EscapeString(node.AltText) + `">`)

	case "horizontalrule":
		sb.WriteString("<hr>")

	case "table":
		writeTable(node, sb)

	default:
		writeChildren(node, sb)
	}
}

func writeChildren(node Node, sb *strings.Builder) {
	for _, child := range node.Children {
		writeNode(child, sb)
	}
}

func headingTag(tag string) string {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return tag
	}
	return "h2"
}

func alignAttr(node Node) string {
	align, ok := node.Format.(string)
	if !ok || align == "" || align == "left" || align == "start" {
		return ""
	}
	return ` style="text-align: ` + html.EscapeString(align) + `"`
}

func textFormat(node Node) int {
	switch f := node.Format.(type) {
	case float64:
		return int(f)
	case int:
		return f
	}
	return 0
}

// inline wrappers, outermost first
var inlineTags = []struct {
	bit int
	tag string
}{
	{FormatCode, "code"},
	{FormatBold, "strong"},
	{FormatItalic, "em"},
	{FormatUnderline, "u"},
	{FormatStrikethrough, "s"},
	{FormatSubscript, "sub"},
	{FormatSuperscript, "sup"},
	{FormatHighlight, "mark"},
}

func writeText(node Node, sb *strings.Builder) {
	span := ParseStyle(node.Style).SpanOpen()
	if span != "" {
		sb.WriteString(span)
	}

	format := textFormat(node)
	var open []string
	for _, w := range inlineTags {
		if format&w.bit != 0 {
			sb.WriteString("<" + w.tag + ">")
			open = append(open, w.tag)
		}
	}
	sb.WriteString(html.EscapeString(node.Text))
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + open[i] + ">")
	}

	if span != "" {
		sb.WriteString("</span>")
	}
}

func writeList(node Node, sb *strings.Builder) {
	tag := "ul"
	if node.ListType == "number" {
		tag = "ol"
	}
	sb.WriteString("<" + tag)
	if tag == "ol" && node.Start > 1 {
		sb.WriteString(` start="` + strconv.Itoa(node.Start) + `"`)
	}
	sb.WriteString(">")

	for _, item := range node.Children {
		if item.Type != "listitem" {
			continue
		}
		sb.WriteString("<li")
		if node.ListType == "check" {
			sb.WriteString(` data-checked="` + strconv.FormatBool(item.Checked) + `"`)
		}
		sb.WriteString(">")
		writeChildren(item, sb)
		sb.WriteString("</li>")
	}
	sb.WriteString("</" + tag + ">")
}

func writeTable(node Node, sb *strings.Builder) {
	sb.WriteString("<table>")
	for _, row := range node.Children {
		if row.Type != "tablerow" {
			continue
		}
		sb.WriteString("<tr>")
		for _, cell := range row.Children {
			tag := "td"
			if cell.HeaderState != 0 {
				tag = "th"
			}
			sb.WriteString("<" + tag + ">")
			writeChildren(cell, sb)
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
}
