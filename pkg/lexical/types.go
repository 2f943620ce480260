// Package lexical renders Lexical editor state into the HTML bodies the
// optimizer analyzes.
package lexical

// EditorState is the serialized editor document.
type EditorState struct {
	Root Node `json:"root"`
}

// Node is any node in the editor tree. Fields are shared between node
// types; unused ones stay zero.
type Node struct {
	Type     string `json:"type"`
	Version  int    `json:"version"`
	Children []Node `json:"children,omitempty"`

	// text
	Text   string      `json:"text,omitempty"`
	Format interface{} `json:"format,omitempty"` // bitmask on text, alignment on blocks
	Style  string      `json:"style,omitempty"`

	// heading (h1..h6) and list (ul, ol)
	Tag string `json:"tag,omitempty"`

	// link
	URL    string `json:"url,omitempty"`
	Rel    string `json:"rel,omitempty"`
	Target string `json:"target,omitempty"`
	Title  string `json:"title,omitempty"`

	// list
	ListType string `json:"listType,omitempty"` // bullet, number, check
	Start    int    `json:"start,omitempty"`
	Checked  bool   `json:"checked,omitempty"`

	// image
	Src     string `json:"src,omitempty"`
	AltText string `json:"altText,omitempty"`

	// table cell, 0 = normal
	HeaderState int `json:"headerState,omitempty"`
}

// Text format bitmask.
const (
	FormatBold          = 1
	FormatItalic        = 2
	FormatStrikethrough = 4
	FormatUnderline     = 8
	FormatCode          = 16
	FormatSubscript     = 32
	FormatSuperscript   = 64
	FormatHighlight     = 128
)
