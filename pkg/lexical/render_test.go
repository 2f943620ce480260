package lexical

import (
	"testing"

	"content-optimizer-be/pkg/seo/markup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const article = `{"root":{"type":"root","version":1,"children":[
 {"type":"heading","tag":"h2","children":[{"type":"text","text":"Espresso basics"}]},
 {"type":"paragraph","children":[
   {"type":"text","text":"Pull a "},
   {"type":"text","text":"short","format":1},
   {"type":"text","text":" shot & taste it."}
 ]},
 {"type":"image","src":"/img/shot.jpg","altText":"espresso shot"},
 {"type":"list","listType":"number","start":3,"children":[
   {"type":"listitem","children":[{"type":"text","text":"Grind"}]},
   {"type":"listitem","children":[
     {"type":"text","text":"Tamp"},
     {"type":"list","listType":"bullet","children":[{"type":"listitem","children":[{"type":"text","text":"level"}]}]}
   ]}
 ]}
]}}`

func TestRender(t *testing.T) {
	out, err := Render(article)
	require.NoError(t, err)

	want := `<h2>Espresso basics</h2>
<p>Pull a <strong>short</strong> shot &amp; taste it.</p>
<img src="/img/shot.jpg" alt="espresso shot">
<ol start="3"><li>Grind</li><li>Tamp<ul><li>level</li></ul></li></ol>`
	assert.Equal(t, want, out)

	outline, err := markup.Parse(out)
	require.NoError(t, err)
	require.Len(t, outline.Headings, 1)
	assert.Equal(t, 2, outline.Headings[0].Level)
	require.Len(t, outline.Images, 1)
	assert.Equal(t, "espresso shot", outline.Images[0].Alt)
	assert.Equal(t, 1, outline.Paragraphs)
}

func TestRenderNodes(t *testing.T) {
	tests := []struct {
		name string
		node string
		want string
	}{
		{
			name: "nested formats close in reverse",
			node: `{"type":"paragraph","children":[{"type":"text","text":"x","format":3}]}`,
			want: `<p><strong><em>x</em></strong></p>`,
		},
		{
			name: "styled span keeps color only",
			node: `{"type":"paragraph","children":[{"type":"text","text":"hot","style":"color: #F97316; font-size: 12px"}]}`,
			want: `<p><span style="color: #F97316">hot</span></p>`,
		},
		{
			name: "aligned paragraph",
			node: `{"type":"paragraph","format":"center","children":[{"type":"text","text":"mid"}]}`,
			want: `<p style="text-align: center">mid</p>`,
		},
		{
			name: "unknown heading tag",
			node: `{"type":"heading","tag":"h9","children":[{"type":"text","text":"t"}]}`,
			want: `<h2>t</h2>`,
		},
		{
			name: "link attributes escaped",
			node: `{"type":"paragraph","children":[{"type":"link","url":"https://x.io/?a=1&b=\"2\"","children":[{"type":"text","text":"go"}]}]}`,
			want: `<p><a href="https://x.io/?a=1&amp;b=&#34;2&#34;">go</a></p>`,
		},
		{
			name: "check list",
			node: `{"type":"list","listType":"check","children":[{"type":"listitem","checked":true,"children":[{"type":"text","text":"done"}]}]}`,
			want: `<ul><li data-checked="true">done</li></ul>`,
		},
		{
			name: "table header row",
			node: `{"type":"table","children":[{"type":"tablerow","children":[{"type":"tablecell","headerState":1,"children":[{"type":"text","text":"Dose"}]},{"type":"tablecell","children":[{"type":"text","text":"18g"}]}]}]}`,
			want: `<table><tr><th>Dose</th><td>18g</td></tr></table>`,
		},
		{
			name: "line break and rule",
			node: `{"type":"quote","children":[{"type":"text","text":"a"},{"type":"linebreak"},{"type":"text","text":"b"}]}`,
			want: `<blockquote>a<br>b</blockquote>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(`{"root":{"type":"root","children":[` + tt.node + `]}}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderRejectsNonState(t *testing.T) {
	for _, body := range []string{"<p>plain html</p>", `{"root":{"type":"paragraph"}}`, `{"title":"x"}`} {
		_, err := Render(body)
		assert.ErrorIs(t, err, ErrNotEditorState, body)
	}
}

func TestIsEditorState(t *testing.T) {
	assert.True(t, IsEditorState(`  {"root":{"type":"root","children":[]}}`))
	assert.False(t, IsEditorState("<p>{\"root\":1}</p>"))
	assert.False(t, IsEditorState(`{"root":{"type":"paragraph"}}`))
	assert.False(t, IsEditorState(`{"root":`))
}
