package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/SlideText/internal/extractor"
)

var sample = []extractor.SlideContent{
	{SlideNumber: 1, Title: "Intro", TextContent: []string{"Welcome"}},
	{SlideNumber: 2, TextContent: []string{"Thanks"}},
	{SlideNumber: 3, TextContent: []string{}},
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample))

	expected := "Slide 1:\nTitle: Intro\nContent: Welcome\n\n" +
		"Slide 2:\nContent: Thanks\n\n" +
		"Slide 3:\n\n\n"
	assert.Equal(t, expected, buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample[:2]))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Title: Intro\nContent: Welcome", decoded[0]["full_text"])
	assert.Equal(t, float64(2), decoded[1]["slide_number"])
}

func TestWrite_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestMarkdown(t *testing.T) {
	md := Markdown([]extractor.SlideContent{
		{SlideNumber: 1, Title: "Q3 *plan*", TextContent: []string{"line one\nline two", "<b>x</b>"}},
	})

	assert.Contains(t, md, "## Slide 1\n")
	assert.Contains(t, md, `### Q3 \*plan\*`)
	assert.Contains(t, md, "- line one line two\n")
	assert.Contains(t, md, "- &lt;b&gt;x&lt;/b&gt;\n")
}

func TestMarkdown_MultiLineTitle(t *testing.T) {
	slides := []extractor.SlideContent{{SlideNumber: 1, Title: "Line one\nLine two"}}

	assert.Contains(t, Markdown(slides), "### Line one Line two\n")
	assert.Contains(t, string(HTML(slides)), "<h3>Line one Line two</h3>")
}

func TestHTML_Sanitized(t *testing.T) {
	out := string(HTML([]extractor.SlideContent{
		{SlideNumber: 1, Title: "Intro", TextContent: []string{"<script>alert(1)</script>"}},
	}))

	assert.Contains(t, out, "<h2>Slide 1</h2>")
	assert.Contains(t, out, "<h3>Intro</h3>")
	assert.NotContains(t, out, "<script>")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"text": FormatText, "JSON": FormatJSON, " md ": FormatMarkdown, "html": FormatHTML,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, Format("pdf"), sample), ErrUnknownFormat)
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}
