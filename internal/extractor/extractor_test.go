package extractor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/SlideText/internal/pptx"
	"github.com/gnemet/SlideText/internal/test/builders"
)

type fakeShape struct {
	hasText bool
	text    string
	kind    ShapeKind
}

func (s fakeShape) HasText() bool   { return s.hasText }
func (s fakeShape) Text() string    { return s.text }
func (s fakeShape) Kind() ShapeKind { return s.kind }

type fakeSlide []Shape

func (s fakeSlide) Shapes() []Shape { return s }

type fakeDocument struct {
	slides []Slide
	closed *int
}

func (d fakeDocument) Slides() []Slide { return d.slides }

func (d fakeDocument) Close() error {
	*d.closed++
	return nil
}

type fakeOpener struct {
	doc    fakeDocument
	err    error
	opened int
}

func (o *fakeOpener) Open(path string) (Document, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

func title(text string) Shape { return fakeShape{hasText: true, text: text, kind: ShapeKindTitle} }
func body(text string) Shape  { return fakeShape{hasText: true, text: text, kind: ShapeKindBody} }

func touch(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("placeholder"), 0o644))
	return p
}

func extractFake(t *testing.T, slides ...Slide) []SlideContent {
	t.Helper()
	closed := 0
	opener := &fakeOpener{doc: fakeDocument{slides: slides, closed: &closed}}
	result, err := NewSlidesExtractorWithOpener(opener).ExtractFromFile(touch(t, "deck.pptx"))
	require.NoError(t, err)
	assert.Equal(t, 1, closed, "document must be closed exactly once")
	return result
}

func TestExtractFromFile_TwoSlideScenario(t *testing.T) {
	p := builders.NewPresentationBuilder().
		WithSlide(builders.TitleShape("Intro"), builders.BodyShape("Welcome")).
		WithSlide(builders.BodyShape("Thanks")).
		WriteFile(t, t.TempDir(), "deck.pptx")

	result, err := NewSlidesExtractor().ExtractFromFile(p)
	require.NoError(t, err)

	expected := []SlideContent{
		{SlideNumber: 1, Title: "Intro", TextContent: []string{"Welcome"}},
		{SlideNumber: 2, Title: "", TextContent: []string{"Thanks"}},
	}
	assert.Equal(t, expected, result)
	assert.Equal(t, "Title: Intro\nContent: Welcome", result[0].FullText())
	assert.Equal(t, "Content: Thanks", result[1].FullText())
}

func TestExtractFromFile_SlideNumbersContiguous(t *testing.T) {
	b := builders.NewPresentationBuilder()
	for i := 0; i < 7; i++ {
		b.WithSlide(builders.TextBox("x"))
	}
	p := b.WriteFile(t, t.TempDir(), "seven.pptx")

	result, err := NewSlidesExtractor().ExtractFromFile(p)
	require.NoError(t, err)
	require.Len(t, result, 7)
	for i, s := range result {
		assert.Equal(t, i+1, s.SlideNumber)
	}
}

func TestExtractFromFile_EmptySlides(t *testing.T) {
	result := extractFake(t,
		fakeSlide{},
		fakeSlide{
			fakeShape{hasText: false, kind: ShapeKindOther},
			fakeShape{hasText: true, text: "   \n\t ", kind: ShapeKindTitle},
			fakeShape{hasText: true, text: "", kind: ShapeKindBody},
		},
	)

	require.Len(t, result, 2)
	for _, s := range result {
		assert.Empty(t, s.Title)
		assert.Empty(t, s.TextContent)
		assert.Equal(t, "", s.FullText())
	}
}

func TestExtractFromFile_TitleOnly(t *testing.T) {
	result := extractFake(t, fakeSlide{title("  Agenda  ")})

	require.Len(t, result, 1)
	assert.Equal(t, "Agenda", result[0].Title)
	assert.Empty(t, result[0].TextContent)
	assert.Equal(t, "Title: Agenda", result[0].FullText())
}

func TestExtractFromFile_MultipleTitlesFirstWins(t *testing.T) {
	result := extractFake(t, fakeSlide{
		body("lead"),
		title("First"),
		body("middle"),
		title("Second"),
	})

	require.Len(t, result, 1)
	assert.Equal(t, "First", result[0].Title)
	assert.Equal(t, []string{"lead", "middle", "Second"}, result[0].TextContent)
	assert.Equal(t, "Title: First\nContent: lead middle Second", result[0].FullText())
}

func TestExtractFromFile_EmptyTitleDoesNotClaimSlot(t *testing.T) {
	result := extractFake(t, fakeSlide{
		title("   "),
		title("Real"),
	})

	assert.Equal(t, "Real", result[0].Title)
	assert.Empty(t, result[0].TextContent)
}

func TestExtractFromFile_OnlyTitleKindIsTitle(t *testing.T) {
	result := extractFake(t, fakeSlide{
		fakeShape{hasText: true, text: "Sub", kind: ShapeKindSubtitle},
		fakeShape{hasText: true, text: "Box", kind: ShapeKindText},
	})

	assert.Empty(t, result[0].Title)
	assert.Equal(t, []string{"Sub", "Box"}, result[0].TextContent)
}

func TestExtractFromFile_Idempotent(t *testing.T) {
	p := builders.NewPresentationBuilder().
		WithSlide(builders.CenteredTitleShape("Deck"), builders.TextBox("a", "b")).
		WithSlide(builders.Picture(), builders.BodyShape("c")).
		WriteFile(t, t.TempDir(), "deck.pptx")

	ext := NewSlidesExtractor()
	first, err := ext.ExtractFromFile(p)
	require.NoError(t, err)
	second, err := ext.ExtractFromFile(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a\nb"}, first[0].TextContent)
}

func TestExtractFromFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		opener := &fakeOpener{}
		result, err := NewSlidesExtractorWithOpener(opener).
			ExtractFromFile(filepath.Join(t.TempDir(), "missing.pptx"))

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, opener.opened)
	})

	t.Run("directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "folder.pptx")
		require.NoError(t, os.Mkdir(dir, 0o755))

		_, err := NewSlidesExtractor().ExtractFromFile(dir)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		p := touch(t, "locked.pptx")
		require.NoError(t, os.Chmod(p, 0o000))
		t.Cleanup(func() { os.Chmod(p, 0o644) })

		opener := &fakeOpener{}
		_, err := NewSlidesExtractorWithOpener(opener).ExtractFromFile(p)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, pptx.ErrInvalidPackage)
		assert.Zero(t, opener.opened)
	})

	t.Run("wrong extension", func(t *testing.T) {
		opener := &fakeOpener{}
		result, err := NewSlidesExtractorWithOpener(opener).ExtractFromFile(touch(t, "notes.txt"))

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), ".txt")
		assert.Zero(t, opener.opened)
	})

	t.Run("extension is case sensitive", func(t *testing.T) {
		_, err := NewSlidesExtractor().ExtractFromFile(touch(t, "DECK.PPTX"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("dotfile has no extension", func(t *testing.T) {
		_, err := NewSlidesExtractor().ExtractFromFile(touch(t, ".pptx"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("opener error is returned unchanged", func(t *testing.T) {
		parseErr := errors.New("boom")
		opener := &fakeOpener{err: parseErr}
		result, err := NewSlidesExtractorWithOpener(opener).ExtractFromFile(touch(t, "deck.pptx"))

		assert.Nil(t, result)
		assert.Same(t, parseErr, err)
	})

	t.Run("corrupt package", func(t *testing.T) {
		_, err := NewSlidesExtractor().ExtractFromFile(touch(t, "corrupt.pptx"))
		assert.ErrorIs(t, err, pptx.ErrInvalidPackage)
	})
}

func TestSlideContent_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(SlideContent{SlideNumber: 3, Title: "T"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"slide_number":3,"title":"T","text_content":[],"full_text":"Title: T"}`, string(data))
}

func TestShapeKindFromPPTX(t *testing.T) {
	cases := []struct {
		shape pptx.Shape
		want  ShapeKind
	}{
		{pptx.Shape{Element: pptx.ElementShape, IsPlaceholder: true, Placeholder: "title"}, ShapeKindTitle},
		{pptx.Shape{Element: pptx.ElementShape, IsPlaceholder: true, Placeholder: "ctrTitle"}, ShapeKindTitle},
		{pptx.Shape{Element: pptx.ElementShape, IsPlaceholder: true, Placeholder: "subTitle"}, ShapeKindSubtitle},
		{pptx.Shape{Element: pptx.ElementShape, IsPlaceholder: true}, ShapeKindBody},
		{pptx.Shape{Element: pptx.ElementShape}, ShapeKindText},
		{pptx.Shape{Element: pptx.ElementShape, IsPlaceholder: true, Placeholder: "dt"}, ShapeKindOther},
		{pptx.Shape{Element: pptx.ElementPicture}, ShapeKindOther},
	}
	for _, tc := range cases {
		shape := tc.shape
		assert.Equal(t, tc.want, pptxShape{shape: &shape}.Kind(), "placeholder %q", tc.shape.Placeholder)
	}
}
