package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedFormat is the only file extension the extractor accepts.
const SupportedFormat = ".pptx"

var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// SlideContent is the text extracted from one slide.
type SlideContent struct {
	SlideNumber int      `json:"slide_number"`
	Title       string   `json:"title"`
	TextContent []string `json:"text_content"`
}

// FullText renders the title and body text as "Title: ..." and "Content: ..." lines.
func (c SlideContent) FullText() string {
	var parts []string
	if c.Title != "" {
		parts = append(parts, "Title: "+c.Title)
	}
	if len(c.TextContent) > 0 {
		parts = append(parts, "Content: "+strings.Join(c.TextContent, " "))
	}
	return strings.Join(parts, "\n")
}

func (c SlideContent) MarshalJSON() ([]byte, error) {
	textContent := c.TextContent
	if textContent == nil {
		textContent = []string{}
	}
	return json.Marshal(struct {
		SlideNumber int      `json:"slide_number"`
		Title       string   `json:"title"`
		TextContent []string `json:"text_content"`
		FullText    string   `json:"full_text"`
	}{c.SlideNumber, c.Title, textContent, c.FullText()})
}

// SlidesExtractor extracts structured per-slide text from presentation files.
type SlidesExtractor struct {
	opener Opener
}

// NewSlidesExtractor returns an extractor backed by the pptx decoder.
func NewSlidesExtractor() *SlidesExtractor {
	return &SlidesExtractor{opener: PPTXOpener{}}
}

// NewSlidesExtractorWithOpener returns an extractor that reads documents through opener.
func NewSlidesExtractorWithOpener(opener Opener) *SlidesExtractor {
	return &SlidesExtractor{opener: opener}
}

// ExtractFromFile returns one SlideContent per slide, in presentation order.
// Errors from the document model are returned unchanged and no partial
// result is produced.
func (e *SlidesExtractor) ExtractFromFile(path string) ([]SlideContent, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	// Stat succeeds on files the process cannot read.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	f.Close()

	if ext := suffix(path); ext != SupportedFormat {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	slides := doc.Slides()
	result := make([]SlideContent, 0, len(slides))
	for i, slide := range slides {
		result = append(result, extractSlideContent(slide, i+1))
	}
	return result, nil
}

func extractSlideContent(slide Slide, slideNumber int) SlideContent {
	content := SlideContent{
		SlideNumber: slideNumber,
		TextContent: []string{},
	}

	for _, shape := range slide.Shapes() {
		if !shape.HasText() {
			continue
		}
		text := strings.TrimSpace(shape.Text())
		if text == "" {
			continue
		}

		if content.Title == "" && shape.Kind() == ShapeKindTitle {
			content.Title = text
		} else {
			content.TextContent = append(content.TextContent, text)
		}
	}

	return content
}

// suffix returns the final extension of the last path element. A leading dot
// alone does not start an extension, so ".pptx" has none.
func suffix(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return ext
}
