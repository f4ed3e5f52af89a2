package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/gnemet/SlideText/internal/extractor"
)

// Format selects how extracted slides are rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the HTTP media type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders slides to w in the given format.
func Write(w io.Writer, format Format, slides []extractor.SlideContent) error {
	switch format {
	case FormatText:
		return writeText(w, slides)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if slides == nil {
			slides = []extractor.SlideContent{}
		}
		return enc.Encode(slides)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(slides))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(slides))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// writeText prints a "Slide n:" header, the slide's full text and a blank line per slide.
func writeText(w io.Writer, slides []extractor.SlideContent) error {
	for _, s := range slides {
		if _, err := fmt.Fprintf(w, "Slide %d:\n%s\n\n", s.SlideNumber, s.FullText()); err != nil {
			return err
		}
	}
	return nil
}

// Markdown renders one section per slide.
func Markdown(slides []extractor.SlideContent) string {
	var sb strings.Builder
	for i, s := range slides {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## Slide %d\n\n", s.SlideNumber)
		if s.Title != "" {
			fmt.Fprintf(&sb, "### %s\n\n", inline(s.Title))
		}
		for _, text := range s.TextContent {
			fmt.Fprintf(&sb, "- %s\n", inline(text))
		}
		if len(s.TextContent) > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// HTML renders the markdown report and strips anything unsafe.
func HTML(slides []extractor.SlideContent) []byte {
	unsafe := blackfriday.Run([]byte(Markdown(slides)))
	return bluemonday.UGCPolicy().SanitizeBytes(unsafe)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// inline flattens line breaks so a value stays on its heading or list line.
func inline(s string) string {
	return escapeMarkdown(strings.ReplaceAll(s, "\n", " "))
}
