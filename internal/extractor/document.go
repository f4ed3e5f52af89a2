package extractor

import (
	"github.com/gnemet/SlideText/internal/pptx"
)

// ShapeKind is the document model's classification of a shape's role.
type ShapeKind int

const (
	ShapeKindOther ShapeKind = iota
	ShapeKindTitle
	ShapeKindSubtitle
	ShapeKindBody
	ShapeKindText
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindTitle:
		return "title"
	case ShapeKindSubtitle:
		return "subtitle"
	case ShapeKindBody:
		return "body"
	case ShapeKindText:
		return "text"
	default:
		return "other"
	}
}

// Opener opens a presentation document for reading.
type Opener interface {
	Open(path string) (Document, error)
}

// Document is an opened presentation.
type Document interface {
	Slides() []Slide
	Close() error
}

// Slide lists its shapes in document order.
type Slide interface {
	Shapes() []Shape
}

// Shape is the narrow view of a slide element the extractor needs.
type Shape interface {
	HasText() bool
	Text() string
	Kind() ShapeKind
}

// PPTXOpener decodes .pptx packages with the pptx package.
type PPTXOpener struct{}

func (PPTXOpener) Open(path string) (Document, error) {
	pres, err := pptx.Open(path)
	if err != nil {
		return nil, err
	}
	return pptxDocument{pres: pres}, nil
}

type pptxDocument struct {
	pres *pptx.Presentation
}

func (d pptxDocument) Slides() []Slide {
	slides := make([]Slide, len(d.pres.Slides))
	for i := range d.pres.Slides {
		slides[i] = pptxSlide{slide: &d.pres.Slides[i]}
	}
	return slides
}

// Close is a no-op: pptx.Open releases the archive before returning.
func (d pptxDocument) Close() error { return nil }

type pptxSlide struct {
	slide *pptx.Slide
}

func (s pptxSlide) Shapes() []Shape {
	shapes := make([]Shape, len(s.slide.Shapes))
	for i := range s.slide.Shapes {
		shapes[i] = pptxShape{shape: &s.slide.Shapes[i]}
	}
	return shapes
}

type pptxShape struct {
	shape *pptx.Shape
}

func (s pptxShape) HasText() bool { return s.shape.HasTextFrame }

func (s pptxShape) Text() string { return s.shape.Text() }

func (s pptxShape) Kind() ShapeKind {
	switch {
	case s.shape.IsTitle():
		return ShapeKindTitle
	case s.shape.IsPlaceholder && s.shape.Placeholder == "subTitle":
		return ShapeKindSubtitle
	case s.shape.IsPlaceholder && (s.shape.Placeholder == "" || s.shape.Placeholder == "body" || s.shape.Placeholder == "obj"):
		return ShapeKindBody
	case s.shape.Element == pptx.ElementShape && !s.shape.IsPlaceholder:
		return ShapeKindText
	default:
		return ShapeKindOther
	}
}
