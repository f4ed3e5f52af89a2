package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrInvalidPackage is returned for anything that is not a readable presentation package.
var ErrInvalidPackage = errors.New("invalid presentation package")

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	defaultPresentation   = "ppt/presentation.xml"
)

// Presentation is the decoded slide collection of a .pptx file.
type Presentation struct {
	Slides []Slide
}

// Slide holds the shapes of one slide in document order.
type Slide struct {
	Number int
	Part   string
	Shapes []Shape
}

// ElementType is the spTree child element a shape was decoded from.
type ElementType string

const (
	ElementShape        ElementType = "sp"
	ElementPicture      ElementType = "pic"
	ElementGraphicFrame ElementType = "graphicFrame"
	ElementGroup        ElementType = "grpSp"
	ElementConnector    ElementType = "cxnSp"
)

// Shape is a single element placed on a slide.
type Shape struct {
	ID            int
	Name          string
	Element       ElementType
	IsPlaceholder bool
	Placeholder   string // raw p:ph type, empty for an untyped placeholder
	HasTextFrame  bool
	Paragraphs    []string
}

// Text returns the paragraphs of the shape's text frame joined by newlines.
func (s Shape) Text() string {
	return strings.Join(s.Paragraphs, "\n")
}

// IsTitle reports whether the shape is a title placeholder.
func (s Shape) IsTitle() bool {
	return s.IsPlaceholder && (s.Placeholder == "title" || s.Placeholder == "ctrTitle")
}

// Open decodes the presentation at pptxPath. The archive is closed before returning.
func Open(pptxPath string) (*Presentation, error) {
	f, err := os.Open(pptxPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return Read(f, info.Size())
}

// Read decodes a presentation from an in-memory or seekable source.
func Read(ra io.ReaderAt, size int64) (*Presentation, error) {
	r, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return decode(r)
}

func decode(r *zip.Reader) (*Presentation, error) {
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	presPart := defaultPresentation
	if f, ok := files["_rels/.rels"]; ok {
		rels, err := readRelationships(f)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			if rel.Type == relTypeOfficeDocument {
				presPart = strings.TrimPrefix(rel.Target, "/")
				break
			}
		}
	}

	presFile, ok := files[presPart]
	if !ok {
		return nil, fmt.Errorf("%w: missing presentation part %s", ErrInvalidPackage, presPart)
	}

	slideRefs, err := readSlideList(presFile)
	if err != nil {
		return nil, err
	}

	var rels []relationship
	if f, ok := files[relsPathFor(presPart)]; ok {
		rels, err = readRelationships(f)
		if err != nil {
			return nil, err
		}
	}
	targets := make(map[string]string, len(rels))
	for _, rel := range rels {
		targets[rel.ID] = resolveTarget(presPart, rel.Target)
	}

	slideParts := make([]string, 0, len(slideRefs))
	for _, id := range slideRefs {
		target, ok := targets[id]
		if !ok {
			return nil, fmt.Errorf("%w: unresolved slide relationship %s", ErrInvalidPackage, id)
		}
		slideParts = append(slideParts, target)
	}

	pres := &Presentation{}
	for i, part := range slideParts {
		f, ok := files[part]
		if !ok {
			return nil, fmt.Errorf("%w: missing slide part %s", ErrInvalidPackage, part)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, part, err)
		}
		shapes, err := parseSlideXML(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, part, err)
		}
		pres.Slides = append(pres.Slides, Slide{
			Number: i + 1,
			Part:   part,
			Shapes: shapes,
		})
	}

	return pres, nil
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func readRelationships(f *zip.File) ([]relationship, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, f.Name, err)
	}
	defer rc.Close()

	var doc struct {
		Relationships []relationship `xml:"Relationship"`
	}
	if err := newDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, f.Name, err)
	}
	return doc.Relationships, nil
}

// readSlideList returns the r:id values of p:sldIdLst in presentation order.
func readSlideList(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, f.Name, err)
	}
	defer rc.Close()

	dec := newDecoder(rc)
	var ids []string
	inList := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, f.Name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sldIdLst":
				inList = true
			case "sldId":
				if !inList {
					continue
				}
				for _, a := range el.Attr {
					if a.Name.Local == "id" && a.Name.Space != "" {
						ids = append(ids, a.Value)
					}
				}
			}
		case xml.EndElement:
			if el.Name.Local == "sldIdLst" {
				inList = false
			}
		}
	}
	return ids, nil
}

// relsPathFor maps ppt/presentation.xml to ppt/_rels/presentation.xml.rels.
func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// parseSlideXML decodes the direct children of p:spTree. Group shapes are not
// descended into; their nested elements never surface as slide shapes.
func parseSlideXML(r io.Reader) ([]Shape, error) {
	dec := newDecoder(r)

	var shapes []Shape
	var current *Shape
	var paragraph strings.Builder

	depth := 0      // element depth below p:spTree
	inTree := false // inside the top-level p:spTree
	inTxBody := false
	inParagraph := false
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {

		case xml.StartElement:
			if !inTree {
				if el.Name.Local == "spTree" {
					inTree = true
					depth = 0
				}
				continue
			}
			depth++

			if depth == 1 {
				switch ElementType(el.Name.Local) {
				case ElementShape, ElementPicture, ElementGraphicFrame, ElementGroup, ElementConnector:
					current = &Shape{Element: ElementType(el.Name.Local)}
				}
				continue
			}

			if current == nil || current.Element == ElementGroup {
				continue
			}

			switch el.Name.Local {
			case "cNvPr":
				if depth != 3 {
					continue
				}
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "id":
						current.ID, _ = strconv.Atoi(a.Value)
					case "name":
						current.Name = a.Value
					}
				}

			case "ph": // placeholder
				current.IsPlaceholder = true
				for _, a := range el.Attr {
					if a.Name.Local == "type" {
						current.Placeholder = a.Value
					}
				}

			case "txBody":
				if current.Element == ElementShape && depth == 2 {
					current.HasTextFrame = true
					inTxBody = true
				}

			case "p":
				if inTxBody && depth == 3 {
					inParagraph = true
					paragraph.Reset()
				}

			case "br":
				// Soft line breaks become "\n" rather than a vertical tab.
				if inParagraph {
					paragraph.WriteString("\n")
				}

			case "t":
				if inParagraph {
					inText = true
				}
			}

		case xml.CharData:
			if inText {
				paragraph.Write(el)
			}

		case xml.EndElement:
			if !inTree {
				continue
			}
			if depth == 0 {
				if el.Name.Local == "spTree" {
					inTree = false
				}
				continue
			}

			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph && depth == 3 {
					current.Paragraphs = append(current.Paragraphs, paragraph.String())
					inParagraph = false
				}
			case "txBody":
				if depth == 2 {
					inTxBody = false
				}
			}

			if depth == 1 && current != nil {
				shapes = append(shapes, *current)
				current = nil
			}
			depth--
		}
	}

	return shapes, nil
}
