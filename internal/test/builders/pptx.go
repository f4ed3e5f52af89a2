package builders

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
)

// ShapeSpec describes one spTree child of a generated slide.
type ShapeSpec struct {
	Element     string // sp, pic, graphicFrame, grpSp, cxnSp
	Placeholder string // p:ph type; "-" for an untyped placeholder, "" for none
	Paragraphs  []string
	NoTextBody  bool
	Children    []ShapeSpec
}

// TitleShape returns a title placeholder holding text.
func TitleShape(text string) ShapeSpec {
	return ShapeSpec{Element: "sp", Placeholder: "title", Paragraphs: []string{text}}
}

// CenteredTitleShape returns a ctrTitle placeholder holding text.
func CenteredTitleShape(text string) ShapeSpec {
	return ShapeSpec{Element: "sp", Placeholder: "ctrTitle", Paragraphs: []string{text}}
}

// BodyShape returns a body placeholder with one paragraph per argument.
func BodyShape(paragraphs ...string) ShapeSpec {
	return ShapeSpec{Element: "sp", Placeholder: "body", Paragraphs: paragraphs}
}

// TextBox returns a plain, non-placeholder text box.
func TextBox(paragraphs ...string) ShapeSpec {
	return ShapeSpec{Element: "sp", Paragraphs: paragraphs}
}

// NoTextShape returns an auto shape without a text body.
func NoTextShape() ShapeSpec {
	return ShapeSpec{Element: "sp", NoTextBody: true}
}

// Picture returns a picture element.
func Picture() ShapeSpec {
	return ShapeSpec{Element: "pic"}
}

// Group returns a group shape wrapping children.
func Group(children ...ShapeSpec) ShapeSpec {
	return ShapeSpec{Element: "grpSp", Children: children}
}

// PresentationBuilder builds a minimal but well-formed .pptx package.
type PresentationBuilder struct {
	slides       [][]ShapeSpec
	reverseParts bool
	omitRootRels bool
}

// NewPresentationBuilder creates an empty presentation builder.
func NewPresentationBuilder() *PresentationBuilder {
	return &PresentationBuilder{}
}

// WithSlide appends a slide holding shapes in the given order.
func (b *PresentationBuilder) WithSlide(shapes ...ShapeSpec) *PresentationBuilder {
	b.slides = append(b.slides, shapes)
	return b
}

// WithReversedPartNames stores slide 1 in the highest numbered part so that
// part names and presentation order disagree.
func (b *PresentationBuilder) WithReversedPartNames() *PresentationBuilder {
	b.reverseParts = true
	return b
}

// WithoutRootRelationships omits _rels/.rels.
func (b *PresentationBuilder) WithoutRootRelationships() *PresentationBuilder {
	b.omitRootRels = true
	return b
}

// Build returns the zipped package bytes.
func (b *PresentationBuilder) Build() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	if err := write("[Content_Types].xml", b.contentTypes()); err != nil {
		return nil, err
	}
	if !b.omitRootRels {
		rootRels := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
			`<Relationship Id="rId1" Type="%s" Target="ppt/presentation.xml"/></Relationships>`, relOfficeDocument)
		if err := write("_rels/.rels", rootRels); err != nil {
			return nil, err
		}
	}

	var ids, rels strings.Builder
	for i := range b.slides {
		rid := fmt.Sprintf("rId%d", i+10)
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="%s" Target="slides/%s"/>`, rid, relSlide, b.partName(i))
	}

	pres := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:sldIdLst>%s</p:sldIdLst>`+
		`<p:sldSz cx="9144000" cy="6858000"/></p:presentation>`, nsA, nsR, nsP, ids.String())
	if err := write("ppt/presentation.xml", pres); err != nil {
		return nil, err
	}

	presRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		rels.String() + `</Relationships>`
	if err := write("ppt/_rels/presentation.xml.rels", presRels); err != nil {
		return nil, err
	}

	for i, shapes := range b.slides {
		if err := write("ppt/slides/"+b.partName(i), slideXML(shapes)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile builds the package and writes it to dir/name.
func (b *PresentationBuilder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()

	data, err := b.Build()
	if err != nil {
		t.Fatalf("build presentation: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write presentation: %v", err)
	}
	return p
}

func (b *PresentationBuilder) partName(i int) string {
	n := i + 1
	if b.reverseParts {
		n = len(b.slides) - i
	}
	return fmt.Sprintf("slide%d.xml", n)
}

func (b *PresentationBuilder) contentTypes() string {
	var overrides strings.Builder
	for i := range b.slides {
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, b.partName(i))
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		overrides.String() + `</Types>`
}

func slideXML(shapes []ShapeSpec) string {
	var tree strings.Builder
	id := 2
	for _, s := range shapes {
		writeShape(&tree, s, &id)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld><p:spTree>`+
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`+
		`%s</p:spTree></p:cSld></p:sld>`, nsA, nsR, nsP, tree.String())
}

func writeShape(sb *strings.Builder, s ShapeSpec, id *int) {
	cNvPr := fmt.Sprintf(`<p:cNvPr id="%d" name="Shape %d"/>`, *id, *id)
	*id++

	switch s.Element {
	case "pic":
		fmt.Fprintf(sb, `<p:pic><p:nvPicPr>%s<p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill/><p:spPr/></p:pic>`, cNvPr)
		return
	case "graphicFrame":
		fmt.Fprintf(sb, `<p:graphicFrame><p:nvGraphicFramePr>%s<p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><a:graphic/></p:graphicFrame>`, cNvPr)
		return
	case "cxnSp":
		fmt.Fprintf(sb, `<p:cxnSp><p:nvCxnSpPr>%s<p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr><p:spPr/></p:cxnSp>`, cNvPr)
		return
	case "grpSp":
		fmt.Fprintf(sb, `<p:grpSp><p:nvGrpSpPr>%s<p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`, cNvPr)
		for _, c := range s.Children {
			writeShape(sb, c, id)
		}
		sb.WriteString(`</p:grpSp>`)
		return
	}

	nvPr := `<p:nvPr/>`
	switch s.Placeholder {
	case "":
	case "-":
		nvPr = `<p:nvPr><p:ph idx="1"/></p:nvPr>`
	default:
		nvPr = fmt.Sprintf(`<p:nvPr><p:ph type="%s"/></p:nvPr>`, s.Placeholder)
	}

	fmt.Fprintf(sb, `<p:sp><p:nvSpPr>%s<p:cNvSpPr/>%s</p:nvSpPr><p:spPr/>`, cNvPr, nvPr)
	if !s.NoTextBody {
		sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
		for _, para := range s.Paragraphs {
			sb.WriteString(`<a:p>`)
			if para != "" {
				sb.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>`)
				xml.EscapeText(sb, []byte(para))
				sb.WriteString(`</a:t></a:r>`)
			}
			sb.WriteString(`</a:p>`)
		}
		sb.WriteString(`</p:txBody>`)
	}
	sb.WriteString(`</p:sp>`)
}
