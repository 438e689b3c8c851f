// Package importer populates the verse graph from a Zefania XML
// document. Parsing and per-book resolution are separated from the
// write pipeline so a single malformed book skips cleanly while the
// rest of the document imports.
package importer

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
)

// Document is the raw Zefania shape: XMLBIBLE root, BIBLEBOOK books,
// CHAPTER chapters, VERS verses. Numeric attributes stay strings here;
// resolveBook parses them so one bad book never fails the whole decode.
type Document struct {
	XMLName xml.Name `xml:"XMLBIBLE"`
	Books   []Book   `xml:"BIBLEBOOK"`
}

type Book struct {
	Name     string    `xml:"bname,attr"`
	Number   string    `xml:"bnumber,attr"`
	Chapters []Chapter `xml:"CHAPTER"`
}

type Chapter struct {
	Number string  `xml:"cnumber,attr"`
	Verses []Verse `xml:"VERS"`
}

// Verse collects the text segments of one VERS element. Markup inside
// the element (notes, styling) is skipped; only its surrounding text is
// kept, segment by segment.
type Verse struct {
	Number   string
	segments []string
}

func (v *Verse) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "vnumber" {
			v.Number = attr.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				v.segments = append(v.segments, s)
			}
		case xml.StartElement:
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Text joins the verse's text segments with single spaces and collapses
// every internal whitespace run. An empty element yields "".
func (v *Verse) Text() string {
	return strings.Join(strings.Fields(strings.Join(v.segments, " ")), " ")
}

// Parse decodes a Zefania document. A wrong root element, malformed
// XML, or a document without books is a precondition failure; nothing
// is written in that case.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse document: %v: %w", err, pkgerrors.ErrPrecondition)
	}
	if len(doc.Books) == 0 {
		return nil, fmt.Errorf("document has no BIBLEBOOK elements: %w", pkgerrors.ErrPrecondition)
	}
	return &doc, nil
}

// ParseFile opens and parses the document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %v: %w", path, err, pkgerrors.ErrPrecondition)
	}
	defer f.Close()
	return Parse(f)
}

// bookData is a fully resolved book: attributes parsed, text
// normalized, ready for graph writes.
type bookData struct {
	name     string
	number   int
	chapters []chapterData
}

type chapterData struct {
	number int
	verses []verseData
}

type verseData struct {
	number int
	text   string
}

// resolveBook validates and parses one book. Any missing attribute,
// non-numeric index, or empty container rejects the whole book, which
// the pipeline then skips.
func resolveBook(b Book) (bookData, error) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return bookData{}, fmt.Errorf("book has no bname attribute")
	}
	number, err := strconv.Atoi(strings.TrimSpace(b.Number))
	if err != nil {
		return bookData{}, fmt.Errorf("book %s has invalid bnumber %q", name, b.Number)
	}
	if len(b.Chapters) == 0 {
		return bookData{}, fmt.Errorf("book %s has no chapters", name)
	}

	out := bookData{
		name:     name,
		number:   number,
		chapters: make([]chapterData, 0, len(b.Chapters)),
	}
	for _, c := range b.Chapters {
		cnum, err := strconv.Atoi(strings.TrimSpace(c.Number))
		if err != nil {
			return bookData{}, fmt.Errorf("book %s has invalid cnumber %q", name, c.Number)
		}
		if len(c.Verses) == 0 {
			return bookData{}, fmt.Errorf("book %s chapter %d has no verses", name, cnum)
		}
		chapter := chapterData{
			number: cnum,
			verses: make([]verseData, 0, len(c.Verses)),
		}
		for _, v := range c.Verses {
			vnum, err := strconv.Atoi(strings.TrimSpace(v.Number))
			if err != nil {
				return bookData{}, fmt.Errorf("book %s chapter %d has invalid vnumber %q", name, cnum, v.Number)
			}
			chapter.verses = append(chapter.verses, verseData{number: vnum, text: v.Text()})
		}
		out.chapters = append(out.chapters, chapter)
	}
	return out, nil
}
