package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

const documentPart = "word/document.xml"

var errNoDocumentPart = errors.New("missing " + documentPart)

// paragraph is one w:p element reduced to what the parser needs.
type paragraph struct {
	Style string
	List  bool
	Text  string
}

// headingLevel returns 1-9 for HeadingN styles, 0 for Title and -1 otherwise.
func (p paragraph) headingLevel() int {
	style := strings.ToLower(strings.ReplaceAll(p.Style, " ", ""))
	if style == "title" {
		return 0
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 9 {
			return n
		}
	}
	return -1
}

// readDocumentPart extracts word/document.xml from the archive.
func readDocumentPart(content []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, errNoDocumentPart
}

// decodeParagraphs streams the document body and returns every paragraph
// in document order, including those inside tables.
func decodeParagraphs(data []byte) ([]paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []paragraph
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "p" {
			continue
		}

		p, err := decodeParagraph(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

// decodeParagraph consumes one w:p element whose start tag has already been
// read. Text is collected in document order across runs and hyperlinks.
func decodeParagraph(dec *xml.Decoder) (paragraph, error) {
	var (
		p       paragraph
		b       strings.Builder
		depth   = 1
		inProps bool
		inText  bool
	)
	for depth > 0 {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return paragraph{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return paragraph{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "pPr":
				inProps = true
			case "pStyle":
				if inProps {
					p.Style = attrValue(t, "val")
				}
			case "numPr":
				if inProps {
					p.List = true
				}
			case "t":
				inText = true
			case "tab", "br":
				// pPr carries tab stops, not tab characters.
				if !inProps {
					b.WriteString(" ")
				}
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "pPr":
				inProps = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	if strings.EqualFold(p.Style, "ListParagraph") {
		p.List = true
	}
	p.Text = strings.TrimSpace(b.String())
	return p, nil
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
