package drawio

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"
)

var errNoModel = errors.New("no mxGraphModel found")

// page is one diagram tab with its model.
type page struct {
	Name  string
	Model *graphModel
}

type mxFile struct {
	Diagrams []diagramXML `xml:"diagram"`
}

type diagramXML struct {
	Name  string      `xml:"name,attr"`
	ID    string      `xml:"id,attr"`
	Model *graphModel `xml:"mxGraphModel"`
	Data  string      `xml:",chardata"`
}

type graphModel struct {
	Root struct {
		Items []element `xml:",any"`
	} `xml:"root"`
}

// element is an mxCell or an object/UserObject wrapper around one.
type element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Cell    *struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"mxCell"`
}

// decodePages reads an mxfile or a bare mxGraphModel.
func decodePages(data []byte) ([]page, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errNoModel
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "mxGraphModel":
			var m graphModel
			if err := dec.DecodeElement(&m, &start); err != nil {
				return nil, err
			}
			return []page{{Name: "Page-1", Model: &m}}, nil
		case "mxfile":
			var f mxFile
			if err := dec.DecodeElement(&f, &start); err != nil {
				return nil, err
			}
			return filePages(f)
		default:
			return nil, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}
	}
}

func filePages(f mxFile) ([]page, error) {
	var pages []page
	for i, d := range f.Diagrams {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = fmt.Sprintf("Page-%d", i+1)
		}

		model := d.Model
		if model == nil {
			payload := strings.TrimSpace(d.Data)
			if payload == "" {
				continue
			}
			m, err := inflateModel(payload)
			if err != nil {
				return nil, fmt.Errorf("diagram %q: %w", name, err)
			}
			model = m
		}
		pages = append(pages, page{Name: name, Model: model})
	}
	if len(pages) == 0 {
		return nil, errNoModel
	}
	return pages, nil
}

// inflateModel decodes a compressed diagram: base64, raw deflate, then
// URL-encoded XML.
func inflateModel(payload string) (*graphModel, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	inflated, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}
	text, err := url.PathUnescape(string(inflated))
	if err != nil {
		return nil, fmt.Errorf("unescaping: %w", err)
	}

	var m graphModel
	if err := xml.Unmarshal([]byte(text), &m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return &m, nil
}

// cell is an element flattened into its attributes.
type cell struct {
	ID     string
	Label  string
	Style  string
	Vertex bool
	Edge   bool
	Source string
	Target string
	// Custom holds object wrapper attributes other than id and label.
	Custom map[string]string
}

// reservedAttrs are draw.io object attributes that are not user data.
var reservedAttrs = map[string]bool{
	"id": true, "label": true, "placeholders": true, "tooltip": true, "link": true,
}

func (e element) flatten() (cell, bool) {
	var cellAttrs []xml.Attr
	c := cell{}

	switch e.XMLName.Local {
	case "mxCell":
		cellAttrs = e.Attrs
	case "object", "UserObject":
		if e.Cell == nil {
			return cell{}, false
		}
		cellAttrs = e.Cell.Attrs
		for _, a := range e.Attrs {
			switch {
			case a.Name.Local == "id":
				c.ID = a.Value
			case a.Name.Local == "label":
				c.Label = a.Value
			case !reservedAttrs[a.Name.Local]:
				if c.Custom == nil {
					c.Custom = make(map[string]string)
				}
				c.Custom[a.Name.Local] = a.Value
			}
		}
	default:
		return cell{}, false
	}

	for _, a := range cellAttrs {
		switch a.Name.Local {
		case "id":
			if c.ID == "" {
				c.ID = a.Value
			}
		case "value":
			if c.Label == "" {
				c.Label = a.Value
			}
		case "style":
			c.Style = a.Value
		case "vertex":
			c.Vertex = a.Value == "1"
		case "edge":
			c.Edge = a.Value == "1"
		case "source":
			c.Source = a.Value
		case "target":
			c.Target = a.Value
		}
	}
	c.Label = stripHTML(c.Label)
	return c, true
}

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>|</(?:div|p|li)>`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
)

// stripHTML reduces an HTML label to plain single-spaced text.
func stripHTML(label string) string {
	s := lineBreakTag.ReplaceAllString(label, " ")
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// shapeOf returns the shape named by a style string.
func shapeOf(style string) string {
	first := ""
	for i, tok := range strings.Split(style, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if k, v, ok := strings.Cut(tok, "="); ok {
			if k == "shape" && v != "" {
				return v
			}
			continue
		}
		if i == 0 {
			first = tok
		}
	}
	if first != "" {
		return first
	}
	return "rectangle"
}
