package ixopay

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
)

// xmlElement is the minimal document tree the flattener walks.
// The document itself is an element with an empty name.
type xmlElement struct {
	name     string
	attrs    []xml.Attr
	elements []*xmlElement
	content  []xmlContent // non-element children in document order
}

// xmlContent is a text, CDATA, comment or processing-instruction child.
// Comments keep their inner text and instructions their <?...?> form; both take
// part in mixed-content joins but never count as an element's own text.
type xmlContent struct {
	text   string
	isText bool
}

// parseResponse flattens a processor XML document into a FlatResponse.
// The action key records which operation produced the document.
func parseResponse(action string, raw []byte) (ports.FlatResponse, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return ports.FlatResponse{}, err
	}

	flat := ports.NewFlatResponse()
	flat.Set("action", action)
	flattenElement(&flat, doc)
	return flat, nil
}

// flattenElement records attributes, then either a presence marker plus the
// children, or the element's text. Colliding keys are overwritten (last wins).
func flattenElement(flat *ports.FlatResponse, el *xmlElement) {
	name := underscore(el.name)

	for _, attr := range el.attrs {
		flat.Set(name+"_"+underscore(attrName(attr.Name)), attr.Value)
	}

	switch {
	case len(el.elements) > 0:
		if name != "" {
			flat.Mark(name)
		}
		for _, child := range el.elements {
			flattenElement(flat, child)
		}

	case len(el.content) > 1:
		parts := make([]string, 0, len(el.content))
		for _, c := range el.content {
			parts = append(parts, c.text)
		}
		flat.Set(name, strings.TrimSpace(strings.Join(parts, " ")))

	default:
		if text, ok := el.text(); ok {
			flat.Set(name, text)
		}
	}
}

// text returns the first text child, if any
func (el *xmlElement) text() (string, bool) {
	for _, c := range el.content {
		if c.isText {
			return c.text, true
		}
	}
	return "", false
}

func procInstText(p xml.ProcInst) string {
	if len(p.Inst) == 0 {
		return "<?" + p.Target + "?>"
	}
	return "<?" + p.Target + " " + string(p.Inst) + "?>"
}

// attrName keeps the prefix as written: xmlns, xmlns:ns2, xsi:type
func attrName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// decodeDocument builds the element tree and rejects anything that is not a
// single well-formed document.
func decodeDocument(raw []byte) (*xmlElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true
	// Declared encodings other than UTF-8 are passed through unchanged.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	doc := &xmlElement{}
	stack := []*xmlElement{doc}
	var rawNames []xml.Name
	roots := 0

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		parent := stack[len(stack)-1]
		atDocumentLevel := len(stack) == 1

		switch t := tok.(type) {
		case xml.StartElement:
			if atDocumentLevel {
				roots++
				if roots > 1 {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedResponse)
				}
			}
			el := &xmlElement{name: t.Name.Local, attrs: append([]xml.Attr(nil), t.Attr...)}
			parent.elements = append(parent.elements, el)
			stack = append(stack, el)
			rawNames = append(rawNames, t.Name)

		case xml.EndElement:
			if atDocumentLevel || rawNames[len(rawNames)-1] != t.Name {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", ErrMalformedResponse, t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			rawNames = rawNames[:len(rawNames)-1]

		case xml.CharData:
			if atDocumentLevel {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside root element", ErrMalformedResponse)
				}
				continue
			}
			parent.content = append(parent.content, xmlContent{text: string(t), isText: true})

		case xml.Comment:
			if !atDocumentLevel {
				parent.content = append(parent.content, xmlContent{text: string(t)})
			}

		case xml.ProcInst:
			if !atDocumentLevel {
				parent.content = append(parent.content, xmlContent{text: procInstText(t)})
			}

		case xml.Directive:
			// DOCTYPE and friends carry nothing we flatten
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformedResponse, stack[len(stack)-1].name)
	}
	if roots == 0 {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedResponse)
	}
	return doc, nil
}
