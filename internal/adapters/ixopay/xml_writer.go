package ixopay

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// xmlWriter emits elements strictly in call order.
// The processor validates element order, so requests are written tag by tag
// instead of being marshalled from structs.
type xmlWriter struct {
	buf   bytes.Buffer
	depth int
}

func newXMLWriter() *xmlWriter {
	w := &xmlWriter{}
	w.buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	w.buf.WriteByte('\n')
	return w
}

// block writes <name attrs...>, runs body, then writes </name>
func (w *xmlWriter) block(name string, body func(), attrs ...xml.Attr) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	for _, attr := range attrs {
		w.buf.WriteByte(' ')
		w.buf.WriteString(attr.Name.Local)
		w.buf.WriteString(`="`)
		xml.EscapeText(&w.buf, []byte(attr.Value))
		w.buf.WriteByte('"')
	}
	w.buf.WriteString(">\n")

	w.depth++
	body()
	w.depth--

	w.indent()
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteString(">\n")
}

// tag writes a leaf element; an empty value becomes <name/>
func (w *xmlWriter) tag(name, value string) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	if value == "" {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteByte('>')
	xml.EscapeText(&w.buf, []byte(value))
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteString(">\n")
}

func (w *xmlWriter) indent() {
	w.buf.WriteString(strings.Repeat("  ", w.depth))
}

func (w *xmlWriter) bytes() []byte {
	return w.buf.Bytes()
}
