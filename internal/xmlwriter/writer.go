// =============================================================================
// Order Export Converter - XML Writer Module
// =============================================================================
//
// This module carries the generic XML element tree that the report builder
// assembles, and serializes it in the two required forms: a compact
// single-line document and an indented document with an XML declaration.
//
// The serializer is hand-rolled on purpose. encoding/xml marshaling cannot
// guarantee the exact attribute order, self-closing empty elements and
// whitespace shape the target system expects, and the two forms must agree
// byte-for-byte on everything except whitespace. Keeping the writer local
// makes that invariant checkable.
//
// ELEMENT MODEL:
//   An Element either carries text or children, never both. Attributes are
//   serialized in the order they were added. An element with no text and no
//   children renders self-closing (<Tag/>) in both forms.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
)

// Declaration is the XML declaration emitted at the top of the formatted
// document, matching the target system's expected encoding label.
const Declaration = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// Attr is a single name="value" attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the document tree. Build the tree once, then
// serialize; elements are not mutated by rendering.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// New creates an element with the given attributes.
func New(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// Add appends children and returns the element for chaining.
func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// AddText appends a child element holding only text and returns the parent.
// An empty text value yields a self-closing child.
func (e *Element) AddText(name, text string) *Element {
	e.Children = append(e.Children, &Element{Name: name, Text: text})
	return e
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Render serializes the tree compactly: no declaration, no whitespace
// between elements.
func (e *Element) Render() []byte {
	var buffer bytes.Buffer
	writeElement(&buffer, e, "", 0, false)
	return buffer.Bytes()
}

// RenderIndent serializes the tree with an XML declaration and one level of
// the given indent string per nesting depth. The element content is
// identical to Render; only whitespace differs.
func (e *Element) RenderIndent(indent string) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(Declaration)
	writeElement(&buffer, e, indent, 0, true)
	return buffer.Bytes()
}

// writeElement writes one element and its subtree.
func writeElement(buffer *bytes.Buffer, element *Element, indent string, level int, pretty bool) {
	if pretty {
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("<")
	buffer.WriteString(element.Name)
	for _, attr := range element.Attrs {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.Name, EscapeText(attr.Value))
	}

	// Self-closing form for empty elements, identical in both renderings.
	if element.Text == "" && len(element.Children) == 0 {
		buffer.WriteString("/>")
		if pretty {
			buffer.WriteString("\n")
		}
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(EscapeText(element.Text))
	} else {
		if pretty {
			buffer.WriteString("\n")
		}
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1, pretty)
		}
		if pretty {
			for i := 0; i < level; i++ {
				buffer.WriteString(indent)
			}
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">")
	if pretty {
		buffer.WriteString("\n")
	}
}

// EscapeText escapes the five XML special characters.
func EscapeText(s string) string {
	var buffer bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}
	return buffer.String()
}
