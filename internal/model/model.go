// Package model holds the in-memory representation of a DAC schema document
// (model.xml) and the entity extraction logic over it.
package model

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Namespace is the serialization namespace every element of a DAC model
// document lives in.
const Namespace = "http://schemas.microsoft.com/sqlserver/dac/Serialization/2012/02"

// Attr is a single XML attribute. Order is preserved.
type Attr struct {
	Key   string
	Value string
}

// Element is one node of the schema document tree. Tags are stored by local
// name only; the document uses a single default namespace throughout.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Child returns the first direct child with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildWithAttr returns the first direct child with the given tag whose
// attribute key equals value, or nil.
func (e *Element) ChildWithAttr(tag, key, value string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag && c.Attr(key) == value {
			return c
		}
	}
	return nil
}

// Append adds child as the last child of e.
func (e *Element) Append(child *Element) {
	e.Children = append(e.Children, child)
}

// Walk visits e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Clone returns a deep copy of the subtree rooted at e. The merged baseline
// must never share nodes with the source document, so every transplanted
// subtree goes through Clone first.
func (e *Element) Clone() *Element {
	cp := &Element{Tag: e.Tag, Text: e.Text}
	if len(e.Attrs) > 0 {
		cp.Attrs = make([]Attr, len(e.Attrs))
		copy(cp.Attrs, e.Attrs)
	}
	for _, c := range e.Children {
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}

// Load reads and parses a model document from disk.
func Load(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return root, nil
}

// Parse builds an element tree from an XML stream. Namespace declarations are
// dropped on read; serialization re-attaches the default namespace on the
// root (see Write).
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Key: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				stack[len(stack)-1].Append(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end tag </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			// Inter-element whitespace is formatting, not content.
			if len(stack) > 0 && strings.TrimSpace(string(t)) != "" {
				cur := stack[len(stack)-1]
				cur.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unexpected end of document inside <%s>", stack[len(stack)-1].Tag)
	}
	return root, nil
}

// WriteOptions controls serialization. DefaultNamespace, when set, is declared
// once on the root element; children are written unprefixed.
type WriteOptions struct {
	DefaultNamespace string
}

// Write serializes the tree to w with an XML declaration.
func Write(w io.Writer, root *Element, opts WriteOptions) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return writeElement(w, root, opts.DefaultNamespace)
}

// Save serializes the tree to path, truncating any existing file.
func Save(path string, root *Element, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, root, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeElement(w io.Writer, e *Element, xmlns string) error {
	if _, err := io.WriteString(w, "<"+e.Tag); err != nil {
		return err
	}
	if xmlns != "" {
		if err := writeAttr(w, "xmlns", xmlns); err != nil {
			return err
		}
	}
	for _, a := range e.Attrs {
		if err := writeAttr(w, a.Key, a.Value); err != nil {
			return err
		}
	}

	if e.Text == "" && len(e.Children) == 0 {
		_, err := io.WriteString(w, "/>")
		return err
	}

	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if e.Text != "" {
		if err := xml.EscapeText(w, []byte(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		// The namespace declaration lives on the root only.
		if err := writeElement(w, c, ""); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+e.Tag+">")
	return err
}

func writeAttr(w io.Writer, key, value string) error {
	if _, err := io.WriteString(w, " "+key+`="`); err != nil {
		return err
	}
	if err := xml.EscapeText(w, []byte(value)); err != nil {
		return err
	}
	_, err := io.WriteString(w, `"`)
	return err
}
