// Package content holds the documents and assets that flow through a migration run.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// LayoutField is the document key holding the layout reference.
const LayoutField = "layout"

// Document is a page document as served by the content store.
type Document map[string]any

// DecodeDocument reads a JSON object, keeping numbers as json.Number so they
// serialize back unchanged.
func DecodeDocument(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode document: not a JSON object")
	}
	return doc, nil
}

// Encode serializes the document as JSON without HTML escaping.
func (d Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Layout returns the layout reference when present as a non-empty string.
func (d Document) Layout() (string, bool) {
	v, ok := d[LayoutField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// SetLayout replaces the layout reference.
func (d Document) SetLayout(ref string) {
	d[LayoutField] = ref
}

// Asset is a fetched document paired with the reference and URL it came from.
type Asset struct {
	URL       string
	Reference string
	Document  Document
}
