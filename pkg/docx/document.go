// Package docx edits WordprocessingML documents in place: it opens a .docx
// container, exposes body tables, rows, cells, paragraphs and runs of
// word/document.xml, and writes the container back with every other part untouched.
package docx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

const documentPart = "word/document.xml"

type part struct {
	name   string
	method uint16
	data   []byte
}

// Document is an opened .docx file.
type Document struct {
	parts []part
	xml   *etree.Document
	body  *etree.Element
}

// Open reads a .docx file from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Read(data)
}

// Read parses a .docx container held in memory.
func Read(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx container: %w", err)
	}

	d := &Document{parts: make([]part, 0, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		d.parts = append(d.parts, part{name: f.Name, method: f.Method, data: b})

		if f.Name == documentPart {
			d.xml = etree.NewDocument()
			if err := d.xml.ReadFromBytes(b); err != nil {
				return nil, fmt.Errorf("parse %s: %w", documentPart, err)
			}
		}
	}

	if d.xml == nil || d.xml.Root() == nil {
		return nil, fmt.Errorf("docx has no %s", documentPart)
	}
	d.body = child(d.xml.Root(), "body")
	if d.body == nil {
		return nil, fmt.Errorf("%s has no w:body", documentPart)
	}
	return d, nil
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, el := range bodyBlocks(d.body) {
		if is(el, "tbl") {
			out = append(out, &Table{el: el})
		}
	}
	return out
}

// Paragraphs returns the body-level paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range bodyBlocks(d.body) {
		if is(el, "p") {
			out = append(out, &Paragraph{el: el})
		}
	}
	return out
}

// bodyBlocks lists block-level elements, looking through content controls.
func bodyBlocks(parent *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, el := range parent.ChildElements() {
		if is(el, "sdt") {
			if content := child(el, "sdtContent"); content != nil {
				out = append(out, bodyBlocks(content)...)
			}
			continue
		}
		out = append(out, el)
	}
	return out
}

// Write serializes the container to w, preserving part order.
func (d *Document) Write(w io.Writer) error {
	docXML, err := d.xml.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", documentPart, err)
	}

	zw := zip.NewWriter(w)
	for _, p := range d.parts {
		data := p.data
		if p.name == documentPart {
			data = docXML
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: p.method})
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// Bytes returns the serialized container.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path through a temporary file in the same
// directory, so readers never observe a half-written act.
func (d *Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docx-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
