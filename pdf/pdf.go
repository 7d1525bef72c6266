// Package pdf writes single-purpose PDF files: a raster page image with an
// invisible, selectable text layer on top. It carries its own small object
// model and serializer instead of a general-purpose engine; the object set
// a sandwich page needs is fixed and known.
package pdf

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when image data is neither JPEG nor PNG.
var ErrUnsupportedFormat = errors.New("pdf: unsupported image format")

// Name is a PDF name object, written with a leading slash.
type Name string

// Ref is an indirect object reference. Generation numbers are always zero.
type Ref struct {
	Num int
}

// Dict is a PDF dictionary.
type Dict map[Name]any

// Array is a PDF array.
type Array []any

// String is a literal PDF string, escaped on write.
type String string

// Hex is a hexadecimal PDF string.
type Hex []byte

// Stream couples a dictionary with raw stream data. Length is filled in
// during serialization.
type Stream struct {
	Dict Dict
	Data []byte
}

// Document holds numbered indirect objects and the catalog reference.
type Document struct {
	objects []any
	root    Ref
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Add appends obj as the next indirect object.
func (d *Document) Add(obj any) Ref {
	d.objects = append(d.objects, obj)
	return Ref{Num: len(d.objects)}
}

// Reserve allocates an object number to be filled in later with Set.
func (d *Document) Reserve() Ref {
	return d.Add(nil)
}

// Set replaces the object behind a reserved reference.
func (d *Document) Set(ref Ref, obj any) {
	d.objects[ref.Num-1] = obj
}

// SetRoot records the document catalog.
func (d *Document) SetRoot(ref Ref) {
	d.root = ref
}

func (d *Document) validate() error {
	if d.root.Num == 0 {
		return errors.New("pdf: document has no catalog")
	}
	for i, obj := range d.objects {
		if obj == nil {
			return fmt.Errorf("pdf: object %d reserved but never set", i+1)
		}
	}
	return nil
}
