package codec

import (
	"bytes"
	"errors"
	"io"
)

// Collection is an encoded collection ready to be written.
type Collection struct {
	Name      string
	Documents []Object
}

var errWriterState = errors.New("codec: writer used out of order")

// Writer writes an export bundle incrementally:
//
//	{
//	  "<collection>": [
//	    { ... },
//	  ],
//	  ...
//	}
//
// BeginCollection, WriteDocument and EndCollection may be repeated; Close
// finishes the top-level object. The bytes are the same whether documents
// arrive one at a time or all at once.
type Writer struct {
	w           io.Writer
	started     bool
	inColl      bool
	closed      bool
	collections int
	docs        int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) BeginCollection(name string) error {
	if w.inColl || w.closed {
		return errWriterState
	}
	var buf bytes.Buffer
	if !w.started {
		buf.WriteByte('{')
		w.started = true
	}
	if w.collections > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString("\n" + indent)
	if err := appendString(&buf, name); err != nil {
		return err
	}
	buf.WriteString(": [")
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return err
	}
	w.inColl = true
	w.docs = 0
	w.collections++
	return nil
}

func (w *Writer) WriteDocument(doc Object) error {
	if !w.inColl {
		return errWriterState
	}
	body, err := MarshalIndent(doc, indent+indent)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if w.docs > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString("\n" + indent + indent)
	buf.Write(body)
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return err
	}
	w.docs++
	return nil
}

func (w *Writer) EndCollection() error {
	if !w.inColl {
		return errWriterState
	}
	closing := "]"
	if w.docs > 0 {
		closing = "\n" + indent + "]"
	}
	if _, err := io.WriteString(w.w, closing); err != nil {
		return err
	}
	w.inColl = false
	return nil
}

// Close writes the end of the top-level object and a trailing newline.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.inColl {
		return errWriterState
	}
	if w.closed {
		return nil
	}
	closing := "\n}\n"
	if !w.started {
		closing = "{}\n"
	}
	if _, err := io.WriteString(w.w, closing); err != nil {
		return err
	}
	w.closed = true
	return nil
}

// WriteBundle writes fully materialized collections in order.
func WriteBundle(out io.Writer, bundle []Collection) error {
	w := NewWriter(out)
	for _, c := range bundle {
		if err := w.BeginCollection(c.Name); err != nil {
			return err
		}
		for _, d := range c.Documents {
			if err := w.WriteDocument(d); err != nil {
				return err
			}
		}
		if err := w.EndCollection(); err != nil {
			return err
		}
	}
	return w.Close()
}
