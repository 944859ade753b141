package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/yosssi/gohtml"
)

// Document is implemented by results that render as a complete page.
type Document interface {
	Document() (string, error)
}

// HTMLWriter writes each result as a complete HTML page.
type HTMLWriter struct {
	w      *bufio.Writer
	pretty bool
}

// NewHTMLWriter creates an HTML writer. With pretty set, pages are indented.
func NewHTMLWriter(w io.Writer, pretty bool) *HTMLWriter {
	return &HTMLWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
	}
}

// Write renders data, which must implement Document.
func (w *HTMLWriter) Write(data any) error {
	doc, ok := data.(Document)
	if !ok {
		return fmt.Errorf("html output needs a document, got %T", data)
	}
	page, err := doc.Document()
	if err != nil {
		return err
	}
	if w.pretty {
		page = gohtml.Format(page)
	}
	if _, err := w.w.WriteString(page); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes every page in order.
func (w *HTMLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *HTMLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *HTMLWriter) Close() error {
	return w.Flush()
}
