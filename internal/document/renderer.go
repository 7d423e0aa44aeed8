// Package document fills office document templates with loan and stock data.
package document

import (
	"errors"
	"fmt"
)

// Template names.
const (
	TemplateLoan       = "loan"
	TemplateAlteration = "alteration"
	TemplateReady      = "ready"
	TemplateDaily      = "daily"
)

// MIME types of rendered documents.
const (
	DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	XlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrTemplateNotFound is returned when the named template does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Renderer fills a named template with data and returns the document bytes.
type Renderer interface {
	Render(name string, data map[string]any) ([]byte, error)
}

// RenderError reports a template that exists but could not be rendered.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering template %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
