package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/cautelas/internal/document"
)

// documents renders templates on behalf of the download handlers.
type documents struct {
	Renderer document.Renderer
	Metrics  *Metrics
	Now      func() time.Time
}

// sendDocx renders the named template and writes it as an attachment.
func (d *documents) sendDocx(w http.ResponseWriter, r *http.Request, name, filename string, data map[string]any) {
	if d.Renderer == nil {
		storeError(w, r, "render document", fmt.Errorf("%w: %s", document.ErrTemplateNotFound, name))
		return
	}

	out, err := d.Renderer.Render(name, data)
	d.Metrics.rendered(name, err)
	if err != nil {
		storeError(w, r, "render document", err)
		return
	}

	slog.Info("document generated", "template", name, "file", filename, "bytes", len(out))
	sendFile(w, document.DocxMIME, filename, out)
}

// wantsXLSX reports whether the caller asked for a spreadsheet.
func wantsXLSX(r *http.Request) bool {
	return r.URL.Query().Get("format") == "xlsx"
}

// fileDate formats t for use in download file names.
func fileDate(t time.Time) string {
	return t.Format("2006-01-02")
}
