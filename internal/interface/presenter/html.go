package presenter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var summaryTemplate = template.Must(template.ParseFS(templateFS, "templates/summary.html.tmpl"))

// HTMLPage wraps a summary with page-level links.
type HTMLPage struct {
	Summary

	// DownloadURL links the CSV export when set.
	DownloadURL string

	// RecordURL is the POST target that stores the run when set.
	RecordURL string

	// Notice is shown above the groups, e.g. after a run was stored.
	Notice string
}

// RenderHTML writes the full summary page.
func RenderHTML(w io.Writer, page HTMLPage) error {
	if err := summaryTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}
