package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"clarify/internal/contextutil"
	"clarify/internal/journal"
	"clarify/internal/service"
)

const untitledEntry = "Untitled entry"

// EntryPageHandler serves a journal entry as a rendered HTML page.
type EntryPageHandler struct {
	journal  service.JournalService
	markdown goldmark.Markdown
	template *template.Template
}

// entryPageData holds template data for rendered entry pages.
type entryPageData struct {
	Title         string
	Updated       string
	Version       int
	KeyQuestion   string
	Content       template.HTML
	Assumptions   []string
	Uncertainties []string
}

var entryPageTemplate = template.Must(template.New("entry").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 760px;
      line-height: 1.7;
      background: #fbfaf7;
      color: #1f2933;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #e4e2dc;
      padding-bottom: 1rem;
    }
    h1 {
      margin: 0;
      font-size: 2rem;
    }
    .meta {
      color: #6b7280;
      font-size: 0.9rem;
    }
    .key-question {
      border-left: 4px solid #b45309;
      padding-left: 1rem;
      font-style: italic;
    }
    aside {
      margin-top: 2rem;
      padding: 1rem 1.5rem;
      background: #f3f1ec;
      border-radius: 10px;
    }
    aside h2 {
      font-size: 1rem;
      margin-bottom: 0.25rem;
    }
    pre {
      background: #f3f1ec;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 8px;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Updated {{.Updated}} &middot; Version {{.Version}}</p>
  </header>
  {{if .KeyQuestion}}<p class="key-question">{{.KeyQuestion}}</p>{{end}}
  <article>{{.Content}}</article>
  {{if or .Assumptions .Uncertainties}}
  <aside>
    {{if .Assumptions}}
    <h2>Assumptions</h2>
    <ul>{{range .Assumptions}}<li>{{.}}</li>{{end}}</ul>
    {{end}}
    {{if .Uncertainties}}
    <h2>Uncertainties</h2>
    <ul>{{range .Uncertainties}}<li>{{.}}</li>{{end}}</ul>
    {{end}}
  </aside>
  {{end}}
</body>
</html>`))

// NewEntryPageHandler creates a new handler for entry pages. Raw HTML in
// entry content is not rendered.
func NewEntryPageHandler(journalService service.JournalService) *EntryPageHandler {
	return &EntryPageHandler{
		journal: journalService,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: entryPageTemplate,
	}
}

// ServeHTTP renders the requested entry as HTML.
func (h *EntryPageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.journal.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load entry", "entry_id", id, "error", err)
		http.Error(w, "failed to load entry", http.StatusInternalServerError)
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(entry.Content))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "entry_id", id, "error", err)
		http.Error(w, "failed to render entry", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, pageData(entry, htmlContent)); err != nil {
		logger.ErrorContext(ctx, "failed to execute entry template", "entry_id", id, "error", err)
		http.Error(w, "failed to render entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func pageData(e journal.Entry, htmlContent string) entryPageData {
	return entryPageData{
		Title:         entryTitle(e),
		Updated:       e.UpdatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Version:       e.Version,
		KeyQuestion:   e.KeyQuestion,
		Content:       template.HTML(htmlContent),
		Assumptions:   e.Assumptions,
		Uncertainties: e.Uncertainties,
	}
}

func (h *EntryPageHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func entryTitle(e journal.Entry) string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return untitledEntry
}
