package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"sheetdesk-cli/internal/docs"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		// No html.WithUnsafe: raw HTML in topics stays escaped.
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	// Safe to mark as HTML because raw passthrough is disabled above.
	return template.HTML(b.String())
}

func (s *Server) handleDocsIndex(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("# Documentation\n\n")
	for _, topic := range docs.Topics() {
		fmt.Fprintf(&b, "- [%s](/docs/%s)\n", topic, topic)
	}
	s.writeDocsPage(w, "docs", renderMarkdownHTML(b.String()))
}

func (s *Server) handleDocsTopic(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	body, ok := docs.Get(topic)
	if !ok {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("unknown docs topic: '%s'", topic))
		return
	}
	s.writeDocsPage(w, topic, renderMarkdownHTML(body))
}

func (s *Server) writeDocsPage(w http.ResponseWriter, title string, body template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "docs.html", map[string]any{
		"Title": title,
		"Body":  body,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
