package server

import (
	"bytes"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// The status page is server-rendered; datastar re-patches the config table
// into the page whenever the hub broadcasts, so the browser mirrors what
// connected panels see without any page-side scripting.

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", s.snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleUIUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	patch := func() bool {
		html, err := s.renderConfigsFragment()
		if err != nil {
			s.log.Warn("render ui fragment", "error", err)
			return false
		}
		return sse.PatchElements(html,
			datastar.WithSelector("#configs"),
			datastar.WithMode(datastar.ElementPatchModeOuter),
		) == nil
	}

	if !patch() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if !patch() {
				return
			}
		}
	}
}

func (s *Server) renderConfigsFragment() (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "configs", s.snapshot()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
