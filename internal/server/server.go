// Package server is a development stand-in for the production Multi-Sheet
// Data Transfer backend.
//
// It implements the exact REST + SSE contract the panel consumes
// (get_config, the CRUD endpoints, /sse, /on_change), holds its state in
// memory, and serves a small live status page. It exists so the panel can
// be exercised, demoed, and integration-tested without the production
// service; it deliberately carries none of that service's spreadsheet
// processing or token auth.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"sheetdesk-cli/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var assetsFS embed.FS

type Config struct {
	Logger *slog.Logger
	// Seed optionally pre-populates the in-memory state.
	Seed *model.ConfigSnapshot
}

type Server struct {
	log  *slog.Logger
	tmpl *template.Template
	hub  *hub

	mu       sync.Mutex
	settings model.GlobalSettings
	sheets   []model.SheetConfig
}

func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		log:      logger,
		tmpl:     tmpl,
		hub:      newHub(),
		settings: model.GlobalSettings{TransferDestination: model.DefaultTransferDestination},
	}
	if cfg.Seed != nil {
		s.settings = cfg.Seed.GlobalSettings
		s.sheets = append(s.sheets, cfg.Seed.SheetConfigs...)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/ui/updates", s.handleUIUpdates)
	r.Get("/docs", s.handleDocsIndex)
	r.Get("/docs/{topic}", s.handleDocsTopic)

	r.Get("/get_config", s.handleGetConfig)
	r.Post("/update_global_settings", s.handleUpdateGlobalSettings)
	r.Post("/add_sheet_config", s.handleAddSheetConfig)
	r.Put("/update_sheet_config/{sheetID}", s.handleUpdateSheetConfig)
	r.Delete("/delete_sheet_config/{sheetID}", s.handleDeleteSheetConfig)
	r.Post("/on_change", s.handleOnChange)
	r.Get("/sse", s.handleSSE)

	return r
}

func (s *Server) snapshot() model.ConfigSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ConfigSnapshot{
		GlobalSettings: s.settings,
		SheetConfigs:   append([]model.SheetConfig(nil), s.sheets...),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail mirrors the FastAPI error shape the client expects.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap.SheetConfigs == nil {
		snap.SheetConfigs = []model.SheetConfig{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"global_settings": snap.GlobalSettings,
		"sheet_configs":   snap.SheetConfigs,
	})
}

func (s *Server) handleUpdateGlobalSettings(w http.ResponseWriter, r *http.Request) {
	var gs model.GlobalSettings
	if err := json.NewDecoder(r.Body).Decode(&gs); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(gs.TransferDestination) == "" {
		writeDetail(w, http.StatusBadRequest, "transfer_destination is required")
		return
	}

	s.mu.Lock()
	previous := s.settings
	s.settings = gs
	current := s.settings
	s.mu.Unlock()

	s.log.Debug("updated global settings", "transfer_destination", gs.TransferDestination)
	s.hub.notify("config_updated", nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Global settings updated successfully.",
		"previous_settings": previous,
		"current_settings":  current,
	})
}

func (s *Server) handleAddSheetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.SheetConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if s.findByNameLocked(cfg.SheetName, "") != nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Configuration for sheet '%s' already exists", cfg.SheetName))
		return
	}
	cfg.SheetID = uuid.NewString()
	s.sheets = append(s.sheets, cfg)
	s.mu.Unlock()

	s.log.Debug("added sheet config", "sheet_id", cfg.SheetID, "sheet_name", cfg.SheetName)
	s.hub.notify("config_updated", nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Sheet configuration added successfully.",
		"sheet_id": cfg.SheetID,
		"config":   cfg,
	})
}

func (s *Server) handleUpdateSheetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sheetID")
	var cfg model.SheetConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	idx := s.indexByIDLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound,
			fmt.Sprintf("Sheet configuration with ID '%s' not found", id))
		return
	}
	if s.findByNameLocked(cfg.SheetName, id) != nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Configuration for sheet '%s' already exists", cfg.SheetName))
		return
	}
	previous := s.sheets[idx]
	cfg.SheetID = id
	s.sheets[idx] = cfg
	s.mu.Unlock()

	s.log.Debug("updated sheet config", "sheet_id", id)
	s.hub.notify("config_updated", nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Sheet configuration updated successfully.",
		"previous_config": previous,
		"current_config":  cfg,
	})
}

func (s *Server) handleDeleteSheetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sheetID")

	s.mu.Lock()
	idx := s.indexByIDLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound,
			fmt.Sprintf("Sheet configuration with ID '%s' not found", id))
		return
	}
	deleted := s.sheets[idx]
	s.sheets = append(s.sheets[:idx], s.sheets[idx+1:]...)
	s.mu.Unlock()

	s.log.Debug("deleted sheet config", "sheet_id", id)
	s.hub.notify("config_updated", nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Sheet configuration deleted successfully.",
		"deleted_config": deleted,
	})
}

// handleOnChange accepts the spreadsheet webhook and announces a completed
// processing run for the named sheet. The actual row processing is the
// production backend's job; the demo server only exercises the push side.
func (s *Server) handleOnChange(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SheetName string `json:"sheet_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	known := s.findByNameLocked(payload.SheetName, "") != nil
	s.mu.Unlock()

	if !known {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "No configuration found for this sheet.",
			"result":  "Skipped due to missing configuration",
		})
		return
	}

	s.hub.notify("data_processed", map[string]any{"sheet_name": payload.SheetName})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Data sent successfully.",
		"result":  fmt.Sprintf("Processed change for sheet '%s'", payload.SheetName),
	})
}

// handleSSE is the push channel: bare `data: <JSON>` frames, one per
// notice, with an initial connected greeting.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "data: {\"type\": \"connected\"}\n\n")
	flusher.Flush()

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)
	s.log.Debug("sse client connected")

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("sse client disconnected")
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// indexByIDLocked requires s.mu held.
func (s *Server) indexByIDLocked(id string) int {
	for i, c := range s.sheets {
		if c.SheetID == id {
			return i
		}
	}
	return -1
}

// findByNameLocked requires s.mu held. excludeID skips the record being
// updated when checking for name conflicts.
func (s *Server) findByNameLocked(name, excludeID string) *model.SheetConfig {
	for i, c := range s.sheets {
		if c.SheetName == name && c.SheetID != excludeID {
			return &s.sheets[i]
		}
	}
	return nil
}
