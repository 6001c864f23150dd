// Package server exposes the enhancement service over HTTP:
// POST /api/v1/enhance with an API key, JSON in, JSON out.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzhttp"

	"github.com/wideunique/promate/internal/config"
	"github.com/wideunique/promate/internal/enhance"
	"github.com/wideunique/promate/internal/enhancer"
)

// runtime is the swappable portion of server state. Config reloads replace
// the whole value atomically; requests read a consistent snapshot.
type runtime struct {
	apiKey        string
	formats       map[string]bool
	maxDraftBytes int
	coordinator   *enhancer.Coordinator
}

// Server handles enhancement requests.
type Server struct {
	state atomic.Pointer[runtime]
}

// New builds a server from cfg.
func New(cfg config.Config) (*Server, error) {
	s := &Server{}
	if err := s.Update(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Update swaps in new configuration. Used on config file reload; in-flight
// requests finish against the snapshot they started with.
func (s *Server) Update(cfg config.Config) error {
	coordinator, err := enhancer.NewCoordinator(enhancer.Settings{
		Mode:          cfg.Server.Mode,
		TemplateName:  cfg.Server.TemplateName,
		TemplateDir:   cfg.Server.TemplateDir,
		ScriptPath:    cfg.Server.ScriptPath,
		KeepTempFiles: cfg.Server.KeepTempFiles,
	})
	if err != nil {
		return fmt.Errorf("configure enhancer: %w", err)
	}

	formats := make(map[string]bool)
	for _, f := range cfg.Enhancer.Formats {
		formats[strings.ToLower(f)] = true
	}

	s.state.Store(&runtime{
		apiKey:        cfg.Server.ResolveAPIKey(),
		formats:       formats,
		maxDraftBytes: cfg.Enhancer.MaxDraftBytes,
		coordinator:   coordinator,
	})
	return nil
}

// Handler returns the routed handler with gzip response compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/enhance", s.handleEnhance)
	return gzhttp.GzipHandler(mux)
}

// enhanceRequest mirrors the client's wire shape, plus the legacy "prompt"
// field and a per-request mode override.
type enhanceRequest struct {
	Prompt           string                    `json:"prompt"`
	Draft            string                    `json:"draft"`
	RequestID        string                    `json:"request_id"`
	Format           string                    `json:"format"`
	Locale           string                    `json:"locale"`
	CursorByteOffset *int                      `json:"cursor_byte_offset"`
	WorkspaceContext *enhance.WorkspaceContext `json:"workspace_context"`
	Mode             string                    `json:"mode"`
}

// promptText returns the effective draft: "draft" wins over "prompt".
func (r enhanceRequest) promptText() string {
	if d := strings.TrimSpace(r.Draft); d != "" {
		return d
	}
	return strings.TrimSpace(r.Prompt)
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	state := s.state.Load()

	if state.apiKey == "" {
		writeError(w, http.StatusInternalServerError, "service_misconfigured", "service misconfigured")
		return
	}
	if token := extractToken(r); token != state.apiKey {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object")
		return
	}

	prompt := req.promptText()
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "prompt must not be empty")
		return
	}

	if req.Format != "" && !state.formats[strings.ToLower(req.Format)] {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_format",
			fmt.Sprintf("format %q is not supported", req.Format))
		return
	}

	if state.maxDraftBytes > 0 && len(prompt) > state.maxDraftBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "draft_too_large",
			fmt.Sprintf("draft exceeds %d bytes", state.maxDraftBytes))
		return
	}

	svc, err := state.coordinator.Service(req.Mode)
	if err != nil {
		if errors.Is(err, enhancer.ErrUnsupportedMode) {
			writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	log.Printf("enhance: request_id=%s prompt_len=%d mode=%q", req.RequestID, len(prompt), req.Mode)

	result, err := svc.Enhance(r.Context(), enhancer.Request{Prompt: prompt, Locale: req.Locale})
	if err != nil {
		log.Printf("warning: enhance failed: %v", err)
		writeError(w, http.StatusInternalServerError, "enhancement_failed", "unable to enhance prompt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"enhanced_prompt": result})
}

// errorBody is the structured error shape clients classify on.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("warning: encode response: %v", err)
	}
}
