// Package server exposes the operator surface: a REST API for session
// control and publishing, plus a WebSocket stream of feed updates.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/command"
	"github.com/JonasKimmer/liveticker-eintracht/internal/config"
	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
	"github.com/JonasKimmer/liveticker-eintracht/internal/polling"
	"github.com/JonasKimmer/liveticker-eintracht/internal/ticker"
)

// MatchdaySource fetches the matchday rounds for a team in a
// competition.
type MatchdaySource interface {
	FetchMatchdays(ctx context.Context, teamID, competitionID int) ([]string, error)
}

// SnapshotSource reads persisted feed snapshots, letting restarted
// operators and sibling tools see the last published state without an
// active session.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context, matchID int) (map[string]string, error)
}

// Server is the operator-facing HTTP and WebSocket server.
type Server struct {
	cfg       *config.Config
	manager   *ticker.Manager
	matchdays MatchdaySource
	snapshots SnapshotSource
	hub       *Hub
	upgrader  websocket.Upgrader
	httpSrv   *http.Server

	// One matchday poller at a time, keyed by team and competition.
	mdMu     sync.Mutex
	mdKey    string
	mdPoller *polling.MatchdayPoller
}

// New creates the server. Run the hub separately before calling Start.
// snapshots may be nil when the feed store is disabled.
func New(cfg *config.Config, manager *ticker.Manager, matchdays MatchdaySource, snapshots SnapshotSource, hub *Hub) *Server {
	s := &Server{
		cfg:       cfg,
		manager:   manager,
		matchdays: matchdays,
		snapshots: snapshots,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	router.HandleFunc("/api/session", s.handleCreateSession).Methods("POST")
	router.HandleFunc("/api/session", s.handleDeleteSession).Methods("DELETE")
	router.HandleFunc("/api/session", s.handleGetSession).Methods("GET")

	router.HandleFunc("/api/feed", s.handleGetFeed).Methods("GET")
	router.HandleFunc("/api/stats", s.handleGetStats).Methods("GET")
	router.HandleFunc("/api/pending", s.handleGetPending).Methods("GET")
	router.HandleFunc("/api/snapshot/{match_id}", s.handleGetSnapshot).Methods("GET")
	router.HandleFunc("/api/mode", s.handleSetMode).Methods("PUT")

	router.HandleFunc("/api/pending/{event_id}/select", s.handleSelect).Methods("POST")
	router.HandleFunc("/api/drafts/accept", s.handleAccept).Methods("POST")
	router.HandleFunc("/api/drafts/reject", s.handleReject).Methods("POST")
	router.HandleFunc("/api/drafts/{entry_id}/publish", s.handlePublishEdited).Methods("POST")
	router.HandleFunc("/api/generate/{event_id}", s.handleGenerate).Methods("POST")
	router.HandleFunc("/api/manual", s.handleManual).Methods("POST")
	router.HandleFunc("/api/command/preview", s.handleCommandPreview).Methods("POST")

	router.HandleFunc("/api/teams/{team_id}/competitions/{competition_id}/matchdays", s.handleMatchdays).Methods("GET")

	router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info("HTTP server starting", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mdMu.Lock()
	if s.mdPoller != nil {
		s.mdPoller.Deactivate()
	}
	s.mdMu.Unlock()
	return s.httpSrv.Shutdown(ctx)
}

// ── handlers ────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MatchID int `json:"match_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchID <= 0 {
		writeError(w, http.StatusBadRequest, "match_id is required")
		return
	}
	session := s.manager.Activate(req.MatchID)
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.manager.Deactivate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": session.MatchID(),
		"feed":     session.Feed(),
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": session.MatchID(),
		"stats":    session.Stats(),
	})
}

// handleGetSnapshot serves the last persisted feed state of a match
// from the snapshot store, independent of any live session.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store disabled")
		return
	}
	matchID, err := pathInt(r, "match_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.snapshots.LoadSnapshot(r.Context(), matchID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if len(snapshot) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no snapshot for match %d", matchID))
		return
	}

	// The feed field is stored as JSON; pass it through unquoted.
	resp := make(map[string]interface{}, len(snapshot))
	for key, value := range snapshot {
		if key == "feed" {
			resp[key] = json.RawMessage(value)
		} else {
			resp[key] = value
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": session.MatchID(),
		"pending":  session.Pending(),
	})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.SetMode(models.Mode(req.Mode)); err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	eventID, err := pathInt(r, "event_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := session.Select(eventID); err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selected": eventID,
		"draft":    session.ActiveDraft(),
	})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	if err := session.AcceptActive(r.Context()); err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	if err := session.RejectActive(r.Context()); err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handlePublishEdited(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	entryID, err := pathInt(r, "entry_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.PublishEdited(r.Context(), entryID, req.Text); err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	eventID, err := pathInt(r, "event_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	style := r.URL.Query().Get("style")
	if style == "" {
		style = s.cfg.DefaultStyle
	}
	entry, err := session.Generate(r.Context(), eventID, style)
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Current()
	if err != nil {
		writeTickerError(w, err)
		return
	}
	var req struct {
		Text   string `json:"text"`
		Icon   string `json:"icon"`
		Minute int    `json:"minute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Slash commands in the editor publish their formatted form.
	text := req.Text
	if command.IsCommand(text) {
		result := command.Parse(text, req.Minute)
		if !result.IsValid {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    "invalid command",
				"warnings": result.Warnings,
			})
			return
		}
		text = result.Formatted
	}

	entry, err := session.PublishManual(r.Context(), text, req.Icon, req.Minute)
	if err != nil {
		writeTickerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleCommandPreview formats a slash command without publishing it.
// The minute defaults to the running match clock when a session is
// active.
func (s *Server) handleCommandPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Minute *int   `json:"minute,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	minute := 0
	if req.Minute != nil {
		minute = *req.Minute
	} else if session, err := s.manager.Current(); err == nil {
		minute = session.CurrentMinute()
	}

	writeJSON(w, http.StatusOK, command.Parse(req.Text, minute))
}

func (s *Server) handleMatchdays(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt(r, "team_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	competitionID, err := pathInt(r, "competition_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%d:%d", teamID, competitionID)
	s.mdMu.Lock()
	if s.mdPoller == nil || s.mdKey != key {
		if s.mdPoller != nil {
			s.mdPoller.Deactivate()
		}
		s.mdKey = key
		s.mdPoller = polling.NewMatchdayPoller(func(ctx context.Context) ([]string, error) {
			return s.matchdays.FetchMatchdays(ctx, teamID, competitionID)
		}, s.cfg.MatchdayRefresh)
		s.mdPoller.Activate(context.Background())
	}
	poller := s.mdPoller
	s.mdMu.Unlock()

	rounds, fetchErr := poller.Rounds()
	resp := map[string]interface{}{"rounds": rounds}
	if fetchErr != nil {
		resp["error"] = fetchErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{hub: s.hub, conn: conn, send: make(chan []byte, 64)}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// ── responses ───────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeTickerError maps session errors onto HTTP statuses: validation
// failures are 400, state conflicts 409, a missing session 404 and
// everything else a gateway failure against the backend.
func writeTickerError(w http.ResponseWriter, err error) {
	switch {
	case ticker.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ticker.ErrNotCoop),
		errors.Is(err, ticker.ErrNoActiveDraft),
		errors.Is(err, ticker.ErrNotPending),
		errors.Is(err, ticker.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ticker.ErrNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}
