package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diplomat-labs/diplomat/internal/constitution"
	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
	"github.com/diplomat-labs/diplomat/internal/session"
)

type Server struct {
	sessions      *session.Service
	constitutions *constitution.Service
	engine        *mediator.Engine
}

// NewServer wires the REST API plus the websocket endpoint.
func NewServer(sessions *session.Service, constitutions *constitution.Service, engine *mediator.Engine, wsHandler http.Handler) http.Handler {
	s := &Server{sessions: sessions, constitutions: constitutions, engine: engine}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// /api/conversations/create, /api/conversations/join
	// /api/conversations/{code}[/messages|/mode|/interaction-level|/debrief|/end]
	mux.HandleFunc("/api/conversations/", s.handleConversations)

	// /api/constitution[/template|/from-template|/{id}[/finalize|/suggest]]
	mux.HandleFunc("/api/constitution", s.handleConstitutionRoot)
	mux.HandleFunc("/api/constitution/", s.handleConstitutionWithPath)

	if wsHandler != nil {
		mux.Handle("/ws/", wsHandler)
	}

	return chainMiddlewares(mux, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type joinRequest struct {
	SessionCode     string `json:"session_code,omitempty"`
	ParticipantName string `json:"participant_name"`
}

type conversationResponse struct {
	SessionCode       string `json:"session_code"`
	ParticipantA      string `json:"participant_a"`
	ParticipantB      string `json:"participant_b"`
	Status            string `json:"status"`
	Mode              string `json:"mode"`
	InteractionLevelA int    `json:"interaction_level_a"`
	InteractionLevelB int    `json:"interaction_level_b"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	Fallacy   string    `json:"fallacy,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type diplomatResponse struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	Fallacy   string    `json:"fallacy,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

type setLevelRequest struct {
	Participant string `json:"participant"`
	Level       int    `json:"level"`
}

type constitutionRequest struct {
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by,omitempty"`
}

type constitutionResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type suggestRequest struct {
	Request string `json:"request"`
}

// ─────────────────────────────────────────────
// Conversation routes
// ─────────────────────────────────────────────

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "":
		http.NotFound(w, r)
		return
	case "create":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleCreate(w, r)
		return
	case "join":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleJoin(w, r)
		return
	}

	code := domain.SessionCode(parts[0])

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetConversation(w, r, code)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "messages":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			s.handleGetMessages(w, r, code)
			return
		case "mode":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSetMode(w, r, code)
			return
		case "interaction-level":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSetLevel(w, r, code)
			return
		case "debrief":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleDebrief(w, r, code)
			return
		case "end":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleEnd(w, r, code)
			return
		}
	}

	http.NotFound(w, r)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ParticipantName) == "" {
		badRequest(w, "participant_name is required")
		return
	}

	conv, err := s.sessions.Create(r.Context(), req.ParticipantName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionCode == "" || strings.TrimSpace(req.ParticipantName) == "" {
		badRequest(w, "session_code and participant_name are required")
		return
	}

	conv, err := s.sessions.Join(r.Context(), domain.SessionCode(req.SessionCode), req.ParticipantName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	conv, err := s.sessions.Get(code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	// An optional viewer narrows the timeline to what that participant may
	// see; without one the full history is returned.
	var (
		msgs []*domain.Message
		err  error
	)
	if viewer := r.URL.Query().Get("viewer"); viewer != "" {
		msgs, err = s.sessions.HistoryFor(code, viewer)
	} else {
		msgs, err = s.sessions.History(code)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessagesResponse(msgs))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	mode := parseMode(req.Mode)
	if err := s.sessions.SetMode(r.Context(), code, mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	var req setLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Participant == "" {
		badRequest(w, "participant is required")
		return
	}

	conv, err := s.sessions.SetInteractionLevel(r.Context(), code, req.Participant, req.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleDebrief(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	resp, err := s.engine.Debrief(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.sessions.SaveDiplomat(r.Context(), code, resp.Content, resp.Kind, "", ""); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, diplomatResponse{
		Sender:    resp.Sender,
		Content:   resp.Content,
		Kind:      string(resp.Kind),
		Timestamp: resp.Timestamp,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request, code domain.SessionCode) {
	if err := s.sessions.End(r.Context(), code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusEnded)})
}

// ─────────────────────────────────────────────
// Constitution routes
// ─────────────────────────────────────────────

func (s *Server) handleConstitutionRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		all, err := s.constitutions.List()
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]constitutionResponse, 0, len(all))
		for _, c := range all {
			out = append(out, toConstitutionResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req constitutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		title := req.Title
		if title == "" {
			title = "Our Communication Constitution"
		}
		c, err := s.constitutions.Create(r.Context(), title, req.Content, "CUSTOM")
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toConstitutionResponse(c))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConstitutionWithPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/constitution/")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "":
		http.NotFound(w, r)
		return
	case "template":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"template": s.constitutions.Template()})
		return
	case "from-template":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		createdBy := body["created_by"]
		if createdBy == "" {
			createdBy = "TEMPLATE"
		}
		c, err := s.constitutions.CreateFromTemplate(r.Context(), createdBy)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toConstitutionResponse(c))
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		badRequest(w, "invalid constitution id")
		return
	}
	constID := domain.ConstitutionID(id)

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			c, err := s.constitutions.Get(constID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toConstitutionResponse(c))
		case http.MethodPut:
			var req constitutionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, "invalid JSON body")
				return
			}
			c, err := s.constitutions.Update(r.Context(), constID, req.Content)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toConstitutionResponse(c))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "finalize":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			c, err := s.constitutions.Finalize(r.Context(), constID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toConstitutionResponse(c))
			return
		case "suggest":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			var req suggestRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, "invalid JSON body")
				return
			}
			suggestion, err := s.constitutions.Suggest(r.Context(), constID, req.Request)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
			return
		}
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func toConversationResponse(conv *domain.Conversation) conversationResponse {
	return conversationResponse{
		SessionCode:       string(conv.SessionCode),
		ParticipantA:      conv.ParticipantA,
		ParticipantB:      conv.ParticipantB,
		Status:            string(conv.Status),
		Mode:              string(conv.Mode),
		InteractionLevelA: conv.InteractionLevelA,
		InteractionLevelB: conv.InteractionLevelB,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        string(m.ID),
			Sender:    m.Sender,
			Content:   m.Content,
			Kind:      string(m.Kind),
			Fallacy:   m.Fallacy,
			Recipient: m.Recipient,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

func toConstitutionResponse(c *domain.Constitution) constitutionResponse {
	return constitutionResponse{
		ID:        int64(c.ID),
		Title:     c.Title,
		Content:   c.Content,
		CreatedBy: c.CreatedBy,
		Finalized: c.Finalized,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func parseMode(s string) domain.Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GUIDED":
		return domain.ModeGuided
	case "DEBRIEF":
		return domain.ModeDebrief
	default:
		return domain.ModeFreeTalk
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrConstitutionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrUnknownParticipant):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
