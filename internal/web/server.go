// Package web is the thin transport adapter: a JSON API a messenger
// bot (or any other front end) drives the core through.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/importer"
	"github.com/analiz-sintez/begriff/internal/service"
	"github.com/analiz-sintez/begriff/internal/srs"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	svc    *service.Service
	imp    *importer.Importer
	router *http.ServeMux
}

// NewServer creates and configures the API server.
func NewServer(svc *service.Service, imp *importer.Importer) *Server {
	s := &Server{
		svc:    svc,
		imp:    imp,
		router: http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth())
	s.router.HandleFunc("POST /notes", s.handleCreateNote())
	s.router.HandleFunc("GET /notes", s.handleGetNotes())
	s.router.HandleFunc("DELETE /notes/{id}", s.handleDeleteNote())
	s.router.HandleFunc("GET /session", s.handleSession())
	s.router.HandleFunc("POST /views", s.handleStartView())
	s.router.HandleFunc("POST /views/{id}/answer", s.handleRecordAnswer())
	s.router.HandleFunc("POST /import", s.handleImport())
	s.router.HandleFunc("POST /translate", s.handleTranslate())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type notePayload struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
	LanguageID  int64  `json:"language_id"`
}

func notePayloadFrom(n *domain.Note) notePayload {
	return notePayload{ID: n.ID, Text: n.Field1, Explanation: n.Field2, LanguageID: n.LanguageID}
}

func (s *Server) handleCreateNote() http.HandlerFunc {
	type request struct {
		Login       string `json:"login"`
		Language    string `json:"language"`
		Text        string `json:"text"`
		Explanation string `json:"explanation"`
		// Normalize asks for the word's dictionary form before filing.
		Normalize bool `json:"normalize"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, language, err := s.resolveOwner(req.Login, req.Language)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if language == nil {
			writeError(w, http.StatusBadRequest, "language is required")
			return
		}
		text := req.Text
		if req.Normalize {
			text, err = s.svc.BaseForm(r.Context(), language.ID, text)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
		}
		note, err := s.svc.CreateNote(r.Context(), user.ID, language.ID, text, req.Explanation)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, notePayloadFrom(note))
	}
}

func (s *Server) handleGetNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		user, language, err := s.resolveOwner(query.Get("login"), query.Get("language"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		q := service.NotesQuery{
			TextFilter:        query.Get("text"),
			ExplanationFilter: query.Get("explanation"),
			OrderBy:           query.Get("order_by"),
		}
		if language != nil {
			q.LanguageID = &language.ID
		}
		if m := query.Get("maturity"); m != "" {
			maturity, err := domain.ParseMaturity(m)
			if err != nil {
				writeError(w, http.StatusBadRequest, "unknown maturity class")
				return
			}
			q.MaturityFilter = service.MaturitySet{maturity: true}
		}
		notes, err := s.svc.GetNotes(user.ID, q)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		payload := make([]notePayload, 0, len(notes))
		for i := range notes {
			payload = append(payload, notePayloadFrom(&notes[i]))
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleDeleteNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}
		if err := s.svc.DeleteNote(id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type cardPayload struct {
	ID        int64     `json:"id"`
	NoteID    int64     `json:"note_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Scheduled time.Time `json:"scheduled"`
	Leech     bool      `json:"leech"`
}

func (s *Server) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		user, language, err := s.resolveOwner(query.Get("login"), query.Get("language"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		var languageID *int64
		if language != nil {
			languageID = &language.ID
		}

		endTS := time.Now().UTC()
		if raw := query.Get("end"); raw != "" {
			endTS, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid end timestamp")
				return
			}
		}
		randomize := query.Get("randomize") == "true"

		cards, err := s.svc.SessionCards(user.ID, languageID, &endTS, randomize)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		payload := make([]cardPayload, 0, len(cards))
		for i := range cards {
			card := &cards[i]
			note, err := s.svc.DB().FindNoteByID(card.NoteID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			if note == nil {
				continue // note deleted mid-request, skip its card
			}
			leech, err := s.svc.IsLeech(card)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			payload = append(payload, cardPayload{
				ID:        card.ID,
				NoteID:    card.NoteID,
				Front:     card.Type.Front(note),
				Back:      card.Type.Back(note),
				Scheduled: card.Scheduled,
				Leech:     leech,
			})
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleStartView() http.HandlerFunc {
	type request struct {
		CardID int64 `json:"card_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		viewID, err := s.svc.StartView(req.CardID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"view_id": viewID})
	}
}

func (s *Server) handleRecordAnswer() http.HandlerFunc {
	type request struct {
		Grade string `json:"grade"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		viewID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid view id")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		grade, err := srs.ParseRating(req.Grade)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown grade")
			return
		}
		if err := s.svc.RecordAnswer(viewID, grade); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleImport() http.HandlerFunc {
	type request struct {
		Login    string `json:"login"`
		Source   string `json:"source"`
		Language string `json:"language"`
	}
	type response struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
		Skipped int `json:"skipped"`
		Errors  int `json:"errors"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Source == "" {
			writeError(w, http.StatusBadRequest, "source is required")
			return
		}
		user, err := s.svc.DB().GetOrCreateUser(req.Login)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		// Imports run in the foreground; large git sources make the
		// caller wait.
		result, err := s.imp.ImportSource(r.Context(), user.ID, req.Source, req.Language)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		for _, importErr := range result.Errors {
			slog.Warn("import entry failed", "source", req.Source, "error", importErr)
		}
		writeJSON(w, http.StatusOK, response{
			Created: result.Created,
			Updated: result.Updated,
			Skipped: result.Skipped,
			Errors:  len(result.Errors),
		})
	}
}

func (s *Server) handleTranslate() http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
		From string `json:"from"`
		To   string `json:"to"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" || req.From == "" || req.To == "" {
			writeError(w, http.StatusBadRequest, "text, from and to are required")
			return
		}
		translated, err := s.svc.Translate(r.Context(), req.Text, req.From, req.To)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": translated})
	}
}

// resolveOwner get-or-creates the user by login and, when a language
// name is given, the language too.
func (s *Server) resolveOwner(login, languageName string) (*domain.User, *domain.Language, error) {
	if login == "" {
		return nil, nil, apperr.ErrValidation
	}
	user, err := s.svc.DB().GetOrCreateUser(login)
	if err != nil {
		return nil, nil, err
	}
	var language *domain.Language
	if languageName != "" {
		language, err = s.svc.DB().GetOrCreateLanguage(languageName)
		if err != nil {
			return nil, nil, err
		}
	}
	return user, language, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
