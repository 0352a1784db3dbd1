package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"librarian/internal/domain"
	"librarian/internal/summaries"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RecommendRequest is the body of POST /api/v1/recommendations.
type RecommendRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// SummaryResponse is returned by GET /api/v1/summaries/{title}.
type SummaryResponse struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Found   bool   `json:"found"`
}

// SearchResponse is returned by GET /api/v1/search.
type SearchResponse struct {
	Query      string             `json:"query"`
	Candidates []domain.Candidate `json:"candidates"`
}

const maxSearchK = 20

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: code, Message: message})
}

// handleServiceError maps classified errors to HTTP statuses.
func (s *Server) handleServiceError(w http.ResponseWriter, err error) {
	msg := domain.UserMessage(err)
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		respondError(w, http.StatusBadRequest, "invalid_input", msg)
	case domain.KindEmbedding, domain.KindCompletion:
		s.logger.Warn("upstream service failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "bad_gateway", msg)
	default:
		s.logger.Error("internal server error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "Request body must be a JSON object")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusBadRequest, "invalid_input", "query "+verrs[0].Tag())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	rec, err := s.librarian.Recommend(r.Context(), req.Query)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}
	text, found := s.librarian.Summary(title)
	// An unknown title is an ordinary answer, not an error.
	if !found {
		text = summaries.NotFound
	}
	respondJSON(w, http.StatusOK, SummaryResponse{Title: title, Summary: text, Found: found})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchK {
			respondError(w, http.StatusBadRequest, "invalid_input", "k must be an integer between 1 and 20")
			return
		}
		k = n
	}
	candidates, err := s.librarian.Search(r.Context(), q, k)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	respondJSON(w, http.StatusOK, SearchResponse{Query: q, Candidates: candidates})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "front end unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
