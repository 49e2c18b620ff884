package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	logpkg "github.com/kailas-cloud/bookmarkd/internal/logger"
	healthuc "github.com/kailas-cloud/bookmarkd/internal/usecase/health"
)

// maxBodyBytes bounds request bodies: bookmark content plus JSON overhead.
const maxBodyBytes = 2 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the bookmark HTTP API.
type Server struct {
	bookmarks     BookmarkService
	search        SearchService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(bookmarks BookmarkService, search SearchService, health HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		bookmarks: bookmarks,
		search:    search,
		health:    health,
		logger:    logger,
	}
	// Order matters: the date range sentinel is more specific than invalid request.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidDateRange, http.StatusBadRequest, codeInvalidDateRange),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrBookmarkNotFound, http.StatusNotFound, codeBookmarkNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, codeVectorDimMismatch),
	}
	return s
}

// CreateBookmark handles POST /api/v1/bookmarks.
func (s *Server) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req CreateBookmarkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	b, err := bookmarkFromCreate(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	created, err := s.bookmarks.Create(r.Context(), &b)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/bookmarks/"+strconv.FormatInt(created.ID(), 10))
	writeJSON(w, http.StatusCreated, bookmarkToResponse(&created))
}

// ListBookmarks handles GET /api/v1/bookmarks?skip=&limit=.
func (s *Server) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	list, err := s.bookmarks.List(r.Context(), skip, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]BookmarkResponse, len(list))
	for i := range list {
		items[i] = bookmarkToResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// GetBookmark handles GET /api/v1/bookmarks/{id}.
func (s *Server) GetBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "bookmark id must be an integer")
		return
	}

	b, err := s.bookmarks.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookmarkToResponse(&b))
}

// SearchBookmarks handles POST /api/v1/bookmarks/search.
func (s *Server) SearchBookmarks(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromBody(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToItem(&results[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// clientMessage returns the error text safe to show the client. Validation
// errors carry caller-supplied detail; everything else is reduced to its sentinel.
func clientMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidDateRange) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrBookmarkNotFound,
		domain.ErrStoreUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	msg := clientMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
