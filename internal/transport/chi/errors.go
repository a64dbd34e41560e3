package chi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	logpkg "github.com/kailas-cloud/poemdex/internal/logger"
	searchuc "github.com/kailas-cloud/poemdex/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeNotFound           = "not_found"
	codeCollectionNotFound = "collection_not_found"
	codeEmbeddingError     = "embedding_provider_error"
	codeSearchFailed       = "search_failed"
	codeTimeout            = "timeout"
	codeInternal           = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	sentinel error
	status   int
	code     string
}

// Order matters: the first match wins, so specific sentinels precede ErrQuery.
var errorMappings = []errorMapping{
	{searchuc.ErrInvalidRequest, http.StatusBadRequest, codeBadRequest},
	{domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound},
	{domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout},
	{domain.ErrEmbedding, http.StatusBadGateway, codeEmbeddingError},
	{domain.ErrQuery, http.StatusServiceUnavailable, codeSearchFailed},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// handleDomainError answers with the sentinel's own message and never leaks wrapped detail.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			log.Warn("Search request failed", zap.String("code", m.code), zap.Error(err))
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
