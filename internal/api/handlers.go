package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/socialchef/lru/internal/config"
	apperrors "github.com/socialchef/lru/internal/errors"
	"github.com/socialchef/lru/internal/metrics"
	"github.com/socialchef/lru/internal/validation"
)

// Cache is the part of the cache engine the handlers use.
type Cache interface {
	Set(key, value string, ttlSeconds int64)
	Get(key string) (string, bool)
	Delete(key string)
	Len() int
	Capacity() int
}

type Server struct {
	cfg     *config.Config
	cache   Cache
	metrics *metrics.CacheMetrics
}

func NewServer(cfg *config.Config, cache Cache, m *metrics.CacheMetrics) *Server {
	return &Server{
		cfg:     cfg,
		cache:   cache,
		metrics: m,
	}
}

type SetRequest struct {
	Key        string          `json:"key"`
	Value      string          `json:"value"`
	Expiration json.RawMessage `json:"expiration"`
}

type SetResponse struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Expiration int64  `json:"expiration"`
}

type GetResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type StatsResponse struct {
	Len      int `json:"len"`
	Capacity int `json:"capacity"`
}

// HandleSet stores key/value for the requested number of seconds. Empty keys and
// non-positive or unparseable expirations are accepted; the latter store an entry
// that is already expired.
func (s *Server) HandleSet(w http.ResponseWriter, r *http.Request) {
	if s.cfg != nil && s.cfg.Server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	}

	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &apperrors.AppError{
				Type:          apperrors.ErrorTypeValidation,
				Message:       "Request body too large",
				StatusCode:    http.StatusRequestEntityTooLarge,
				ErrorCode:     "BODY_TOO_LARGE",
				IsOperational: true,
				Err:           err,
			})
			return
		}
		writeError(w, r, apperrors.NewValidationError(
			"Invalid request body",
			"INVALID_BODY",
			`Send {"key": string, "value": string, "expiration": seconds}.`,
		))
		return
	}

	ttl := validation.ParseExpiration(req.Expiration)
	s.cache.Set(req.Key, req.Value, ttl)
	s.metrics.RecordSet(r.Context())

	writeJSON(w, r, http.StatusOK, SetResponse{
		Key:        req.Key,
		Value:      req.Value,
		Expiration: ttl,
	})
}

// HandleGet answers 404 for keys that were never set and for expired keys alike.
func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(r)
	if !ok {
		writeError(w, r, apperrors.NewValidationError("Malformed key", "INVALID_KEY", "URL-escape the key."))
		return
	}

	value, found := s.cache.Get(key)
	s.metrics.RecordLookup(r.Context(), found)
	if !found {
		writeError(w, r, apperrors.NewNotFoundError("Key not found or expired", "KEY_NOT_FOUND", ""))
		return
	}

	writeJSON(w, r, http.StatusOK, GetResponse{Key: key, Value: value})
}

func (s *Server) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(r)
	if !ok {
		writeError(w, r, apperrors.NewValidationError("Malformed key", "INVALID_KEY", "URL-escape the key."))
		return
	}

	s.cache.Delete(key)
	s.metrics.RecordDelete(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatsResponse{
		Len:      s.cache.Len(),
		Capacity: s.cache.Capacity(),
	})
}

// keyParam returns the unescaped {key} URL parameter. chi routes on RawPath when
// the request has one, and only then is the parameter still escaped.
func keyParam(r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, true
	}
	key, err := url.PathUnescape(key)
	if err != nil {
		return "", false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), appErr.Message, "error", appErr, "code", appErr.ErrorCode)
	}
	writeJSON(w, r, appErr.StatusCode, appErr)
}
