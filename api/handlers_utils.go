package api

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
)

const (
	cacheStatusHit  = "HIT"
	cacheStatusMiss = "MISS"
)

// setCacheStatusHeader sets the Cache-Status header based on cache status
func (s *Server) setCacheStatusHeader(w http.ResponseWriter, cacheStatus string) {
	if cacheStatus != "" {
		w.Header().Set("Cache-Status", cacheStatus)
	}
}

// sendJSONResponse marshals data and writes it with Content-Type,
// Content-Length and ETag headers
func (s *Server) sendJSONResponse(w http.ResponseWriter, r *http.Request, data interface{}) {
	responseBytes, err := json.Marshal(data)
	if err != nil {
		s.recordResponse(metrics.StatusError)
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
		return
	}
	s.sendJSONBytes(w, r, responseBytes)
}

// sendCachedJSON serves the body stored under key, rendering it with build on a miss
func (s *Server) sendCachedJSON(w http.ResponseWriter, r *http.Request, key string, build func() (interface{}, error)) {
	if s.responseCache == nil {
		data, err := build()
		if err != nil {
			s.sendError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		s.sendJSONResponse(w, r, data)
		return
	}

	if body, ok := s.responseCache.Get(key); ok {
		s.setCacheStatusHeader(w, cacheStatusHit)
		s.sendJSONBytes(w, r, body)
		return
	}

	body, err := s.responseCache.GetOrLoad(key, func(string) ([]byte, error) {
		data, err := build()
		if err != nil {
			return nil, err
		}
		return json.Marshal(data)
	}, 0)
	if err != nil {
		s.sendError(w, r, http.StatusInternalServerError, "Error encoding response")
		return
	}

	s.setCacheStatusHeader(w, cacheStatusMiss)
	s.sendJSONBytes(w, r, body)
}

// sendJSONBytes writes an encoded body. A matching If-None-Match yields 304.
func (s *Server) sendJSONBytes(w http.ResponseWriter, r *http.Request, body []byte) {
	hash := md5.Sum(body)
	etag := "\"" + hex.EncodeToString(hash[:]) + "\""

	w.Header().Set("ETag", etag)
	if r != nil && etagMatches(r.Header.Get("If-None-Match"), etag) {
		s.recordResponse(metrics.StatusNotModified)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))

	s.recordResponse(metrics.StatusSuccess)
	if _, err := w.Write(body); err != nil {
		logging.OrNop(s.logger).Debug("Error writing response", zap.Error(err))
	}
}

// sendError writes a JSON error body with the given status
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status == http.StatusTooManyRequests {
		s.recordResponse(metrics.StatusRateLimited)
	} else {
		s.recordResponse(metrics.StatusError)
	}

	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) recordResponse(status string) {
	if s.metricsWriter != nil {
		s.metricsWriter.OnRequest(status)
	}
}

// etagMatches implements the If-None-Match comparison, including lists and "*"
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func getParamLowercase(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	value := r.URL.Query().Get(key)
	if value != "" {
		return strings.ToLower(value)
	}
	return ""
}

func splitParamLowercase(param string) []string {
	if param == "" {
		return []string{}
	}

	parts := strings.Split(param, ",")
	result := []string{}
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
