package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/tokenlist"
)

// tokensResponse is the body of every list endpoint
type tokensResponse struct {
	Timestamp *time.Time        `json:"timestamp"`
	Version   string            `json:"version"`
	Tokens    []tokenlist.Token `json:"tokens"`
}

type tokenResponse struct {
	Token   tokenlist.Token `json:"token"`
	Curated bool            `json:"curated"`
}

type safeNamesResponse struct {
	Timestamp *time.Time        `json:"timestamp"`
	Version   string            `json:"version"`
	SafeNames map[string]string `json:"safe_names"`
}

type safeNameResponse struct {
	Name     string `json:"name"`
	SafeName string `json:"safe_name"`
}

type refreshResponse struct {
	Outcome   tokenlist.Outcome `json:"outcome"`
	Timestamp *time.Time        `json:"timestamp"`
	Version   string            `json:"version"`
}

// snapshot returns the current indices or writes 503 when none is available
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) *tokenlist.Indices {
	idx := s.tokenList.Snapshot()
	if idx == nil {
		s.sendError(w, r, http.StatusServiceUnavailable, "token list not loaded")
		return nil
	}
	return idx
}

// handleTokens returns the full token list.
// Query param: addresses - optional comma-separated filter
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	idx := s.snapshot(w, r)
	if idx == nil {
		return
	}

	if addresses := splitParamLowercase(getParamLowercase(r, "addresses")); len(addresses) > 0 {
		tokens := make([]tokenlist.Token, 0, len(addresses))
		for _, address := range addresses {
			if token, ok := idx.Lookup(address); ok {
				tokens = append(tokens, token)
			}
		}
		s.sendJSONResponse(w, r, tokensResponse{Timestamp: idx.Timestamp(), Version: idx.Version(), Tokens: tokens})
		return
	}

	s.sendCachedJSON(w, r, "tokens:full:"+idx.Version(), func() (interface{}, error) {
		return tokensResponse{Timestamp: idx.Timestamp(), Version: idx.Version(), Tokens: idx.List}, nil
	})
}

// handleCuratedTokens returns curated tokens in list order
func (s *Server) handleCuratedTokens(w http.ResponseWriter, r *http.Request) {
	idx := s.snapshot(w, r)
	if idx == nil {
		return
	}

	s.sendCachedJSON(w, r, "tokens:curated:"+idx.Version(), func() (interface{}, error) {
		return tokensResponse{Timestamp: idx.Timestamp(), Version: idx.Version(), Tokens: curatedList(idx)}, nil
	})
}

func curatedList(idx *tokenlist.Indices) []tokenlist.Token {
	tokens := make([]tokenlist.Token, 0, len(idx.Curated))
	for _, token := range idx.List {
		if curated, ok := idx.Curated[token.Address]; ok {
			tokens = append(tokens, curated)
		}
	}
	return tokens
}

func (s *Server) handleSafeNames(w http.ResponseWriter, r *http.Request) {
	idx := s.snapshot(w, r)
	if idx == nil {
		return
	}

	s.sendCachedJSON(w, r, "tokens:safe_names:"+idx.Version(), func() (interface{}, error) {
		return safeNamesResponse{Timestamp: idx.Timestamp(), Version: idx.Version(), SafeNames: idx.SafeNames}, nil
	})
}

func (s *Server) handleSafeName(w http.ResponseWriter, r *http.Request) {
	idx := s.snapshot(w, r)
	if idx == nil {
		return
	}

	name := mux.Vars(r)["name"]
	original, ok := idx.SafeName(name)
	if !ok {
		s.sendError(w, r, http.StatusNotFound, "unknown name")
		return
	}
	s.sendJSONResponse(w, r, safeNameResponse{Name: name, SafeName: original})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	idx := s.snapshot(w, r)
	if idx == nil {
		return
	}

	address := mux.Vars(r)["address"]
	token, ok := idx.Lookup(address)
	if !ok {
		s.sendError(w, r, http.StatusNotFound, "unknown token")
		return
	}
	s.sendJSONResponse(w, r, tokenResponse{Token: token, Curated: idx.IsCurated(address)})
}

// handleRefresh runs an on-demand update and reports its outcome
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.tokenList.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, tokenlist.ErrThrottled) {
			s.sendError(w, r, http.StatusTooManyRequests, err.Error())
			return
		}
		s.logger.Warn("Token list refresh failed", zap.Error(err))
		s.sendError(w, r, http.StatusBadGateway, err.Error())
		return
	}

	idx := s.tokenList.Snapshot()
	s.sendJSONResponse(w, r, refreshResponse{Outcome: outcome, Timestamp: idx.Timestamp(), Version: idx.Version()})
}
