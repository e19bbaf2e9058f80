package api

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// handleHealth responds with 200 OK and the state of every dependency
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"token_list": "unknown",
	}
	status := "ok"

	if s.tokenList != nil && s.tokenList.Healthy() {
		services["token_list"] = "up"
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	for name, check := range s.healthChecks {
		if err := check(ctx); err != nil {
			services[name] = "down"
			status = "degraded"
			continue
		}
		services[name] = "up"
	}

	s.sendJSONResponse(w, r, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}
