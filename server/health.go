package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"
)

// handleHealthz is the liveness probe. It only confirms the process
// is serving.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReadyz is the readiness probe. The server is ready when the
// trend data directory exists and is a directory; an empty or even
// unparsable dataset still serves queries, so content is not checked.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	info, err := os.Stat(s.loader.Dir())
	switch {
	case err != nil:
		response["status"] = "unavailable"
		response["error"] = err.Error()
		status = http.StatusServiceUnavailable
	case !info.IsDir():
		response["status"] = "unavailable"
		response["error"] = "trend data path is not a directory"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
