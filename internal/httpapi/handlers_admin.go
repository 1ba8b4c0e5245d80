package httpapi

import (
	"net/http"

	"github.com/dd0wney/ramforge/internal/logging"
)

// handleCompact implements POST /admin/compact. It returns 200 immediately
// and runs the RDB dump + AOF rewrite in the background, matching the
// asynchronous-from-the-client contract even though the rewrite itself runs
// to completion without further client-visible progress.
func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.persist.Compact(); err != nil {
			s.log.Error("background compaction failed", logging.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, map[string]any{
		"result": "compaction_started",
		"async":  true,
	})
}

// handleHealth implements GET /health: a minimal, always-healthy liveness
// contract kept for backward compatibility. Richer readiness/liveness
// detail lives at /healthz/{live,ready}, additive to this endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"ok": 1})
}
