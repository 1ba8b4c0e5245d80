package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/validation"
)

// handleCreateUser implements POST /users. The record is written index-last
// the AOF append must succeed before the index is touched, so a
// disk failure never leaves an in-memory state the log can't reproduce.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req validation.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validation.ValidateUserRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := encodeUserValue(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.persist.Append(req.ID, payload); err != nil {
		s.log.Error("append failed", logging.Key(req.ID), logging.Error(err))
		writeError(w, http.StatusServiceUnavailable, "persistence unavailable")
		return
	}

	s.idx.Save(req.ID, payload)
	if s.reg != nil {
		s.reg.SetIndexStats(s.idx.Len(), s.idx.Capacity())
	}

	writeJSON(w, http.StatusOK, userResponse{ID: req.ID, Name: req.Name})
}

// handleGetUser implements GET /users/{id}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	raw, ok := s.idx.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, engine.ErrNotFound.Error())
		return
	}

	v, err := decodeUserValue(raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt in-memory record")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: id, Name: v.Name})
}

// handleListUsers implements GET /users. Index.Iterate visits buckets in
// capacity order, which is arbitrary and not stable across rehashes;
// the response is sorted by id so clients see a deterministic ordering
// regardless of the index's internal layout.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := make([]userResponse, 0, s.idx.Len())
	s.idx.Iterate(func(key int32, value []byte) {
		v, err := decodeUserValue(value)
		if err != nil {
			return
		}
		users = append(users, userResponse{ID: key, Name: v.Name})
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	writeJSON(w, http.StatusOK, users)
}

func parseID(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
