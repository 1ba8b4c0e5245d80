package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/ramforge/internal/health"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/persistence"
)

func newTestServer(t *testing.T) (*Server, *persistence.Controller) {
	t.Helper()
	dir := t.TempDir()
	c, err := persistence.Init(persistence.Config{
		RDBPath: filepath.Join(dir, "dump.rdb"),
		AOFPath: filepath.Join(dir, "append.aof"),
	}, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })

	s := New("127.0.0.1:0", c.Index(), c, logging.NewNopLogger(), nil, health.NewHealthChecker())
	return s, c
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetUser(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, "POST", "/users", []byte(`{"id":1,"name":"neo"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var created userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int32(1), created.ID)
	assert.Equal(t, "neo", created.Name)

	rec = doRequest(s, "GET", "/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created, got)
}

func TestGetMissingUserIs404(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, "GET", "/users/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMalformedBodyIs400(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, "POST", "/users", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEmptyNameIs400(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, "POST", "/users", []byte(`{"id":1,"name":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersIsSortedAndEmptyByDefault(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, "GET", "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	doRequest(s, "POST", "/users", []byte(`{"id":2,"name":"trinity"}`))
	doRequest(s, "POST", "/users", []byte(`{"id":1,"name":"neo"}`))

	rec = doRequest(s, "GET", "/users", nil)
	var users []userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, int32(1), users[0].ID)
	assert.Equal(t, int32(2), users[1].ID)
}

func TestCreateUserZeroIDIsLegal(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, "POST", "/users", []byte(`{"id":0,"name":"anon"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, "GET", "/users/0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateUserReturns503WhenAppendFails(t *testing.T) {
	s, c := newTestServer(t)
	require.NoError(t, c.Shutdown()) // closes the AOF fd out from under the server

	rec := doRequest(s, "POST", "/users", []byte(`{"id":1,"name":"neo"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(s, "GET", "/users/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code) // in-memory state was not updated
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":1}`, rec.Body.String())
}

func TestCompactRespondsImmediately(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(s, "POST", "/users", []byte(`{"id":1,"name":"neo"}`))

	rec := doRequest(s, "POST", "/admin/compact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"compaction_started","async":true}`, rec.Body.String())
}
