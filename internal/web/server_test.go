package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antdb/antdb/internal/storage"
	"github.com/antdb/antdb/internal/testdb"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine, err := storage.NewStorageEngine(testdb.Open(testdb.SampleDB()))
	require.NoError(t, err)
	return NewServer(0, engine)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAPITables(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var tables TableListResponse
	require.NoError(t, json.Unmarshal(data, &tables))
	// sqlite_* internal tables stay hidden.
	assert.Equal(t, []string{"users", "events"}, tables.Tables)
}

func TestAPIInfo(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var info InfoResponse
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, 4096, info.PageSize)
	assert.Equal(t, 3, info.NumberOfTables)
}

func TestAPIQuery(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/query",
		`{"sql": "SELECT count(*) FROM users"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result QueryResponse
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, [][]string{{"4"}}, result.Rows)
	assert.Equal(t, 1, result.RowCount)
}

func TestAPIQueryBadSQL(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/query", `{"sql": "SELECT name FROM missing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no such table")
}

func TestAPIQueryMissingBody(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
