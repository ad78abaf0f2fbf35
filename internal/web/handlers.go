package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/antdb/antdb/internal/sql/sqlerr"
)

// APIResponse wraps all API responses with success/error info.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TableListResponse contains the list of user table names.
type TableListResponse struct {
	Tables []string `json:"tables"`
}

// InfoResponse mirrors the `.dbinfo` fields.
type InfoResponse struct {
	PageSize       int `json:"database_page_size"`
	NumberOfTables int `json:"number_of_tables"`
}

// QueryRequest is the body for query execution.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// QueryResponse contains query results. Values are rendered the way
// the CLI prints them: NULL, [blob], text, or a decimal integer.
type QueryResponse struct {
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful API response.
func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// writeError writes an error API response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

// statusFor maps the error kinds onto HTTP statuses: SQL errors are the
// caller's fault, everything else is the file's or the server's.
func statusFor(err error) int {
	var sqlErr *sqlerr.Error
	if errors.As(err, &sqlErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleHealth returns a simple health check response.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleInfo returns the header-derived database info.
// GET /api/info
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.storage.Tables()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, InfoResponse{
		PageSize:       s.storage.PageSize(),
		NumberOfTables: len(tables),
	})
}

// handleTables returns the user table names, excluding SQLite's
// internal sqlite_* tables.
// GET /api/tables
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.storage.Tables()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if strings.HasPrefix(t.Name(), "sqlite_") {
			continue
		}
		names = append(names, t.Name())
	}
	writeSuccess(w, TableListResponse{Tables: names})
}

// handleQuery executes one SELECT statement.
// POST /api/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, http.StatusBadRequest, "missing sql")
		return
	}

	s.mu.Lock()
	rows, err := s.executor.Evaluate(req.SQL)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	rendered := make([][]string, 0, len(rows))
	for _, row := range rows {
		values := make([]string, 0, len(row))
		for _, v := range row {
			values = append(values, v.Display())
		}
		rendered = append(rendered, values)
	}
	writeSuccess(w, QueryResponse{Rows: rendered, RowCount: len(rendered)})
}
