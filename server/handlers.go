package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/cache"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
	"github.com/DachengChen/chatdb/sqlgate"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	Prompt   string       `json:"prompt"`
	Messages []ai.Message `json:"messages"`
}

type schemaRequest struct {
	DBURL string `json:"DB_URL"`
}

type sqlRequest struct {
	SQL   string `json:"sql"`
	DBURL string `json:"DB_URL"`
}

// APIError is the body of every error response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "prompt is required", r))
		return
	}

	res, err := s.asker.Ask(r.Context(), req.Messages, req.Prompt)
	if err != nil {
		var roleErr *ai.RoleError
		if errors.As(err, &roleErr) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", roleErr.Error(), r))
			return
		}
		s.log.Error("chat failed", zap.Error(err), zap.String("request_id", RequestIDFrom(r.Context())))
		writeJSON(w, http.StatusBadGateway, errorResp("AI_ERROR", "the model request failed", r))
		return
	}
	writeJSON(w, http.StatusOK, res.Outcome)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if !decodeBody(w, r, &req) {
		return
	}

	url, err := s.cfg.Database.ResolveURL(req.DBURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("NO_DATABASE", err.Error(), r))
		return
	}

	schema, cached, err := cache.Fetch(r.Context(), s.schema, url, func(ctx context.Context) (db.Schema, error) {
		d, err := s.dbs.Get(ctx, url)
		if err != nil {
			return nil, err
		}
		return d.FetchSchema(ctx, "public")
	})
	if err != nil {
		s.dbError(w, r, "schema", err)
		return
	}
	s.log.Debug("schema served", zap.Int("tables", len(schema)), zap.Bool("cached", cached))
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	var req sqlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Gate first: a rejected query never opens a connection.
	if v := sqlgate.Admit(req.SQL); !v.Allowed {
		s.log.Info("sql rejected", zap.String("keyword", v.Keyword), zap.String("request_id", RequestIDFrom(r.Context())))
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", v.Reason, r))
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "sql is required", r))
		return
	}

	d, err := s.dbs.Get(r.Context(), req.DBURL)
	if err != nil {
		s.dbError(w, r, "connect", err)
		return
	}
	res, err := d.Query(r.Context(), req.SQL)
	if err != nil {
		s.dbError(w, r, "query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// dbError maps database-side failures onto responses.
func (s *Server) dbError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var rejected *sqlgate.RejectedError
	switch {
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", rejected.Verdict.Reason, r))
	case errors.Is(err, config.ErrNoDatabase):
		writeJSON(w, http.StatusBadRequest, errorResp("NO_DATABASE", err.Error(), r))
	case errors.Is(err, db.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
	default:
		s.log.Error("database "+op+" failed", zap.Error(err), zap.String("request_id", RequestIDFrom(r.Context())))
		writeJSON(w, http.StatusBadGateway, errorResp("DB_ERROR", err.Error(), r))
	}
}

// Shared helpers

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("BAD_REQUEST", "invalid JSON body: "+err.Error(), r))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) errorResponse {
	return errorResponse{
		Error: APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(requestIDHeader),
		},
	}
}
