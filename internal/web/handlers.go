package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dexit/ACRUD/internal/logging"
	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/go-chi/chi/v5"
)

type tableSummary struct {
	Name       string   `json:"name"`
	PrimaryKey string   `json:"primary_key,omitempty"`
	Columns    []string `json:"columns"`
}

type validateResponse struct {
	Valid  bool                    `json:"valid"`
	Errors engine.ValidationErrors `json:"errors"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.Catalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tables := make([]tableSummary, 0, len(catalog))
	for _, name := range catalog.TableNames() {
		table := catalog[name]
		summary := tableSummary{Name: name, Columns: table.ColumnNames()}
		if pk := table.PrimaryKey(); pk != nil {
			summary.PrimaryKey = pk.Name
		}
		tables = append(tables, summary)
	}

	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	schema, err := s.service.Schema(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	data, err := s.decodeRecord(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	errs, err := s.service.Validate(r.Context(), table, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !errs.Valid() {
		status = http.StatusUnprocessableEntity
	}
	if errs == nil {
		errs = engine.ValidationErrors{}
	}
	writeJSON(w, status, validateResponse{Valid: errs.Valid(), Errors: errs})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	data, err := s.decodeRecord(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.ValidateAndSave(r.Context(), table, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "table", table).Info("record saved",
		"operation", result.Operation(),
		"id", result.ID.Interface(),
	)

	status := http.StatusOK
	if result.Inserted {
		status = http.StatusCreated
	}
	writeJSON(w, status, result.Map())
}

// decodeRecord reads a JSON object body into a record
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (engine.Record, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}

	return engine.RecordFromMap(raw)
}

// fail maps an engine error to a response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation engine.ValidationErrors
		unknown    *engine.UnknownTableError
		constraint *engine.ConstraintError
	)

	code := engine.ErrorCode(err)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: validation})
	case errors.As(err, &unknown):
		writeCodedError(w, http.StatusNotFound, unknown.Error(), unknown.Code())
	case errors.As(err, &constraint):
		writeCodedError(w, http.StatusConflict, constraint.Error(), constraint.Code())
	case errors.Is(err, engine.ErrNoRowsUpdated):
		writeCodedError(w, http.StatusNotFound, err.Error(), code)
	default:
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeCodedError(w, http.StatusInternalServerError, "internal server error", code)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeCodedError(w, status, msg, "")
}

func writeCodedError(w http.ResponseWriter, status int, msg, code string) {
	body := map[string]string{"error": msg}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}
