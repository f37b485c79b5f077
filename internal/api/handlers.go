package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/pipeline"
	"github.com/jfahler/loadmasterbot/pkg/report"
)

// analyzeRequest is the JSON body of POST /v1/analyze. Clients may instead
// post the raw HTML document and pass submitter and context as query
// parameters.
type analyzeRequest struct {
	Document    string `json:"document"`
	SubmitterID string `json:"submitter_id,omitempty"`
	ContextID   string `json:"context_id,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`
	Rule        string `json:"rule,omitempty"`
}

// statusClientClosed is logged when the caller disconnects mid-request.
const statusClientClosed = 499

type analyzeResponse struct {
	RequestID string           `json:"request_id"`
	Result    *pipeline.Result `json:"result"`
	Top       report.Listing   `json:"top"`
}

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

type errorResponse struct {
	RequestID string    `json:"request_id"`
	Error     errorBody `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.opts.Analysis
	opts.Document = req.Document
	opts.SubmitterID = req.SubmitterID
	opts.ContextID = req.ContextID
	opts.Refresh = req.Refresh
	if req.Rule != "" {
		opts.Rule = catalog.Rule(req.Rule)
	}
	opts.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))

	result, err := s.runner.Analyze(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		RequestID: RequestIDFrom(r.Context()),
		Result:    result,
		Top:       report.TopBySize(result.Items, s.opts.Top),
	})
}

// decodeAnalyze reads either a JSON request or a raw document body. The body
// is capped slightly above the document limit so JSON framing fits; the
// decoded document is then held to the limit itself.
func (s *Server) decodeAnalyze(r *http.Request) (*analyzeRequest, error) {
	req, err := s.readAnalyze(r)
	if err != nil {
		return nil, err
	}
	if err := errs.ValidateDocument([]byte(req.Document), s.opts.MaxDocumentBytes); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) readAnalyze(r *http.Request) (*analyzeRequest, error) {
	limit := s.opts.MaxDocumentBytes
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+4096+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read request body")
	}
	if int64(len(body)) > limit+4096 {
		return nil, errs.New(errs.ErrCodeInvalidDocument, "mod list too large (max %d bytes)", limit)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req analyzeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode JSON request")
		}
		return &req, nil
	}

	q := r.URL.Query()
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	return &analyzeRequest{
		Document:    string(body),
		SubmitterID: q.Get("submitter"),
		ContextID:   q.Get("context"),
		Refresh:     refresh,
		Rule:        q.Get("rule"),
	}, nil
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	meta, err := s.runner.Inspect(r.Context(), chi.URLParam(r, "id"), refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	h, err := s.runner.LastAnalysis(r.Context(), chi.URLParam(r, "submitter"), chi.URLParam(r, "context"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidDocument, errs.ErrCodeInvalidIdentifier, errs.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeNetwork:
		return http.StatusBadGateway
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if code == "" {
		code = errs.ErrCodeInternal
		msg = "internal error"
	}
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		// Client went away.
		status = statusClientClosed
	}
	if status >= http.StatusInternalServerError || code == errs.ErrCodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestIDFrom(r.Context()))
	}
	writeJSON(w, status, errorResponse{
		RequestID: RequestIDFrom(r.Context()),
		Error:     errorBody{Code: code, Message: msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = report.WriteJSON(w, v)
}
