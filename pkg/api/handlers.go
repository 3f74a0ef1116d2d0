package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/matzehuels/flowscope/pkg/buildinfo"
	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/decl"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
	Session   string `json:"session,omitempty"`
}

// CheckResponse is the body of a successful POST /api/v1/check.
type CheckResponse struct {
	Session *session.Session `json:"session"`
	Stats   compiler.Stats   `json:"stats"`
	Graph   graph.Graph      `json:"graph"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "flowscope",
		Version:   buildinfo.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}
	if sess, err := s.sessions.Current(); err == nil {
		resp.Session = sess.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCheck compiles the request body. On success the program replaces
// the live session; on failure the live session is kept.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	defer r.Body.Close()

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	format := r.URL.Query().Get("format")
	if format == "" && r.Header.Get("Content-Type") == "application/json" {
		format = decl.FormatJSON
	}

	res, err := s.runner.Check(r.Context(), pipeline.CheckOptions{Source: source, Data: body, Format: format})
	if err != nil {
		s.logger.Warn("check failed", "source", source, "err", err)
		writeError(w, err)
		return
	}

	sess := s.sessions.Start(source, "", res.Program)
	s.logger.Info("session started", "id", sess.ID, "source", source, "nodes", res.Stats.Nodes())
	writeJSON(w, http.StatusOK, CheckResponse{
		Session: sess,
		Stats:   res.Stats.Stats,
		Graph:   sess.Graph(),
	})
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	var batch telemetry.Batch
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&batch); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode sample batch"))
		return
	}
	defer r.Body.Close()

	frame, err := s.sessions.Apply(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.publisher.Publish(r.Context(), frame); err != nil {
		s.logger.Warn("publish failed", "err", err)
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, sess.Graph())
		return
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "graph format"))
		return
	}

	artifacts, err := s.runner.Render(r.Context(), sess.Program.Graph, pipeline.RenderOptions{
		Formats:  []string{format},
		Layout:   r.URL.Query().Get("layout"),
		Detailed: r.URL.Query().Get("detailed") == "true",
		Blocked:  sess.Blocked(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if s.subscriber == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "frame streaming needs a redis channel"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeInternal, "response does not support streaming"))
		return
	}
	frames, err := s.subscriber.Subscribe(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			s.logger.Warn("dropping frame", "graph", f.Graph, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	}
	if resp.Code == "" {
		resp.Code = string(errors.ErrCodeInternal)
	}
	var serr *decl.SyntaxError
	if stderrors.As(err, &serr) {
		resp.Line, resp.Column = serr.Line, serr.Column
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.IsCompileError(err):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, session.ErrNoProgram):
		return http.StatusConflict
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDocument, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
