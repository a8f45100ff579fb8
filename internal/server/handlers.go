package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/model"
	"github.com/careernest/credsheet/internal/pipeline"
	"github.com/careernest/credsheet/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Response headers carrying generation facts.
const (
	HeaderPageCount    = "X-Credsheet-Pages"
	HeaderIssueCount   = "X-Credsheet-Issues"
	HeaderDigest       = "X-Credsheet-Digest"
	HeaderGenerationID = "X-Credsheet-Generation"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error  string        `json:"error"`
	Issues []model.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleGenerate renders the posted sheet in the format named by the URL.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if !isServedFormat(format) {
		writeError(w, http.StatusNotFound, "unsupported format: "+format)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	org, records, err := pipeline.DecodeSheet(r.Body, pipeline.InputJSON)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The history records "http" as the source of server generated documents.
	job := model.NewJob("http "+middleware.GetReqID(r.Context()), "http", "", format)
	job.Sheet = model.NewCredentialSheet(org, records)

	p := pipeline.NewGenerationPipeline(pipeline.Settings{
		Strict:        s.opts.Strict,
		FillPasswords: s.opts.FillPasswords,
		Generator:     s.opts.Generator,
		Logger:        s.logger,
	})
	if err := p.Execute(r.Context(), job); err != nil {
		if errors.Is(err, model.ErrInvalidRecords) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:  model.ErrInvalidRecords.Error(),
				Issues: job.Issues,
			})
			return
		}
		s.logger.Error("generation failed", "job", job.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate document")
		return
	}

	// History is best effort; the document is already rendered.
	if s.opts.History != nil {
		if err := pipeline.NewRecordHistoryStep(s.opts.History).Do(r.Context(), job); err != nil {
			s.logger.Warn("failed to record generation", "job", job.Name, "error", err)
		}
	}

	h := w.Header()
	h.Set("Content-Type", report.ContentType(format))
	h.Set("Content-Disposition", `attachment; filename="`+s.attachmentName(job.Sheet.OrganizationName, format)+`"`)
	h.Set("Content-Length", strconv.Itoa(len(job.Document)))
	h.Set(HeaderIssueCount, strconv.Itoa(len(job.Issues)))
	h.Set(HeaderDigest, job.Digest)
	if job.PageCount > 0 {
		h.Set(HeaderPageCount, strconv.Itoa(job.PageCount))
	}
	if job.GenerationID != "" {
		h.Set(HeaderGenerationID, job.GenerationID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(job.Document)
}

func isServedFormat(format string) bool {
	switch format {
	case report.FormatPDF, report.FormatMarkdown, "md", report.FormatJSON, report.FormatText, "txt":
		return true
	default:
		return false
	}
}

// attachmentName builds "student-credentials-<org>-<date><ext>".
func (s *Server) attachmentName(org, format string) string {
	return "student-credentials-" + slug(org) + "-" + s.opts.Clock().Format("2006-01-02") + report.FileExtension(format)
}

// slug lowercases s and keeps letters and digits, joining runs of anything
// else with a single dash. Non-ASCII letters are dropped so the filename
// stays a plain quoted-string.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return strings.ToLower(model.DefaultOrganizationName)
	}
	return out
}

// handleListGenerations lists recorded generations, newest first.
// Query parameters: organization, limit.
func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	opts := database.ListOptions{Organization: r.URL.Query().Get("organization")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}

	gens, err := s.opts.History.ListGenerations(r.Context(), opts)
	if err != nil {
		s.logger.Error("failed to list generations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list generations")
		return
	}
	if gens == nil {
		gens = []*database.Generation{}
	}
	writeJSON(w, http.StatusOK, gens)
}

// handleGetGeneration returns one generation by id or unique id prefix.
func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	g, err := s.opts.History.GetGeneration(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, database.ErrGenerationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrAmbiguousID):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("failed to get generation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get generation")
	default:
		writeJSON(w, http.StatusOK, g)
	}
}
