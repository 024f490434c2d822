package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/render"
	"github.com/sells-group/rfp-cli/internal/report"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/store"
	"github.com/sells-group/rfp-cli/internal/view"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pageTitle       = "RFP Analysis"
	multipartMemory = 32 << 20
)

var errUnknownSession = eris.New("server: unknown session")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: write json", zap.Error(err))
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, p render.Page) {
	if p.Title == "" {
		p.Title = pageTitle
	}
	var buf bytes.Buffer
	if err := s.tmpl.Render(&buf, name, p); err != nil {
		zap.L().Error("server: render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	s.renderPage(w, status, render.PageError, render.Page{Data: render.ErrorData{Message: msg}})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, render.PageUpload, render.Page{Data: render.UploadData{}})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize+multipartMemory)

	sess, err := s.acceptUpload(r)
	if err != nil {
		zap.L().Info("server: upload rejected", zap.Error(err))
		s.renderPage(w, http.StatusBadRequest, render.PageUpload, render.Page{
			Data: render.UploadData{Error: session.Message(err)},
		})
		return
	}

	if err := s.startJob(sess); err != nil {
		s.renderError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	http.Redirect(w, r, "/analysis/"+sess.ID, http.StatusSeeOther)
}

// acceptUpload takes a PDF from the "file" field, or else text from "text".
func (s *Server) acceptUpload(r *http.Request) (session.Session, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return session.Session{}, &session.Error{Kind: session.KindInput, Msg: "Failed to upload file", Err: err}
	}

	file, hdr, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close() //nolint:errcheck
		data, err := io.ReadAll(file)
		if err != nil {
			return session.Session{}, &session.Error{Kind: session.KindInput, Msg: "Failed to upload file", Err: err}
		}
		return s.orch.UploadBytes(r.Context(), hdr.Filename, data)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return s.orch.UploadText(r.FormValue("text"))
	default:
		return session.Session{}, &session.Error{Kind: session.KindInput, Msg: "Failed to upload file", Err: err}
	}
}

// lookup finds a session among running jobs, then in the store.
func (s *Server) lookup(ctx context.Context, id string) (Job, error) {
	if err := session.ValidateID(id); err != nil {
		return Job{}, err
	}
	if j, ok := s.jobs.Get(id); ok {
		return j, nil
	}
	if s.store == nil {
		return Job{}, errUnknownSession
	}
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return Job{}, errUnknownSession
		}
		return Job{}, err
	}
	return Job{Session: session.Session{ID: a.ID, Source: a.Source}, Status: JobReady, Result: analysisToResult(a), Started: a.CreatedAt}, nil
}

func lookupStatus(err error) int {
	switch {
	case eris.Is(err, errUnknownSession):
		return http.StatusNotFound
	case session.KindOf(err) == session.KindSession:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func lookupMessage(err error) string {
	if eris.Is(err, errUnknownSession) {
		return "No analysis data available"
	}
	return session.Message(err)
}

func (s *Server) filterFrom(r *http.Request) (present.Filter, error) {
	f := s.opts.Filter
	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		t, err := present.ParseThreshold(v)
		if err != nil {
			return f, err
		}
		f.ConfidenceThreshold = t
	}
	if v := q.Get("interpreted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, eris.Wrapf(err, "server: parse interpreted %q", v)
		}
		f.ShowInterpreted = b
	}
	return f, nil
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	job, err := s.lookup(r.Context(), id)
	if err != nil {
		s.renderError(w, lookupStatus(err), lookupMessage(err))
		return
	}

	switch job.Status {
	case JobRunning:
		s.renderPage(w, http.StatusOK, render.PageLoading, render.Page{
			Refresh: LoadingRefreshSecs,
			Data: render.LoadingData{
				SessionID: id,
				Title:     view.LoadingTitle,
				Phrase:    view.PhraseAt(s.now().Sub(job.Started)),
			},
		})
		return
	case JobFailed:
		// A failed job is reported once; nothing on the backend needs release.
		s.jobs.Remove(id)
		s.renderError(w, http.StatusBadGateway, session.Message(job.Err))
		return
	}

	filter, err := s.filterFrom(r)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.jobs.ArmCleanup(id) {
		s.sched.Schedule(id)
	}

	v := view.Build(job.Result.Document, filter, job.Result.Similarity)
	v.SessionID = id
	s.renderPage(w, http.StatusOK, render.PageAnalysis, render.Page{Data: render.NewAnalysisData(v)})
}

// readyResult returns the loaded result for the session in the URL, writing
// an error response when there is none.
func (s *Server) readyResult(w http.ResponseWriter, r *http.Request) (*session.Result, bool) {
	id := chi.URLParam(r, "session")
	job, err := s.lookup(r.Context(), id)
	if err != nil {
		writeJSON(w, lookupStatus(err), map[string]string{"error": lookupMessage(err)})
		return nil, false
	}
	switch job.Status {
	case JobRunning:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": string(JobRunning)})
		return nil, false
	case JobFailed:
		s.jobs.Remove(id)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": session.Message(job.Err),
			"kind":  session.KindOf(job.Err).String(),
		})
		return nil, false
	}
	return job.Result, true
}

func (s *Server) handleAPIAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.readyResult(w, r)
	if !ok {
		return
	}
	filter, err := s.filterFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v := view.Build(res.Document, filter, res.Similarity)
	v.SessionID = res.Session.ID
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.readyResult(w, r)
	if !ok {
		return
	}

	data, err := s.backendReport(r.Context(), res.Document)
	if err != nil {
		zap.L().Warn("server: backend report failed, building locally",
			zap.String("session_id", res.Session.ID),
			zap.Error(err),
		)
		var buf bytes.Buffer
		if err := report.WriteAnalysis(&buf, res.Document, s.now()); err != nil {
			zap.L().Error("server: build report", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to download report"})
			return
		}
		data = buf.Bytes()
	}
	writeAttachment(w, report.AnalysisFile, data)
}

func (s *Server) backendReport(ctx context.Context, doc *model.Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "server: marshal document")
	}
	return s.client.DownloadReport(ctx, raw)
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	res, ok := s.readyResult(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteMatrix(&buf, report.BuildMatrix(res.Document)); err != nil {
		zap.L().Error("server: build matrix", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to download bid matrix"})
		return
	}
	writeAttachment(w, report.MatrixFile(res.Session.ID), buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if err := session.ValidateID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": session.Message(err)})
		return
	}
	s.sched.Cancel(id)
	if err := s.release(r.Context(), id); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": session.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	answer, err := s.orch.Chat(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": session.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func resultToAnalysis(res *session.Result, now time.Time) *model.Analysis {
	return &model.Analysis{
		ID:         res.Session.ID,
		Source:     res.Session.Source,
		Document:   res.Document,
		Similarity: res.Similarity,
		CreatedAt:  now,
	}
}

func analysisToResult(a *model.Analysis) *session.Result {
	return &session.Result{
		Session:    session.Session{ID: a.ID, Source: a.Source},
		Document:   a.Document,
		Similarity: a.Similarity,
	}
}
