package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cognicore/termex/pkg/termex"
	"github.com/cognicore/termex/pkg/termex/export"
	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/rank"
	"github.com/cognicore/termex/pkg/termex/reader"
	"github.com/cognicore/termex/pkg/termex/review"
	"github.com/cognicore/termex/pkg/termex/store"
	"github.com/cognicore/termex/pkg/termex/term"
)

// createRunRequest is the body of POST /runs. Omitted limits take the
// extractor defaults.
type createRunRequest struct {
	Source       string `json:"source" validate:"max=1024"`
	Text         string `json:"text"`
	MaxChunkSize *int   `json:"max_chunk_size"`
	MinFrequency *int   `json:"min_frequency"`
}

type selectRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// termItem is one row of a ranked run listing.
type termItem struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
	Selected  bool   `json:"selected"`
	Contexts  int    `json:"contexts"`
	Preview   string `json:"preview"`
}

type runResponse struct {
	Run   store.Summary `json:"run"`
	Sort  string        `json:"sort"`
	Min   int           `json:"min"`
	Terms []termItem    `json:"terms"`
}

type termResponse struct {
	Term      string           `json:"term"`
	Frequency int              `json:"frequency"`
	Selected  bool             `json:"selected"`
	Omitted   int              `json:"omitted,omitempty"`
	Contexts  []string         `json:"contexts"`
	Highlight []review.Segment `json:"highlight,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: decode body: %v", internalerr.ErrInvalidInput, err)
	}
	return s.validate.Struct(v)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var body createRunRequest
	if err := s.decode(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	req := termex.NewRequest(body.Text)
	if body.MaxChunkSize != nil {
		req.MaxChunkSize = *body.MaxChunkSize
	}
	if body.MinFrequency != nil {
		req.MinFrequency = *body.MinFrequency
	}
	s.extract(w, r, body.Source, req)
}

// uploadRun extracts from a document sent as the "file" multipart field.
// The query parameters max_chunk_size and min_frequency override defaults.
func (s *Server) uploadRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: file field: %v", internalerr.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	text, err := reader.Parse(filepath.Ext(header.Filename), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	req := termex.NewRequest(text)
	q := r.URL.Query()
	if v := q.Get("max_chunk_size"); v != "" {
		if req.MaxChunkSize, err = strconv.Atoi(v); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: max_chunk_size %q", internalerr.ErrInvalidConfig, v))
			return
		}
	}
	if v := q.Get("min_frequency"); v != "" {
		if req.MinFrequency, err = strconv.Atoi(v); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: min_frequency %q", internalerr.ErrInvalidConfig, v))
			return
		}
	}
	s.extract(w, r, header.Filename, req)
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request, source string, req termex.Request) {
	res, err := s.extractor.Run(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	run := store.Run{
		ID:           res.RunID,
		Source:       source,
		CreatedAt:    s.now().UTC(),
		MaxChunkSize: req.MaxChunkSize,
		MinFrequency: res.MinFrequency,
		Chunks:       res.Chunks,
		Terms:        res.Terms,
	}
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.log.Info().
		Str("run_id", run.ID).
		Str("source", source).
		Int("terms", len(run.Terms)).
		Dur("elapsed", res.Elapsed).
		Msg("run saved")

	w.Header().Set("Location", "/runs/"+run.ID)
	writeJSON(w, http.StatusCreated, run.Summarize())
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dir := s.sort
	if v := q.Get("sort"); v != "" {
		d, ok := rank.ParseDirection(v)
		if !ok {
			s.respondError(w, r, fmt.Errorf("%w: sort must be asc or desc, got %q", internalerr.ErrInvalidInput, v))
			return
		}
		dir = d
	}
	minFreq := 1
	if v := q.Get("min"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			s.respondError(w, r, fmt.Errorf("%w: min must be a positive integer, got %q", internalerr.ErrInvalidConfig, v))
			return
		}
		minFreq = n
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sorted := rank.NewView(run.Terms, dir).AtLeast(minFreq)
	items := make([]termItem, 0, len(sorted))
	for _, rec := range sorted {
		items = append(items, termItem{
			Term:      rec.Term,
			Frequency: rec.Frequency,
			Selected:  rec.Selected,
			Contexts:  len(rec.Contexts),
			Preview:   review.Preview(rec.FirstContext(), review.DefaultPreview),
		})
	}
	writeJSON(w, http.StatusOK, runResponse{
		Run:   run.Summarize(),
		Sort:  dir.String(),
		Min:   minFreq,
		Terms: items,
	})
}

// termParam returns the normalized {term} path parameter. chi routes on the
// raw path when the request has one, leaving the parameter escaped.
func termParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "term")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			return "", fmt.Errorf("%w: term %q", internalerr.ErrInvalidInput, raw)
		}
		raw = unescaped
	}
	return term.Normalize(raw), nil
}

func (s *Server) getTerm(w http.ResponseWriter, r *http.Request) {
	name, err := termParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, ok := run.Lookup(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("term %q: %w", name, internalerr.ErrNotFound))
		return
	}

	contexts := rec.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	writeJSON(w, http.StatusOK, termResponse{
		Term:      rec.Term,
		Frequency: rec.Frequency,
		Selected:  rec.Selected,
		Omitted:   rec.Omitted,
		Contexts:  contexts,
		Highlight: review.Highlight(rec.Term, rec.FirstContext()),
	})
}

func (s *Server) setSelected(w http.ResponseWriter, r *http.Request) {
	name, err := termParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body selectRequest
	if err := s.decode(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.SetSelected(r.Context(), chi.URLParam(r, "id"), name, *body.Selected); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"term": name, "selected": *body.Selected})
}

func (s *Server) exportRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Buffer so an empty selection can still be reported as an error.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, run.Terms); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
