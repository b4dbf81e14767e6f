package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/sizemap/pkg/cache"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/pipeline"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/render/html"
	"github.com/matzehuels/sizemap/pkg/render/svg"
	"github.com/matzehuels/sizemap/pkg/report"
	"github.com/matzehuels/sizemap/pkg/store"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

type reportResponse struct {
	*store.Report
	Summary *report.Summary `json:"summary,omitempty"`
	Viewer  string          `json:"viewer"`
}

type viewResponse struct {
	Path  string `json:"path"`
	SVG   string `json:"svg"`
	Title string `json:"title"`
}

type tooltipResponse struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]reportResponse, len(reports))
	for i, rep := range reports {
		out[i] = reportResponse{Report: rep, Viewer: viewerURL(rep.ID)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload))
	if err != nil {
		s.writeError(w, r, uploadErr(err))
		return
	}
	rep, err := s.create(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/reports/"+rep.ID)
	writeJSON(w, http.StatusCreated, reportResponse{Report: rep.Meta(), Viewer: viewerURL(rep.ID)})
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	file, _, err := r.FormFile("report")
	if err != nil {
		s.writeError(w, r, uploadErr(err))
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, uploadErr(err))
		return
	}
	rep, err := s.create(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, viewerURL(rep.ID), http.StatusSeeOther)
}

// create validates, stores and preloads a report.
func (s *Server) create(ctx context.Context, raw []byte) (*store.Report, error) {
	parsed, err := s.runner.Load(ctx, raw)
	if err != nil {
		return nil, err
	}
	tree, err := s.runner.Build(ctx, parsed)
	if err != nil {
		return nil, err
	}
	rep := store.New(parsed.Name, parsed.Size, cache.Hash(raw), raw)
	if err := s.store.Put(ctx, rep); err != nil {
		return nil, err
	}
	s.trees.add(rep.ID, NewLoaded(tree))
	s.logger.Info("report stored", "id", rep.ID, "name", rep.Name, "entries", tree.Len())
	return rep, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, _, err := s.runner.Summary(r.Context(), rep.Data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: rep.Meta(), Summary: &sum, Viewer: viewerURL(rep.ID)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.trees.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleView runs one focus transition: the controller starts from path,
// applies the optional click and returns the resulting frame.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	path := q.Get("path")
	if err := errors.ValidateNavPath(path); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := viewport(q.Get("w"), q.Get("h"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c := focus.NewControllerWithHierarchy(l.Tree, l.Full, focus.NewMemoryNavigator(path))
	if click := q.Get("click"); click != "" {
		cid, ok := ident.Parse(click)
		if !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid node id: %q", click))
			return
		}
		c.Click(cid)
	}

	scene := render.NewSceneWithColors(c, opts, l.Colors)
	writeJSON(w, http.StatusOK, viewResponse{
		Path:  scene.Path,
		SVG:   string(svg.Render(scene, svg.WithTooltips(), svg.WithInteraction(), svg.WithResponsive())),
		Title: title(scene),
	})
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	nid, ok := ident.Parse(raw)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid node id: %q", raw))
		return
	}
	l, err := s.load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, ok := l.Tree.Find(nid)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no node %s", raw))
		return
	}
	writeJSON(w, http.StatusOK, tooltipResponse{Name: e.Name(), Text: e.String()})
}

// handleRender serves one pipeline artifact through the runner's cache.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	opts := pipeline.Options{
		Path:    q.Get("path"),
		Formats: []string{pipeline.FormatSVG},
		API:     apiURL(id),
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{f}
	}
	for name, dst := range map[string]*float64{"w": &opts.Width, "h": &opts.Height} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, v))
				return
			}
			*dst = f
		}
	}
	if v := q.Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid depth: %q", v))
			return
		}
		opts.Depth = d
	}

	rep, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), rep.Data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentType(format))
	if format != pipeline.FormatSVG && format != pipeline.FormatHTML {
		w.Header().Set("Content-Disposition", `attachment; filename="`+rep.Name+"."+pipeline.Extension(format)+`"`)
	}
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateReportID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c := focus.NewControllerWithHierarchy(l.Tree, l.Full, nil)
	scene := render.NewSceneWithColors(c, treemap.DefaultOptions(pipeline.DefaultWidth, pipeline.DefaultHeight), l.Colors)
	page, err := html.Render(html.Page{
		Title: scene.Title,
		SVG:   svg.Render(scene, svg.WithTooltips(), svg.WithInteraction(), svg.WithResponsive()),
		API:   apiURL(id),
	})
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}

// load returns the parsed tree of a stored report. The load runs detached
// from the request so a cancelled caller does not fail the others waiting
// on it.
func (s *Server) load(ctx context.Context, id string) (*Loaded, error) {
	return s.trees.Get(ctx, id, func(ctx context.Context) (*Loaded, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RequestTimeout)
		defer cancel()

		start := time.Now()
		rep, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		parsed, err := s.runner.Load(ctx, rep.Data)
		if err != nil {
			return nil, err
		}
		tree, err := s.runner.Build(ctx, parsed)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("report loaded", "id", id, "entries", tree.Len(), "duration", time.Since(start))
		return NewLoaded(tree), nil
	})
}

func viewport(w, h string) (treemap.Options, error) {
	width, height := pipeline.DefaultWidth, pipeline.DefaultHeight
	var err error
	if w != "" {
		if width, err = strconv.ParseFloat(w, 64); err != nil {
			return treemap.Options{}, errors.New(errors.ErrCodeInvalidInput, "invalid width: %q", w)
		}
	}
	if h != "" {
		if height, err = strconv.ParseFloat(h, 64); err != nil {
			return treemap.Options{}, errors.New(errors.ErrCodeInvalidInput, "invalid height: %q", h)
		}
	}
	opts := treemap.DefaultOptions(width, height)
	return opts, opts.Validate()
}

// title names the focused entry, or the tree when unfocused.
func title(s *render.Scene) string {
	if s.Selected != 0 {
		if e, ok := s.Entry(s.Selected); ok {
			return e.Name() + " - " + s.Title
		}
	}
	return s.Title
}

func uploadErr(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return errors.New(errors.ErrCodeInvalidReport, "report exceeds %d bytes", tooBig.Limit)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
}

func apiURL(id string) string    { return "/api/reports/" + id }
func viewerURL(id string) string { return "/reports/" + id }

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG, pipeline.FormatDOTSVG:
		return "image/svg+xml"
	case pipeline.FormatHTML:
		return "text/html; charset=utf-8"
	case pipeline.FormatJSON, pipeline.FormatTree:
		return "application/json"
	case pipeline.FormatYAML:
		return "application/yaml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}
