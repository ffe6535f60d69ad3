package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/profiler"
)

// maxAPIBody caps a JSON request body.
const maxAPIBody = 1 << 20

type pageData struct {
	Datasets  []string
	Dataset   string
	Samples   []string
	URL       string
	Detection float32
	Mask      float32
	BoxesOnly bool
	Error     string
	Render    *controller.Render
}

// session returns the session of r, creating one and setting the cookie when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *controller.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	session, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    session.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

func (s *Server) pageFor(session *controller.Session) pageData {
	idx, last, req := session.Snapshot()
	names := s.catalog.Names()

	data := pageData{
		Datasets:  names,
		Samples:   s.options.Samples,
		Detection: s.options.Defaults.Detection,
		Mask:      s.options.Defaults.Mask,
		Render:    last,
	}
	if len(names) > 0 {
		data.Dataset = names[0]
	}
	if idx >= 0 && idx < len(s.options.Samples) {
		data.URL = s.options.Samples[idx]
	}
	if req != nil {
		data.Dataset = req.Dataset
		data.Detection = req.Detection
		data.Mask = req.Mask
		data.BoxesOnly = req.BoxesOnly
		if req.URL != "" {
			data.URL = req.URL
		}
	}
	return data
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Printf("render page: %v", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, s.pageFor(s.session(w, r)), http.StatusOK)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)

	req, err := s.formRequest(r)
	if err == nil {
		var render *controller.Render
		render, err = s.pipeline.Run(r.Context(), session, req)
		s.observe(req.Dataset, render, err)
	} else {
		s.metrics.observeFailure(err)
	}

	data := s.pageFor(session)
	status := http.StatusOK
	if err != nil {
		s.logger.Printf("session %s: %v", session.ID, err)
		data.Error = err.Error()
		status = StatusFor(err)
	}
	s.renderPage(w, data, status)
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	idx := session.Shuffle(len(s.options.Samples), s.options.IntN)

	_, _, prev := session.Snapshot()
	req := controller.Request{Thresholds: s.options.Defaults}
	if prev != nil {
		req = *prev
	}
	if idx < len(s.options.Samples) {
		req.URL = s.options.Samples[idx]
	}
	session.Remember(req)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	_, last, _ := s.session(w, r).Snapshot()
	if last == nil {
		http.Error(w, "nothing rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(last.PNG)))
	_, _ = w.Write(last.PNG)
}

// formRequest reads a form submission. Missing thresholds take the defaults.
func (s *Server) formRequest(r *http.Request) (controller.Request, error) {
	if err := r.ParseForm(); err != nil {
		return controller.Request{}, common.ConfigurationError("parse form", err)
	}
	req := controller.Request{
		URL:        r.PostFormValue("url"),
		Dataset:    r.PostFormValue("dataset"),
		Thresholds: s.options.Defaults,
		BoxesOnly:  r.PostFormValue("boxes_only") != "",
	}
	var err error
	if req.Detection, err = parseThreshold(r.PostFormValue("detection_threshold"), req.Detection); err != nil {
		return req, err
	}
	if req.Mask, err = parseThreshold(r.PostFormValue("mask_threshold"), req.Mask); err != nil {
		return req, err
	}
	return req, nil
}

func parseThreshold(raw string, fallback float32) (float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, common.ConfigurationError("parse form", errors.Wrapf(err, "threshold %q", raw))
	}
	return float32(v), nil
}

type apiRequest struct {
	URL                string   `json:"url"`
	Dataset            string   `json:"dataset"`
	DetectionThreshold *float32 `json:"detection_threshold"`
	MaskThreshold      *float32 `json:"mask_threshold"`
	BoxesOnly          bool     `json:"boxes_only"`
}

type apiResponse struct {
	Dataset    string               `json:"dataset"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	HasMasks   bool                 `json:"has_masks"`
	Detections []common.BoundingBox `json:"detections"`
	ElapsedMS  int64                `json:"elapsed_ms"`
	Stages     []profiler.Stage     `json:"stages"`
	// PNG is base64 encoded by encoding/json.
	PNG []byte `json:"image_png"`
}

type apiDataset struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Classes int    `json:"classes"`
	Masks   bool   `json:"masks"`
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var body apiRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	if err := dec.Decode(&body); err != nil {
		err = common.ConfigurationError("decode request", err)
		s.metrics.observeFailure(err)
		respondError(w, err)
		return
	}

	req := controller.Request{
		URL:        body.URL,
		Dataset:    body.Dataset,
		Thresholds: s.options.Defaults,
		BoxesOnly:  body.BoxesOnly,
	}
	if body.DetectionThreshold != nil {
		req.Detection = *body.DetectionThreshold
	}
	if body.MaskThreshold != nil {
		req.Mask = *body.MaskThreshold
	}

	// API calls are stateless.
	render, err := s.pipeline.Run(r.Context(), nil, req)
	s.observe(req.Dataset, render, err)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, apiResponse{
		Dataset:    req.Dataset,
		Width:      render.Width,
		Height:     render.Height,
		HasMasks:   render.HasMasks,
		Detections: render.Detections,
		ElapsedMS:  render.Elapsed.Milliseconds(),
		Stages:     render.Stages,
		PNG:        render.PNG,
	}, http.StatusOK)
}

func (s *Server) handleAPIDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := s.catalog.Datasets()
	out := make([]apiDataset, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, apiDataset{
			Name:    d.Name,
			Kind:    string(d.Kind),
			Classes: d.Classes.Len(),
			Masks:   d.Kind.HasMasks(),
		})
	}
	respondJSON(w, map[string]any{"datasets": out}, http.StatusOK)
}

func (s *Server) observe(dataset string, render *controller.Render, err error) {
	if err != nil {
		s.metrics.observeFailure(err)
		return
	}
	s.metrics.observeRender(dataset, render)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, map[string]string{
		"error": err.Error(),
		"kind":  common.KindOf(err).String(),
	}, StatusFor(err))
}
