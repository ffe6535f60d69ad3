package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/config"
	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/inference"
	"github.com/nvr-ai/detect-demo/profiler"
)

// MockPipeline returns a render or a fixed error and records the requests it saw.
type MockPipeline struct {
	mu       sync.Mutex
	err      error
	requests []controller.Request
}

func (m *MockPipeline) Run(ctx context.Context, session *controller.Session, req controller.Request) (*controller.Render, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err := m.err
	m.mu.Unlock()

	if err == nil {
		err = req.Thresholds.Validate()
	}
	if err != nil {
		return nil, err
	}
	if req.Dataset != "PennFundan" && req.Dataset != "PETS" {
		return nil, common.ConfigurationError("select dataset", errors.New("unknown dataset"))
	}
	r := &controller.Render{
		Request: req,
		PNG:     []byte("\x89PNG-fake"),
		Width:   10,
		Height:  8,
		Detections: []common.BoundingBox{
			{Label: "pedestrian", ClassID: 1, Confidence: 0.93, X1: 1, Y1: 1, X2: 5, Y2: 7},
		},
		Stages: []profiler.Stage{{Name: profiler.StageFetch, Duration: time.Millisecond}},
	}
	if session != nil {
		session.Last = r
	}
	return r, nil
}

func (m *MockPipeline) last() controller.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

var samples = []string{"https://example.com/a.jpg", "https://example.com/b.jpg", "https://example.com/c.jpg"}

func newTestServer(t *testing.T, p Pipeline) (*httptest.Server, *http.Client, *prometheus.Registry) {
	t.Helper()
	table, err := config.Default().Table()
	require.NoError(t, err)
	sessions, err := controller.NewSessionStore(16)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	s, err := New(p, table, sessions, Options{
		Samples:  samples,
		Defaults: inference.DefaultThresholds(),
		Registry: reg,
		IntN:     func(int) int { return 1 },
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}, reg
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndex(t *testing.T) {
	srv, client, _ := newTestServer(t, &MockPipeline{})

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="PennFundan" selected>`)
	assert.Contains(t, body, `<option value="PETS">`)
	assert.NotContains(t, body, "Raccoon")
	assert.Contains(t, body, `value="https://example.com/a.jpg"`)
	assert.Contains(t, body, `step="0.01" value="0.50"`)

	cookies := client.Jar.Cookies(mustURL(t, srv.URL))
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)

	resp, err = client.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPredictAndRender(t *testing.T) {
	p := &MockPipeline{}
	srv, client, _ := newTestServer(t, p)

	resp, err := client.Get(srv.URL + "/render.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = client.PostForm(srv.URL+"/predict", url.Values{
		"url":                 {"https://example.com/street.jpg"},
		"dataset":             {"PETS"},
		"detection_threshold": {"0.7"},
		"mask_threshold":      {"0.25"},
		"boxes_only":          {"1"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "pedestrian")
	assert.Contains(t, body, `/render.png`)
	assert.Contains(t, body, `<option value="PETS" selected>`)

	req := p.last()
	assert.Equal(t, float32(0.7), req.Detection)
	assert.Equal(t, float32(0.25), req.Mask)
	assert.True(t, req.BoxesOnly)

	resp, err = client.Get(srv.URL + "/render.png")
	require.NoError(t, err)
	png := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "\x89PNG-fake", png)
}

func TestPredictFailureShowsError(t *testing.T) {
	p := &MockPipeline{}
	srv, client, _ := newTestServer(t, p)

	form := url.Values{"url": {"https://example.com/street.jpg"}, "dataset": {"PennFundan"}}
	resp, err := client.PostForm(srv.URL+"/predict", form)
	require.NoError(t, err)
	readBody(t, resp)

	p.err = common.NetworkError("fetch", errors.New("connection refused"))
	resp, err = client.PostForm(srv.URL+"/predict", form)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "connection refused")
	// The previous render is still shown.
	assert.Contains(t, body, "pedestrian")

	resp, err = client.PostForm(srv.URL+"/predict", url.Values{"detection_threshold": {"abc"}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShuffle(t *testing.T) {
	srv, client, _ := newTestServer(t, &MockPipeline{})

	resp, err := client.PostForm(srv.URL+"/shuffle", nil)
	require.NoError(t, err)
	body := readBody(t, resp)

	// The redirect is followed back to the page.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, `value="https://example.com/c.jpg"`)
}

func TestAPIPredict(t *testing.T) {
	p := &MockPipeline{}
	srv, client, _ := newTestServer(t, p)

	post := func(body string) (*http.Response, map[string]any) {
		resp, err := client.Post(srv.URL+"/api/predict", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
		return resp, out
	}

	resp, out := post(`{"url":"https://example.com/a.jpg","dataset":"PennFundan","detection_threshold":0.2}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), out["width"])
	assert.Len(t, out["detections"], 1)
	assert.NotEmpty(t, out["image_png"])
	assert.Equal(t, float32(0.2), p.last().Detection)
	assert.Equal(t, float32(0.5), p.last().Mask)

	tests := []struct {
		name string
		err  error
		body string
		want int
		kind string
	}{
		{"network", common.NetworkError("fetch", errors.New("x")), `{"dataset":"PETS"}`, http.StatusBadGateway, "NetworkError"},
		{"decode", common.DecodeError("decode", errors.New("x")), `{"dataset":"PETS"}`, http.StatusUnprocessableEntity, "DecodeError"},
		{"inference", common.InferenceError("forward pass", errors.New("x")), `{"dataset":"PETS"}`, http.StatusInternalServerError, "InferenceError"},
		{"unknown dataset", nil, `{"dataset":"COCO"}`, http.StatusBadRequest, "ConfigurationError"},
		{"bad threshold", nil, `{"dataset":"PETS","mask_threshold":7}`, http.StatusBadRequest, "ConfigurationError"},
		{"bad json", nil, `{"dataset":`, http.StatusBadRequest, "ConfigurationError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.mu.Lock()
			p.err = tt.err
			p.mu.Unlock()

			resp, out := post(tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.kind, out["kind"])
		})
	}
}

func TestAPIDatasetsAndHealth(t *testing.T) {
	srv, client, _ := newTestServer(t, &MockPipeline{})

	resp, err := client.Get(srv.URL + "/api/datasets")
	require.NoError(t, err)
	var out struct {
		Datasets []apiDataset `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	assert.Equal(t, []apiDataset{
		{Name: "PennFundan", Kind: "mask_rcnn", Classes: 2, Masks: true},
		{Name: "PETS", Kind: "faster_rcnn", Classes: 38, Masks: false},
	}, out.Datasets)

	resp, err = client.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `"ok"`)
}

func TestMetrics(t *testing.T) {
	p := &MockPipeline{}
	srv, client, _ := newTestServer(t, p)

	resp, err := client.Post(srv.URL+"/api/predict", "application/json",
		strings.NewReader(`{"url":"https://example.com/a.jpg","dataset":"PETS"}`))
	require.NoError(t, err)
	readBody(t, resp)

	p.err = common.DecodeError("decode", errors.New("x"))
	resp, err = client.Post(srv.URL+"/api/predict", "application/json",
		strings.NewReader(`{"url":"https://example.com/a.jpg","dataset":"PETS"}`))
	require.NoError(t, err)
	readBody(t, resp)

	resp, err = client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Contains(t, body, `detect_demo_http_requests_total{code="200",route="api_predict"} 1`)
	assert.Contains(t, body, `detect_demo_http_requests_total{code="422",route="api_predict"} 1`)
	assert.Contains(t, body, `detect_demo_pipeline_failures_total{kind="DecodeError"} 1`)
	assert.Contains(t, body, `detect_demo_pipeline_seconds_count{dataset="PETS"} 1`)
	assert.Contains(t, body, `detect_demo_stage_seconds_count{stage="fetch"} 1`)
	assert.Contains(t, body, "detect_demo_sessions")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, StatusFor(common.NetworkError("op", nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(common.DecodeError("op", nil)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(common.ConfigurationError("op", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(common.InferenceError("op", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
