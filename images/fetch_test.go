package images

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detect-demo/common"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, getTestImage(w, h)))
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	img := pngBytes(t, 8, 6)
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	})
	mux.HandleFunc("/doc.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("this is not an image"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(srv.Client(), FetcherOptions{Timeout: 2 * time.Second})

	tests := []struct {
		name     string
		url      string
		wantKind common.ErrorKind
	}{
		{"png decodes", srv.URL + "/ok.png", common.KindUnknown},
		{"text document", srv.URL + "/doc.txt", common.KindDecode},
		{"empty body", srv.URL + "/empty", common.KindDecode},
		{"404", srv.URL + "/missing", common.KindNetwork},
		{"500", srv.URL + "/broken", common.KindNetwork},
		{"bad scheme", "ftp://example.com/a.png", common.KindNetwork},
		{"relative", "/ok.png", common.KindNetwork},
		{"garbage", "::not a url::", common.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Fetch(context.Background(), tt.url)
			if tt.wantKind == common.KindUnknown {
				require.NoError(t, err)
				assert.Equal(t, 8, got.Width)
				assert.Equal(t, 6, got.Height)
				assert.Equal(t, FormatPNG, got.Format)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, common.KindOf(err), err.Error())
		})
	}

	t.Run("no caching", func(t *testing.T) {
		before := hits.Load()
		for i := 0; i < 3; i++ {
			_, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
			require.NoError(t, err)
		}
		assert.Equal(t, before+3, hits.Load())
	})
}

func TestFetchUnreachable(t *testing.T) {
	// Grab a free port, then close it so nothing listens there.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewFetcher(nil, FetcherOptions{Timeout: time.Second})
	start := time.Now()
	_, err := f.Fetch(context.Background(), addr+"/a.png")

	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindNetwork), err.Error())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(nil, FetcherOptions{Timeout: 100 * time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, common.KindNetwork, common.KindOf(err))
}

func TestFetchTimeoutDuringBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(nil, FetcherOptions{Timeout: 200 * time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, common.KindNetwork, common.KindOf(err), err.Error())
}

func TestFetchTooManyPixels(t *testing.T) {
	img := pngBytes(t, 64, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), FetcherOptions{MaxPixels: 64*64 - 1})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, common.KindDecode, common.KindOf(err))

	f = NewFetcher(srv.Client(), FetcherOptions{MaxPixels: 64 * 64})
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 64, got.Width)
}

func TestFetchTooLarge(t *testing.T) {
	img := pngBytes(t, 64, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), FetcherOptions{MaxBytes: 16})
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, common.KindDecode, common.KindOf(err))
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  https://example.com/a.jpg \n", "https://example.com/a.jpg"},
		{"see http://example.com/b.png please", "http://example.com/b.png"},
		{"not a url", "not a url"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanURL(tt.in), tt.in)
	}
}
