package util

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractONNX(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "raw graph passes through", data: []byte("\x08\x07graph"), want: "\x08\x07graph"},
		{name: "zip with one graph", data: zipOf(t, map[string]string{"model/model.onnx": "g1", "README": "x"}), want: "g1"},
		{name: "first of several", data: zipOf(t, map[string]string{"b.onnx": "gb", "a.ONNX": "ga"}), want: "ga"},
		{name: "hidden members skipped", data: zipOf(t, map[string]string{"__MACOSX/._m.onnx": "junk", "m.onnx": "gm"}), want: "gm"},
		{name: "no graph", data: zipOf(t, map[string]string{"weights.pth": "torch"}), wantErr: true},
		{name: "empty member", data: zipOf(t, map[string]string{"m.onnx": ""}), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
		{name: "corrupt zip", data: []byte("PK\x03\x04garbage"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractONNX(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestIsZip(t *testing.T) {
	assert.True(t, IsZip(zipOf(t, map[string]string{"a": "b"})))
	assert.False(t, IsZip([]byte("PK")))
}
