// Package util - Weight archive handling.
package util

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ONNXExt is the file extension of a serialized ONNX graph.
const ONNXExt = ".onnx"

var zipMagic = []byte("PK\x03\x04")

// IsZip reports whether data starts with a zip local file header.
func IsZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// ExtractONNX returns the ONNX graph held by data.
//
// data is either a raw graph, returned unchanged, or a zip archive holding exactly one
// graph at any depth. With several .onnx members the lexically first is used.
//
// Arguments:
//   - data: The downloaded weights.
//
// Returns:
//   - []byte: The serialized graph.
//   - error: An error if data is empty, a corrupt archive, or holds no graph.
func ExtractONNX(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty weights")
	}
	if !IsZip(data) {
		return data, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open weights archive")
	}

	var members []*zip.File
	for _, f := range zr.File {
		name := path.Base(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.EqualFold(path.Ext(name), ONNXExt) {
			members = append(members, f)
		}
	}
	if len(members) == 0 {
		return nil, errors.Errorf("weights archive has no %s member", ONNXExt)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	rc, err := members[0].Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", members[0].Name)
	}
	defer rc.Close()

	graph, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", members[0].Name)
	}
	if len(graph) == 0 {
		return nil, errors.Errorf("%s is empty", members[0].Name)
	}
	return graph, nil
}
