package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
datasets:
  - name: PennFundan
    kind: mask_rcnn
    classes: pennfudan
    weightsUrl: https://example.com/pennfudan.zip
  - name: Raccoon
    kind: efficientdet
    classes: raccoon
    weightsUrl: https://example.com/raccoon.zip
`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"datasets", "--config", path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "NAME")
	assert.Regexp(t, `PennFundan\s+mask_rcnn\s+2\s+https://example.com/pennfudan.zip`, out.String())
	assert.Regexp(t, `Raccoon\s+efficientdet\s+2\s+https://example.com/raccoon.zip`, out.String())
}

func TestPredictRequiresURL(t *testing.T) {
	rootCmd.SetArgs([]string{"predict"})
	assert.Error(t, rootCmd.Execute())
}
