package engine

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trancendos/secrets-portal/internal/types"
)

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "secrets.env")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRun_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "API_KEY=abc123\n")
	out := filepath.Join(dir, "output")

	res, err := Run(Config{File: in, OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "extracted-secrets.json"), res.OutputPath)
	assert.Equal(t, 15, res.Bytes)
	assert.Len(t, res.Digest, 16)
	assert.Equal(t, 1, res.Extraction.Count("envVars"))

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Rendered, string(data))

	var parsed types.Result
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "API_KEY", parsed.Get("envVars")[0].Name)

	st, err := os.Stat(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestRun_MissingFileCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")

	_, err := Run(Config{File: filepath.Join(dir, "nope.env"), OutputDir: out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadInput))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output dir must not exist")
}

func TestRun_FormatExtensions(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "password=hunter2\n")
	cases := map[string]string{
		"json": "extracted-secrets.json",
		"env":  "extracted-secrets.env",
		"yaml": "extracted-secrets.yaml",
		"csv":  "extracted-secrets.csv",
		"xml":  "extracted-secrets.xml",
	}
	for format, name := range cases {
		res, err := Run(Config{File: in, Format: format, OutputDir: dir})
		require.NoError(t, err, format)
		assert.Equal(t, name, filepath.Base(res.OutputPath), format)
	}

	xml, err := os.ReadFile(filepath.Join(dir, "extracted-secrets.xml"))
	require.NoError(t, err)
	js, err := os.ReadFile(filepath.Join(dir, "extracted-secrets.json"))
	require.NoError(t, err)
	assert.Equal(t, string(js), string(xml))
}

func TestRun_MaxBytes(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, strings.Repeat("A=1\n", 100))
	out := filepath.Join(dir, "output")

	_, err := Run(Config{File: in, OutputDir: out, MaxBytes: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadInput)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	res, err := Run(Config{File: in, OutputDir: out, MaxBytes: 400})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Extraction.Count("envVars"))
}

func TestRun_OutputDirIsFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "A=1\n")
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Run(Config{File: in, OutputDir: blocker})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteOutput)
}

func TestFastHash(t *testing.T) {
	assert.Equal(t, "0000000000000000", fastHash(nil))
	assert.Equal(t, fastHash([]byte("abc")), fastHash([]byte("abc")))
	assert.NotEqual(t, fastHash([]byte("abc")), fastHash([]byte("abd")))
}
