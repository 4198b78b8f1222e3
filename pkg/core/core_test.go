package core

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFormat_Smoke(t *testing.T) {
	res := Extract("API_KEY=abc123\n")
	assert.Equal(t, 1, res.Count("envVars"))
	out, err := Format(res, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "envVars=")
	assert.Len(t, Categories(), 8)
}

func TestMarshalUnmarshalResult(t *testing.T) {
	res := Extract("password=hunter2\nhttps://example.com/?a=<b>&c\n")
	var buf bytes.Buffer
	require.NoError(t, MarshalResult(&buf, res))
	assert.Contains(t, buf.String(), "<b>&c")

	back, err := UnmarshalResult(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Keys(), back.Keys())
	assert.Equal(t, res.Get("passwords"), back.Get("passwords"))
	assert.Equal(t, res.Get("urls"), back.Get("urls"))
}

func TestRun_Smoke(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "secrets.env")
	require.NoError(t, os.WriteFile(in, []byte("TOKEN=x\n"), 0o644))
	r, err := Run(Config{File: in, OutputDir: filepath.Join(dir, "out"), Format: "yaml"})
	require.NoError(t, err)
	assert.FileExists(t, r.OutputPath)

	_, err = Run(Config{File: filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, ErrReadInput)
}
