package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopLog = `{"request":{"method":"GET","url":"https://api.shop.test/users","headers":{"Authorization":"Bearer t"}},"response":{"status":200,"headers":{"Content-Type":"application/json"},"body":[{"id":1,"name":"a"}]}}
{"request":{"method":"GET","url":"https://api.shop.test/users/1","headers":{"Authorization":"Bearer t"}},"response":{"status":200,"headers":{"Content-Type":"application/json"},"body":{"id":1,"name":"a"}}}
{"request":{"method":"GET","url":"https://api.shop.test/users/2","headers":{"Authorization":"Bearer t"}},"response":{"status":200,"headers":{"Content-Type":"application/json"},"body":{"id":2,"name":"b"}}}
{"request":{"method":"GET","url":"https://api.shop.test/users/3","headers":{"Authorization":"Bearer t"}},"response":{"status":200,"headers":{"Content-Type":"application/json"},"body":{"id":3,"name":"c"}}}
{"request":{"method":"POST","url":"https://api.shop.test/users","headers":{"Authorization":"Bearer t","Content-Type":"application/json"},"body":{"name":"c"}},"response":{"status":201,"headers":{"Content-Type":"application/json"},"body":{"id":3,"name":"c"}}}
`

type result struct {
	code           int
	stdout, stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--log-level", "error"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeShopLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(shopLog), 0o644))
	return path
}

func TestAnalyze(t *testing.T) {
	res := runCLI(t, "", "analyze", writeShopLog(t))
	require.Equal(t, 0, res.code, res.stderr)

	var model map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &model))
	endpoints, ok := model["endpoints"].([]any)
	require.True(t, ok)
	assert.Len(t, endpoints, 3)
	assert.Contains(t, res.stderr, "5 exchanges, 5 selected")
}

func TestAnalyze_Stdin(t *testing.T) {
	res := runCLI(t, shopLog, "analyze", "--log", "-", "--method", "POST")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"POST"`)
	assert.NotContains(t, res.stdout, `"/users/{id}"`)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no traffic", []string{"analyze"}, "no traffic given"},
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.har")}, "error:"},
		{"bad filter", []string{"analyze", "--filter", ".status ==", writeShopLog(t)}, "error:"},
		{"unknown flag", []string{"analyze", "--nope"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	log := writeShopLog(t)

	res := runCLI(t, "", "generate", log, "--lang", "go,python", "--out", out)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(out, "go", "client.go"))
	assert.DirExists(t, filepath.Join(out, "python"))
	assert.Contains(t, res.stderr, "Targets")

	res = runCLI(t, "", "generate", log, "--lang", "go", "--out", out, "--check")
	assert.Equal(t, 0, res.code, res.stderr)

	require.NoError(t, os.WriteFile(filepath.Join(out, "go", "client.go"), []byte("package x\n"), 0o644))
	res = runCLI(t, "", "generate", log, "--lang", "go", "--out", out, "--check")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "stale")
	assert.Contains(t, res.stderr, "-package x")
	assert.NotContains(t, res.stderr, "error:")
}

func TestGenerate_FailedTargetDoesNotStopOthers(t *testing.T) {
	out := t.TempDir()
	res := runCLI(t, "", "generate", writeShopLog(t), "--lang", "go,cobol", "--out", out)
	assert.Equal(t, 1, res.code)
	assert.FileExists(t, filepath.Join(out, "go", "client.go"))
	assert.Contains(t, res.stderr, "cobol")
}

func TestGenerate_FromModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")

	res := runCLI(t, "", "analyze", writeShopLog(t), "-o", modelPath)
	require.Equal(t, 0, res.code, res.stderr)

	res = runCLI(t, "", "generate", "--model", modelPath, "--lang", "typescript", "--out", filepath.Join(dir, "sdk"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.DirExists(t, filepath.Join(dir, "sdk", "typescript"))

	res = runCLI(t, "", "generate", "--model", modelPath, writeShopLog(t))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "cannot be combined")
}

func TestDocs(t *testing.T) {
	log := writeShopLog(t)

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"markdown", "markdown", "## Endpoints"},
		{"openapi json", "openapi-json", `"openapi": "3.1.0"`},
		{"openapi yaml", "openapi-yaml", "openapi: 3.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", "docs", log, "--format", tt.format)
			require.Equal(t, 0, res.code, res.stderr)
			assert.Contains(t, res.stdout, tt.want)
		})
	}

	res := runCLI(t, "", "docs", log, "--format", "html")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown format")

	res = runCLI(t, "", "docs", log, "--format", "openapi-json", "--render")
	assert.Equal(t, 1, res.code)
}

func TestDocs_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.md")
	res := runCLI(t, "", "docs", writeShopLog(t), "-o", path, "--title", "Shop")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Shop\n"))
}

func TestCapture_RequiresSession(t *testing.T) {
	res := runCLI(t, "", "capture")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "--session is required")
}

func TestLanguages(t *testing.T) {
	res := runCLI(t, "", "languages")
	require.Equal(t, 0, res.code, res.stderr)
	for _, lang := range []string{"go", "python", "typescript"} {
		assert.Contains(t, res.stdout, lang)
	}
	assert.Contains(t, res.stdout, "ts")
}

func TestConfigFile(t *testing.T) {
	res := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "languages")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "reading config")
}
