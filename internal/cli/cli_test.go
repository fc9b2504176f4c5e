package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/worker"
)

func TestClaimText(t *testing.T) {
	got, err := claimText([]string{"The", "sky", "is", "green"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "The sky is green", got)

	got, err = claimText([]string{"-"}, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "  from stdin\n", got)
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	out := model.OutputConfig{IncludeFooter: true}

	for _, format := range []string{"", "text", "json", "md", "markdown"} {
		w, err := stdoutWriter(&buf, format, out)
		require.NoError(t, err, format)
		assert.NotNil(t, w, format)
	}

	_, err := stdoutWriter(&buf, "xml", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestWriteReportFiles(t *testing.T) {
	statusOut = &bytes.Buffer{}
	dir := t.TempDir()
	a := &model.Analysis{
		RequestID: "req-1",
		Claim:     model.Claim{Text: "claim"},
		Verdict:   model.Verdict{Label: model.LabelNotEnoughEvidence, TopSources: []model.SourceRef{}},
	}

	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, writeReportFiles(a, jsonPath, mdPath, model.OutputConfig{IncludeFooter: false}))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id": "req-1"`)

	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Credibility Report")
	assert.NotContains(t, string(data), "Generated by")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Eiffel Tower was completed in 1889", "the-eiffel-tower-was-completed-in-1889"},
		{"  \"Quoted\" -- claim!! ", "quoted-claim"},
		{"???", "claim"},
		{"Ünïcode stays", "ünïcode-stays"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in, 60), tt.in)
	}
	assert.LessOrEqual(t, len(slugify(strings.Repeat("word ", 40), 20)), 21)
}

func TestWriteBatchSummary(t *testing.T) {
	results := []*worker.ClaimResult{
		{Line: 1, Text: "a", Analysis: &model.Analysis{Verdict: model.Verdict{Label: model.LabelReliable, Score: 81.5}}},
		{Line: 3, Text: "b", Analysis: &model.Analysis{Verdict: model.Verdict{Label: model.LabelUnreliable, Score: 12}}},
		{Line: 4, Text: "c", Error: assert.AnError},
	}

	var buf bytes.Buffer
	writeBatchSummary(&buf, results)

	out := buf.String()
	assert.Contains(t, out, "Reliable")
	assert.Contains(t, out, "81.50")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "3 claims: 1 Reliable, 1 Unreliable, 0 Mixed, 0 NotEnoughEvidence, 1 not checked")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeDefaultConfig(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# newsguard configuration"))
	assert.Contains(t, string(data), "provider: gemini")

	err = writeDefaultConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, writeDefaultConfig(path, true))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "newsguard dev\n", buf.String())
}
