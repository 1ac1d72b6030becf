package outwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutWriterWritesToStream(t *testing.T) {
	var out, notice bytes.Buffer
	ow := NewOutWriterTo(&out, &notice)

	cfg := &contract.Config{Output: schema.JSONOut}
	require.NoError(t, ow.WriteSeries(sampleSeries(), cfg, 0))
	assert.Contains(t, out.String(), `"date": "2024-03-01"`)
	assert.Empty(t, notice.String())
}

func TestOutWriterWritesToFile(t *testing.T) {
	var out, notice bytes.Buffer
	ow := NewOutWriterTo(&out, &notice)

	path := filepath.Join(t.TempDir(), "series.csv")
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: path}
	require.NoError(t, ow.WriteSeries(sampleSeries(), cfg, 0))

	assert.Empty(t, out.String())
	assert.Contains(t, notice.String(), "Wrote daily series to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "octo,hello,2024-03-02,4,Peak")
}

func TestOutWriterProgressGoesToNotice(t *testing.T) {
	var out, notice bytes.Buffer
	ow := NewOutWriterTo(&out, &notice)

	ow.WriteProgress(1)
	assert.Empty(t, out.String())
	assert.Contains(t, notice.String(), "1s")
}

func TestOutWriterAskToFile(t *testing.T) {
	var out, notice bytes.Buffer
	ow := NewOutWriterTo(&out, &notice)

	path := filepath.Join(t.TempDir(), "answer.txt")
	require.NoError(t, ow.WriteAsk(sampleAsk(), &contract.Config{Output: schema.TextOut, OutputFile: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mostly **octocat**.")
	assert.Contains(t, notice.String(), "Wrote analytics answer")
}
