package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abalone/internal/capture"
	"abalone/internal/stack"
)

func TestRunSynth_Stdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSynth(&buf, "abalone", "yaml", ""))
	out := buf.String()
	assert.Contains(t, out, "AbaloneEndpoint:")
	assert.Contains(t, out, "AWS::SageMaker::EndpointConfig")
}

func TestRunSynth_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoint.json")
	var buf bytes.Buffer
	require.NoError(t, runSynth(&buf, "abalone", "json", path))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"AWSTemplateFormatVersion"`)
}

func TestRunSynth_UnknownFormat(t *testing.T) {
	assert.Error(t, runSynth(&bytes.Buffer{}, "abalone", "toml", ""))
}

func TestGraphCmd(t *testing.T) {
	cmd := newGraphCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"-f", "mermaid"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "AbaloneEndpoint")

	cmd = newGraphCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-f", "svg"})
	assert.Error(t, cmd.Execute())
}

func TestPrintLint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLint(&buf, &stack.LintResult{Passed: true, Warnings: []string{"W1 something"}}))
	assert.Contains(t, buf.String(), "WARNING W1 something")
	assert.Contains(t, buf.String(), "template is valid")

	buf.Reset()
	err := printLint(&buf, &stack.LintResult{Errors: []string{"E3012 bad type"}})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "ERROR   E3012 bad type")
}

func TestPrintRecords(t *testing.T) {
	var rec capture.Record
	rec.CaptureData.EndpointInput = capture.Data{Data: "0.5,0.4,0.1,0.,0.,1.0", Encoding: capture.EncodingCSV}
	rec.CaptureData.EndpointOutput = capture.Data{Data: "OS4xMjM=", Encoding: capture.EncodingBase64}
	rec.EventMetadata.InferenceTime = "2024-03-01T12:05:00Z"

	var buf bytes.Buffer
	require.NoError(t, printRecords(&buf, []capture.Record{rec}))
	out := buf.String()
	assert.Contains(t, out, "0.5,0.4,0.1,0.,0.,1.0")
	assert.Contains(t, out, "13.5")
	assert.Contains(t, out, "1 record(s)")
}
