package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/form"
	"github.com/mikey/sender-protect/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAPI struct {
	result *core.AnalysisResult
	err    error
	texts  []core.TextSubmission
	files  []core.FileSubmission
}

func (a *stubAPI) AnalyzeText(_ context.Context, sub core.TextSubmission) (*core.AnalysisResult, error) {
	a.texts = append(a.texts, sub)
	return a.result, a.err
}

func (a *stubAPI) AnalyzeFile(_ context.Context, sub core.FileSubmission) (*core.AnalysisResult, error) {
	a.files = append(a.files, sub)
	return a.result, a.err
}

func (a *stubAPI) FetchMetrics(context.Context) (*core.MetricsResponse, error) {
	return &core.MetricsResponse{Success: false}, nil
}

func newRunner(api *stubAPI, out *bytes.Buffer, verbose bool) *Runner {
	logger := zap.NewNop()
	service := core.NewAnalysisService(api, form.New(), logger)
	return NewRunner(service, api, utils.NewTextProcessor(logger), logger, out, "http://localhost:5000", verbose)
}

func spamResult() *core.AnalysisResult {
	return &core.AnalysisResult{
		Success:  true,
		Baseline: &core.Prediction{ModelName: "SVM", Prediction: "spam", Confidence: 92.3},
		Enhanced: &core.Prediction{ModelName: "SVM + Domain Flag", Prediction: "spam", Confidence: 95},
		Metadata: core.Metadata{SenderDomain: "gmail.com", DomainType: "Free Email", DomainFlag: true},
	}
}

func TestRunText(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	var out bytes.Buffer

	err := newRunner(api, &out, true).Run(context.Background(), Input{
		Sender:  "a@gmail.com",
		Content: "Win money now!!!",
	})
	require.NoError(t, err)

	require.Len(t, api.texts, 1)
	assert.Equal(t, "a@gmail.com", api.texts[0].SenderEmail)
	assert.False(t, api.texts[0].UseEnhanced)

	s := out.String()
	assert.Contains(t, s, "=== Email Summary ===")
	assert.Contains(t, s, "Content preview:\nWin money now!!!")
	assert.Contains(t, s, "Model: baseline")
	assert.Contains(t, s, "Prediction: SPAM")
	assert.Contains(t, s, "Confidence: 92.30%")
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Offer.EML")
	raw := []byte("From: promo@deals.test\nSubject: WIN\n\nclaim now")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	api := &stubAPI{result: spamResult()}
	var out bytes.Buffer

	err := newRunner(api, &out, false).Run(context.Background(), Input{File: path, UseEnhanced: true})
	require.NoError(t, err)

	require.Len(t, api.files, 1)
	assert.Empty(t, api.texts)
	assert.Equal(t, "Offer.EML", api.files[0].FileName)
	assert.True(t, api.files[0].UseEnhanced)

	s := out.String()
	assert.Contains(t, s, "File: Offer.EML")
	assert.Contains(t, s, "From: promo@deals.test")
	assert.Contains(t, s, "Main Prediction (Enhanced Model)")
	assert.Contains(t, s, "Confidence: 95.00%")
}

func TestRunRejectsNonEML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	api := &stubAPI{result: spamResult()}
	var out bytes.Buffer

	err := newRunner(api, &out, false).Run(context.Background(), Input{File: path})

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, out.String(), "Error: Please select a .eml file")
	assert.Empty(t, api.files)
}

func TestRunMissingFields(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	var out bytes.Buffer

	err := newRunner(api, &out, false).Run(context.Background(), Input{Sender: "a@gmail.com", ShowMetrics: true})

	require.Error(t, err)
	s := out.String()
	assert.Contains(t, s, "Error: No metrics available")
	assert.Contains(t, s, "Error: Please provide both sender email and email content")
	assert.Empty(t, api.texts)
}

func TestRunTransportError(t *testing.T) {
	api := &stubAPI{err: &core.TransportError{Op: "POST /api/analyze", Err: errors.New("connection refused")}}
	var out bytes.Buffer

	err := newRunner(api, &out, false).Run(context.Background(), Input{Sender: "a@b.test", Content: "hi"})

	require.Error(t, err)
	assert.Contains(t, out.String(), "Error: Failed to connect to server: connection refused")
}

func TestRunMissingFile(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing.eml")

	err := newRunner(api, &out, false).Run(context.Background(), Input{File: path})

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, out.String(), "Error: failed to read message file: ")
	assert.Contains(t, out.String(), "missing.eml")
	assert.Empty(t, api.files)
}
