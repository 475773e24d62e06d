package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAPI struct {
	result     *core.AnalysisResult
	err        error
	metrics    *core.MetricsResponse
	metricsErr error

	started chan struct{}
	release chan struct{}

	texts []core.TextSubmission
	files []core.FileSubmission
}

func (a *stubAPI) wait() {
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.release != nil {
		<-a.release
	}
}

func (a *stubAPI) AnalyzeText(_ context.Context, sub core.TextSubmission) (*core.AnalysisResult, error) {
	a.texts = append(a.texts, sub)
	a.wait()
	return a.result, a.err
}

func (a *stubAPI) AnalyzeFile(_ context.Context, sub core.FileSubmission) (*core.AnalysisResult, error) {
	a.files = append(a.files, sub)
	a.wait()
	return a.result, a.err
}

func (a *stubAPI) FetchMetrics(context.Context) (*core.MetricsResponse, error) {
	return a.metrics, a.metricsErr
}

func spamResult() *core.AnalysisResult {
	return &core.AnalysisResult{
		Success:  true,
		Baseline: &core.Prediction{ModelName: "SVM", Prediction: "spam", Confidence: 92.3},
		Metadata: core.Metadata{SenderDomain: "gmail.com", DomainType: "Free Email", DomainFlag: true},
	}
}

func newTestServer(t *testing.T, api *stubAPI) (*Server, *core.AnalysisService) {
	t.Helper()
	if api.metrics == nil && api.metricsErr == nil {
		api.metrics = &core.MetricsResponse{
			Success: true,
			Metrics: &core.MetricsSet{Enhanced: &core.ModelMetrics{Accuracy: 0.9812, Precision: 0.97, Recall: 0.955, F1Score: 0.96254}},
		}
	}
	service := core.NewAnalysisService(api, form.New(), zap.NewNop())
	s, err := NewServer(service, api, zap.NewNop(), "127.0.0.1:0", 4*1024*1024)
	require.NoError(t, err)
	return s, service
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func postFile(t *testing.T, name string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(fileField, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/file", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func getState(t *testing.T, app *fiber.App) core.StateView {
	t.Helper()
	_, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var view core.StateView
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	return view
}

func TestIndexShowsMetricsAndPlaceholder(t *testing.T) {
	s, _ := newTestServer(t, &stubAPI{})

	resp, body := do(t, s.App(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "98.12%")
	assert.Contains(t, body, "97%")
	assert.Contains(t, body, "Results will appear here after analysis")
	assert.Contains(t, body, "Tokenization and Vocabulary Construction")
	assert.Contains(t, body, "Meta Sender Protect: Email Spam Detection System")
	assert.Contains(t, body, "All findings are for academic purposes.")
}

func TestIndexMetricsFailure(t *testing.T) {
	s, _ := newTestServer(t, &stubAPI{metricsErr: &core.TransportError{Op: "GET /api/metrics", StatusCode: 500}})

	_, body := do(t, s.App(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, body, "Error: Failed to fetch metrics")
}

func TestAnalyzeRendersResult(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	s, _ := newTestServer(t, api)

	resp, _ := do(t, s.App(), postForm("/analyze", url.Values{
		"senderEmail":  {"a@gmail.com"},
		"emailContent": {"Win money now!!!"},
	}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	require.Len(t, api.texts, 1)
	assert.False(t, api.texts[0].UseEnhanced)

	_, body := do(t, s.App(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, body, "Main Prediction (Baseline Model)")
	assert.Contains(t, body, ">SPAM<")
	assert.Contains(t, body, "Confidence: 92.30%")
	assert.Contains(t, body, "Free email services (Gmail, Yahoo, Outlook)")
}

func TestAnalyzeValidationError(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	s, _ := newTestServer(t, api)

	do(t, s.App(), postForm("/analyze", url.Values{"senderEmail": {"a@gmail.com"}}))

	assert.Empty(t, api.texts)
	view := getState(t, s.App())
	assert.Equal(t, "Please provide both sender email and email content", view.Error)
	assert.Nil(t, view.Outcome)
}

func TestAnalyzeCheckboxLastValueWins(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	s, _ := newTestServer(t, api)

	do(t, s.App(), postForm("/analyze", url.Values{
		"senderEmail":  {"a@gmail.com"},
		"emailContent": {"hi"},
		"useEnhanced":  {"false", "true"},
	}))

	require.Len(t, api.texts, 1)
	assert.True(t, api.texts[0].UseEnhanced)
}

func TestAnalyzeWhileInFlight(t *testing.T) {
	api := &stubAPI{
		result:  spamResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, service := newTestServer(t, api)
	require.NoError(t, service.Form().SetField(form.FieldSenderEmail, "a@gmail.com"))
	require.NoError(t, service.Form().SetField(form.FieldEmailContent, "Win money now!!!"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.App().Test(postForm("/analyze", url.Values{
			"senderEmail":  {"a@gmail.com"},
			"emailContent": {"Win money now!!!"},
		}), -1)
	}()

	select {
	case <-api.started:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis did not start")
	}

	_, page := do(t, s.App(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, page, "Analyzing...")

	resp, body := do(t, s.App(), postForm("/analyze", url.Values{"senderEmail": {"other@x.test"}}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "An analysis is already in progress")
	assert.Equal(t, "a@gmail.com", service.Form().Data().SenderEmail)

	close(api.release)
	<-done

	assert.Len(t, api.texts, 1)
	assert.NotNil(t, service.Outcome())
}

func TestFileUploadAutofills(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	s, _ := newTestServer(t, api)

	raw := []byte("From: promo@deals.test\r\nSubject: WIN\r\n\r\nclaim now")
	resp, _ := do(t, s.App(), postFile(t, "offer.eml", raw, map[string]string{"rawHeaders": "typed"}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	view := getState(t, s.App())
	assert.Equal(t, "offer.eml", view.FileName)
	assert.Equal(t, "promo@deals.test", view.Form.SenderEmail)
	assert.Equal(t, "WIN\n\nclaim now", view.Form.EmailContent)
	assert.Equal(t, "From: promo@deals.test\r\nSubject: WIN", view.Form.RawHeaders)
	assert.Empty(t, view.Error)

	do(t, s.App(), postForm("/analyze", url.Values{"useEnhanced": {"on"}}))

	require.Len(t, api.files, 1)
	assert.Empty(t, api.texts)
	assert.Equal(t, "offer.eml", api.files[0].FileName)
	assert.Equal(t, raw, api.files[0].Data)
	assert.True(t, api.files[0].UseEnhanced)
}

func TestFileUploadWrongSuffix(t *testing.T) {
	s, _ := newTestServer(t, &stubAPI{})

	do(t, s.App(), postFile(t, "notes.txt", []byte("From: x@y.test\n\nbody"), nil))

	view := getState(t, s.App())
	assert.Equal(t, "Please select a .eml file", view.Error)
	assert.Empty(t, view.FileName)
	assert.Empty(t, view.Form.SenderEmail)
}

func TestFieldEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubAPI{})

	resp, _ := do(t, s.App(), postForm("/field", url.Values{"senderEmail": {"a@b.test"}, "useEnhanced": {"on"}}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	view := getState(t, s.App())
	assert.Equal(t, "a@b.test", view.Form.SenderEmail)
	assert.True(t, view.Form.UseEnhanced)

	resp, _ = do(t, s.App(), postForm("/field", url.Values{"bogus": {"x"}}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetClearsEverything(t *testing.T) {
	api := &stubAPI{result: spamResult()}
	s, _ := newTestServer(t, api)

	raw := []byte("From: promo@deals.test\r\n\r\nbody")
	do(t, s.App(), postFile(t, "offer.eml", raw, nil))
	do(t, s.App(), postForm("/analyze", url.Values{}))
	require.NotNil(t, getState(t, s.App()).Outcome)

	resp, _ := do(t, s.App(), postForm("/reset", url.Values{}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	view := getState(t, s.App())
	assert.Equal(t, form.Data{}, view.Form)
	assert.Empty(t, view.FileName)
	assert.Nil(t, view.Outcome)
	assert.Empty(t, view.Error)

	// the same file is picked up again after a reset
	do(t, s.App(), postFile(t, "offer.eml", raw, nil))
	assert.Equal(t, "offer.eml", getState(t, s.App()).FileName)
}

func TestAPIAnalyzeTransportError(t *testing.T) {
	api := &stubAPI{err: &core.TransportError{Op: "POST /api/analyze", StatusCode: 500}}
	s, service := newTestServer(t, api)
	require.NoError(t, service.Form().SetField(form.FieldSenderEmail, "a@gmail.com"))
	require.NoError(t, service.Form().SetField(form.FieldEmailContent, "hello"))

	resp, body := do(t, s.App(), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var view core.StateView
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, "Failed to connect to server: API responded with status 500", view.Error)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubAPI{})

	resp, body := do(t, s.App(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
