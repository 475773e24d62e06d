package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/sender-protect/internal/core"
	"go.uber.org/zap"
)

// Endpoint paths of the classification API
const (
	PathAnalyze     = "/api/analyze"
	PathAnalyzeFile = "/api/analyze-file"
	PathMetrics     = "/api/metrics"
)

// Client is an implementation of the ClassifierAPI interface over HTTP
type Client struct {
	httpClient       *http.Client
	baseURL          string
	userAgent        string
	maxResponseBytes int64
	logger           *zap.Logger
}

// NewClient creates a new classification API client
func NewClient(
	httpClient *http.Client,
	baseURL string,
	userAgent string,
	maxResponseBytes int64,
	logger *zap.Logger,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = 1 << 20
	}
	return &Client{
		httpClient:       httpClient,
		baseURL:          baseURL,
		userAgent:        userAgent,
		maxResponseBytes: maxResponseBytes,
		logger:           logger,
	}
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AnalyzeText posts the text fields as JSON
func (c *Client) AnalyzeText(ctx context.Context, sub core.TextSubmission) (*core.AnalysisResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	var result core.AnalysisResult
	if err := c.do(ctx, http.MethodPost, PathAnalyze, "application/json", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// fileContentDisposition mirrors multipart.FileContentDisposition (Go 1.25+)
func fileContentDisposition(fieldname, filename string) string {
	return fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldname), quoteEscaper.Replace(filename))
}

// AnalyzeFile uploads the message file together with the enhanced flag
func (c *Client) AnalyzeFile(ctx context.Context, sub core.FileSubmission) (*core.AnalysisResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fileContentDisposition("file", sub.FileName))
	header.Set("Content-Type", "message/rfc822")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(sub.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.WriteField("use_enhanced", strconv.FormatBool(sub.UseEnhanced)); err != nil {
		return nil, fmt.Errorf("failed to write use_enhanced field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var result core.AnalysisResult
	if err := c.do(ctx, http.MethodPost, PathAnalyzeFile, w.FormDataContentType(), &body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchMetrics retrieves the model quality metrics
func (c *Client) FetchMetrics(ctx context.Context) (*core.MetricsResponse, error) {
	var metrics core.MetricsResponse
	if err := c.do(ctx, http.MethodGet, PathMetrics, "", nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// do sends one request and decodes the JSON body into out. Every failure
// up to and including decoding is reported as a *core.TransportError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	op := method + " " + path
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id := core.AttemptIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Classification API responded",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(startTime)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxResponseBytes))
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}
