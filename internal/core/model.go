package core

import (
	"strings"
	"time"
)

// SubmissionKind names the request shape used for an analysis
type SubmissionKind string

const (
	SubmissionText SubmissionKind = "text"
	SubmissionFile SubmissionKind = "file"
)

// Submission is either a TextSubmission or a FileSubmission
type Submission interface {
	Kind() SubmissionKind
	Enhanced() bool
	isSubmission()
}

// TextSubmission is sent as JSON to the text-analysis endpoint
type TextSubmission struct {
	SenderEmail  string `json:"sender_email"`
	EmailContent string `json:"email_content"`
	RawHeaders   string `json:"raw_headers"`
	UseEnhanced  bool   `json:"use_enhanced"`
}

func (TextSubmission) Kind() SubmissionKind { return SubmissionText }
func (s TextSubmission) Enhanced() bool     { return s.UseEnhanced }
func (TextSubmission) isSubmission()        {}

// FileSubmission is sent as a multipart upload to the file-analysis endpoint
type FileSubmission struct {
	FileName    string
	Data        []byte
	UseEnhanced bool
}

func (FileSubmission) Kind() SubmissionKind { return SubmissionFile }
func (s FileSubmission) Enhanced() bool     { return s.UseEnhanced }
func (FileSubmission) isSubmission()        {}

// Prediction is one model's verdict
type Prediction struct {
	ModelName  string  `json:"model_name"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// IsSpam reports whether the model predicted spam
func (p *Prediction) IsSpam() bool {
	return p != nil && strings.EqualFold(p.Prediction, "spam")
}

// Metadata describes the sender domain as seen by the API
type Metadata struct {
	SenderDomain string `json:"sender_domain"`
	DomainType   string `json:"domain_type"`
	DomainFlag   bool   `json:"domain_flag"`
}

// ParsedData is returned by the API for file submissions
type ParsedData struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
}

// AnalysisResult is the payload returned by both analysis endpoints
type AnalysisResult struct {
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Baseline   *Prediction `json:"baseline,omitempty"`
	Enhanced   *Prediction `json:"enhanced,omitempty"`
	Metadata   Metadata    `json:"metadata"`
	ParsedData *ParsedData `json:"parsed_data,omitempty"`
}

// Outcome is a stored successful analysis. UseEnhanced is captured when the
// request is submitted so later checkbox changes do not affect rendering.
type Outcome struct {
	AttemptID   string          `json:"attempt_id"`
	Kind        SubmissionKind  `json:"kind"`
	UseEnhanced bool            `json:"use_enhanced"`
	Result      *AnalysisResult `json:"result"`
	AnalyzedAt  time.Time       `json:"analyzed_at"`
}

// Active returns the prediction of the model selected at submission time
func (o *Outcome) Active() *Prediction {
	if o == nil || o.Result == nil {
		return nil
	}
	return o.Result.Active(o.UseEnhanced)
}

// Active returns the enhanced or baseline prediction
func (r *AnalysisResult) Active(useEnhanced bool) *Prediction {
	if r == nil {
		return nil
	}
	if useEnhanced {
		return r.Enhanced
	}
	return r.Baseline
}

// ModelMetrics are precomputed quality figures, as fractions in [0, 1]
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// MetricsSet groups metrics per model
type MetricsSet struct {
	Baseline *ModelMetrics `json:"baseline,omitempty"`
	Enhanced *ModelMetrics `json:"enhanced,omitempty"`
}

// MetricsResponse is the payload of the metrics endpoint
type MetricsResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Metrics *MetricsSet `json:"metrics,omitempty"`
}
