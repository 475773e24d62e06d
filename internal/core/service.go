package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/sender-protect/internal/emlparse"
	"github.com/mikey/sender-protect/internal/form"
	"go.uber.org/zap"
)

// StateView is a read-only copy of the UI state tree
type StateView struct {
	Form     form.Data `json:"form"`
	FileName string    `json:"file_name,omitempty"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
	Outcome  *Outcome  `json:"outcome,omitempty"`
}

// AnalysisService is the core service behind every front end. It owns the
// form, the last outcome and the last error, and dispatches analyses.
type AnalysisService struct {
	api    ClassifierAPI
	form   *form.State
	logger *zap.Logger

	inFlight atomic.Bool

	mu      sync.RWMutex
	outcome *Outcome
	lastErr error
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(api ClassifierAPI, state *form.State, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		api:    api,
		form:   state,
		logger: logger,
	}
}

// Form returns the form state
func (s *AnalysisService) Form() *form.State {
	return s.form
}

// SelectFile handles a file picked by the user. A wrong suffix clears the
// selection and records a validation error. An accepted file is selected
// and, when its text can be read, pre-fills the form. It reports false when
// the picker already held the same file and nothing happened.
func (s *AnalysisService) SelectFile(name string, data []byte) (bool, error) {
	if !s.form.Pick(name, data) {
		return false, nil
	}

	if err := emlparse.ValidateFileName(name); err != nil {
		verr := &ValidationError{Message: "Please select a .eml file", Err: err}
		s.setError(verr)
		s.form.ClearFile()
		return true, verr
	}
	s.setError(nil)

	text, err := emlparse.DecodeFile(data)
	if err != nil {
		// the selection survives, only the auto-fill is skipped
		s.logger.Warn("Could not read message file, skipping auto-fill",
			zap.String("file", name),
			zap.Error(err))
	} else {
		extracted := emlparse.Parse(text)
		emlparse.Autofill(s.form, extracted)
		s.logger.Debug("Pre-filled form from message file",
			zap.String("file", name),
			zap.Bool("has_from", extracted.From != ""),
			zap.Bool("has_subject", extracted.Subject != ""))
	}

	s.form.SetFile(&form.File{Name: name, Data: data})
	return true, nil
}

// NewSubmission resolves the request shape from a form snapshot. A selected
// file always wins over the text fields.
func NewSubmission(snap form.Snapshot) (Submission, error) {
	if snap.File != nil {
		return FileSubmission{
			FileName:    snap.File.Name,
			Data:        snap.File.Data,
			UseEnhanced: snap.Data.UseEnhanced,
		}, nil
	}

	if snap.Data.SenderEmail == "" || snap.Data.EmailContent == "" {
		return nil, &ValidationError{Message: msgMissingFields}
	}

	return TextSubmission{
		SenderEmail:  snap.Data.SenderEmail,
		EmailContent: snap.Data.EmailContent,
		RawHeaders:   snap.Data.RawHeaders,
		UseEnhanced:  snap.Data.UseEnhanced,
	}, nil
}

// Analyze submits the current form. Only one analysis runs at a time; the
// previous result and error are cleared before each attempt.
func (s *AnalysisService) Analyze(ctx context.Context) (*Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	s.outcome = nil
	s.lastErr = nil
	s.mu.Unlock()

	sub, err := NewSubmission(s.form.Snapshot())
	if err != nil {
		s.setError(err)
		return nil, err
	}

	attemptID := uuid.NewString()
	ctx = WithAttemptID(ctx, attemptID)

	result, err := s.Classify(ctx, sub)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	outcome := &Outcome{
		AttemptID:   attemptID,
		Kind:        sub.Kind(),
		UseEnhanced: sub.Enhanced(),
		Result:      result,
		AnalyzedAt:  time.Now(),
	}

	s.mu.Lock()
	s.outcome = outcome
	s.mu.Unlock()

	return outcome, nil
}

// Classify sends one submission and normalizes the three possible outcomes.
// It does not touch the form or the stored outcome.
func (s *AnalysisService) Classify(ctx context.Context, sub Submission) (*AnalysisResult, error) {
	attemptID := AttemptIDFromContext(ctx)
	if attemptID == "" {
		attemptID = uuid.NewString()
		ctx = WithAttemptID(ctx, attemptID)
	}

	logger := s.logger.With(
		zap.String("attempt_id", attemptID),
		zap.String("submission", string(sub.Kind())),
		zap.Bool("use_enhanced", sub.Enhanced()))

	var result *AnalysisResult
	var err error

	startTime := time.Now()
	switch v := sub.(type) {
	case TextSubmission:
		result, err = s.api.AnalyzeText(ctx, v)
	case FileSubmission:
		result, err = s.api.AnalyzeFile(ctx, v)
	default:
		return nil, fmt.Errorf("unsupported submission type %T", sub)
	}
	duration := time.Since(startTime)

	if err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			err = &TransportError{Op: "analyze", Err: err}
		}
		logger.Error("Analysis request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}

	if result == nil || !result.Success {
		msg := msgAnalysisFailed
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		logger.Warn("Analysis rejected by API", zap.String("error", msg), zap.Duration("duration", duration))
		return nil, &APIError{Message: msg}
	}

	active := result.Active(sub.Enhanced())
	fields := []zap.Field{
		zap.String("sender_domain", result.Metadata.SenderDomain),
		zap.Duration("duration", duration),
	}
	if active != nil {
		fields = append(fields,
			zap.String("model", active.ModelName),
			zap.String("prediction", active.Prediction),
			zap.Float64("confidence", active.Confidence))
	}
	logger.Info("Analysis completed", fields...)

	return result, nil
}

// Reset clears the form, the file selection, the result and the error
func (s *AnalysisService) Reset() {
	s.form.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = nil
	s.lastErr = nil
}

// Outcome returns the last successful analysis, if any
func (s *AnalysisService) Outcome() *Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

// Err returns the error of the last attempt or file selection
func (s *AnalysisService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Loading reports whether an analysis is outstanding
func (s *AnalysisService) Loading() bool {
	return s.inFlight.Load()
}

// View returns a copy of the whole state tree
func (s *AnalysisService) View() StateView {
	s.mu.RLock()
	outcome, lastErr := s.outcome, s.lastErr
	s.mu.RUnlock()

	return StateView{
		Form:     s.form.Data(),
		FileName: s.form.FileName(),
		Loading:  s.Loading(),
		Error:    Message(lastErr),
		Outcome:  outcome,
	}
}

func (s *AnalysisService) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
