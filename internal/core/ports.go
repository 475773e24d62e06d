package core

import (
	"context"
)

// ClassifierAPI defines the interface of the remote classification service
type ClassifierAPI interface {
	// AnalyzeText submits text fields as JSON
	AnalyzeText(ctx context.Context, sub TextSubmission) (*AnalysisResult, error)

	// AnalyzeFile uploads a message file
	AnalyzeFile(ctx context.Context, sub FileSubmission) (*AnalysisResult, error)

	// FetchMetrics retrieves the precomputed model quality metrics
	FetchMetrics(ctx context.Context) (*MetricsResponse, error)
}

type attemptIDKey struct{}

// WithAttemptID attaches an analysis attempt ID to the context
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptIDKey{}, id)
}

// AttemptIDFromContext returns the attempt ID, or "" when none is set
func AttemptIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(attemptIDKey{}).(string)
	return id
}
