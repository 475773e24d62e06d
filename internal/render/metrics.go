package render

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/mikey/sender-protect/internal/core"
	"go.uber.org/zap"
)

// MetricsState is the lifecycle of the metrics panel
type MetricsState string

const (
	MetricsLoading MetricsState = "loading"
	MetricsReady   MetricsState = "ready"
	MetricsFailed  MetricsState = "failed"
)

const (
	MsgMetricsFetchFailed = "Failed to fetch metrics"
	MsgNoMetrics          = "No metrics available"
)

// MetricValue is one named figure, already scaled to percent
type MetricValue struct {
	Name  string
	Value string
}

// MetricsPanel is the model performance section
type MetricsPanel struct {
	State  MetricsState
	Error  string
	Values []MetricValue
}

// NewMetricsPanel returns a panel in the loading state
func NewMetricsPanel() *MetricsPanel {
	return &MetricsPanel{State: MetricsLoading}
}

// LoadMetrics fetches the metrics once and returns the settled panel. Only
// the enhanced model's figures are shown.
func LoadMetrics(ctx context.Context, api core.ClassifierAPI, logger *zap.Logger) *MetricsPanel {
	panel := NewMetricsPanel()

	resp, err := api.FetchMetrics(ctx)
	if err != nil {
		var transportErr *core.TransportError
		if errors.As(err, &transportErr) {
			logger.Warn("Failed to fetch metrics", zap.String("detail", transportErr.Detail()))
		} else {
			logger.Warn("Failed to fetch metrics", zap.Error(err))
		}
		return panel.fail(MsgMetricsFetchFailed)
	}

	if resp == nil || !resp.Success || resp.Metrics == nil || resp.Metrics.Enhanced == nil {
		return panel.fail(MsgNoMetrics)
	}

	m := resp.Metrics.Enhanced
	panel.State = MetricsReady
	panel.Values = []MetricValue{
		{Name: "Accuracy", Value: FormatPercent(m.Accuracy)},
		{Name: "Precision", Value: FormatPercent(m.Precision)},
		{Name: "Recall", Value: FormatPercent(m.Recall)},
		{Name: "F1-Score", Value: FormatPercent(m.F1Score)},
	}
	return panel
}

func (p *MetricsPanel) fail(msg string) *MetricsPanel {
	p.State = MetricsFailed
	p.Error = msg
	return p
}

// FormatPercent scales a fraction to percent, rounded to two decimals, and
// prints it without trailing zeros (0.97 -> "97%", 0.96254 -> "96.25%").
func FormatPercent(fraction float64) string {
	v := math.Round(fraction*10000) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
