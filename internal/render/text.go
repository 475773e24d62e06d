package render

import (
	"fmt"
	"io"
)

// WriteResult prints a result view in console sections
func WriteResult(w io.Writer, view *ResultView) {
	if view == nil {
		fmt.Fprintf(w, "\n=== Results ===\n")
		fmt.Fprintf(w, "Results will appear here after analysis\n")
		return
	}

	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "%s\n", view.Heading)
	fmt.Fprintf(w, "Prediction: %s\n", view.Badge)
	fmt.Fprintf(w, "Confidence: %s\n", view.Confidence)
	if view.Explanation != "" {
		fmt.Fprintf(w, "\nWhat does this mean?\n%s\n", view.Explanation)
	}

	fmt.Fprintf(w, "\n=== Email Metadata ===\n")
	fmt.Fprintf(w, "Sender domain: %s\n", view.SenderDomain)
	fmt.Fprintf(w, "Domain type: %s\n", view.DomainType)
	fmt.Fprintf(w, "  %s\n", view.DomainTypeNote)
	fmt.Fprintf(w, "Free domain flag: %s\n", view.DomainFlag)
	fmt.Fprintf(w, "  %s\n", view.DomainFlagNote)

	fmt.Fprintf(w, "\n=== Model Analysis ===\n")
	for _, m := range view.Models {
		fmt.Fprintf(w, "%s\n", m.ModelName)
		fmt.Fprintf(w, "  Classification: %s\n", m.Badge)
		fmt.Fprintf(w, "  Confidence level: %s\n", m.Confidence)
	}

	if view.Parsed != nil {
		fmt.Fprintf(w, "\n=== Parsed Email Data ===\n")
		fmt.Fprintf(w, "Sender: %s\n", view.Parsed.Sender)
		fmt.Fprintf(w, "Subject: %s\n", view.Parsed.Subject)
	}
}

// WriteMetrics prints the metrics panel
func WriteMetrics(w io.Writer, panel *MetricsPanel) {
	fmt.Fprintf(w, "\n=== Model Performance ===\n")
	switch panel.State {
	case MetricsLoading:
		fmt.Fprintf(w, "Loading metrics...\n")
	case MetricsFailed:
		fmt.Fprintf(w, "Error: %s\n", panel.Error)
	default:
		for _, v := range panel.Values {
			fmt.Fprintf(w, "%-10s %s\n", v.Name+":", v.Value)
		}
	}
}

// WriteError prints an inline error the way the form shows it
func WriteError(w io.Writer, msg string) {
	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "Error: %s\n", msg)
}
