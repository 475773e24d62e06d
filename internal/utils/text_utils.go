package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum size
// without splitting a multi-byte rune at the cut
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop a partial rune left at the cut. Only the tail is inspected, so
	// invalid bytes earlier in the text are left alone.
	lastStart := len(truncated) - 1
	for lastStart > 0 && len(truncated)-lastStart < utf8.UTFMax && !utf8.RuneStart(truncated[lastStart]) {
		lastStart--
	}
	if lastStart >= 0 && !utf8.FullRuneInString(truncated[lastStart:]) {
		truncated = truncated[:lastStart]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "..."
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// Preview sanitizes text and cuts it down for display
func (tp *TextProcessor) Preview(text string, maxSize int) string {
	return tp.TruncateText(tp.SanitizeUTF8(strings.TrimSpace(text)), maxSize)
}
