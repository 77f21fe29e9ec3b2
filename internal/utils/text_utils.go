package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor cleans violation messages before they are buffered for a digest.
// Catalog text is user entered and may carry stray bytes or line breaks.
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText cuts text to at most maxSize bytes without splitting a rune
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Message truncated",
		zap.Int("original_size", len(text)),
		zap.Int("max_size", maxSize))

	return truncated + " [...]"
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// SingleLine folds line breaks and runs of whitespace into single spaces so a
// message stays one paragraph of the digest
func (tp *TextProcessor) SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ProcessText sanitizes, folds and truncates a message in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.SingleLine(tp.SanitizeUTF8(text)), maxSize)
}
