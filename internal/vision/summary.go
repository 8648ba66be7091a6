package vision

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// PreviewRunes is how much of an answer fits in the result overlay.
const PreviewRunes = 200

const (
	ErrorTitle      = "Analysis Error"
	ProcessingTitle = "Processing"
)

// ResultTitle is the overlay title for a successful analysis of n images.
func ResultTitle(n int) string {
	return fmt.Sprintf("Analysis Complete (%d images)", n)
}

// ResultMessage formats the overlay body: a timestamped model header, a
// blank line, then the preview of text.
func ResultMessage(at time.Time, model, text string) string {
	return fmt.Sprintf("[%s] %s\n\n%s", at.Format("15:04:05"), model, Preview(text, PreviewRunes))
}

// ProcessingMessage is shown while a batch is in flight.
func ProcessingMessage(n int, model string) string {
	return fmt.Sprintf("Sending %d image(s) to %s...", n, model)
}

// Preview returns the first limit runes of text, followed by "..." when text
// was longer.
func Preview(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
