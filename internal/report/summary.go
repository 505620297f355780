package report

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/ensemble"
)

// PreviewLength is the number of characters of best text shown in a summary.
const PreviewLength = 150

var rule = strings.Repeat("=", 50)

// Summary returns a human-readable summary of the report
func (r *Report) Summary() string {
	var sb strings.Builder

	sb.WriteString("\n" + rule + "\n")
	if r.IsImage() {
		sb.WriteString("IMAGE PROCESSING COMPLETE\n")
		sb.WriteString(rule + "\n")
		writeAnalysis(&sb, "", *r.OCRAnalysis)
		return sb.String()
	}

	sb.WriteString("PDF PROCESSING COMPLETE\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Total pages: %d\n", len(r.Pages)))

	for _, page := range r.Pages {
		sb.WriteString(fmt.Sprintf("\nPage %d:\n", page.PageNumber))
		writeAnalysis(&sb, "  ", page.OCRAnalysis)
	}

	return sb.String()
}

// String returns a string representation of the report
func (r *Report) String() string {
	return r.Summary()
}

func writeAnalysis(sb *strings.Builder, indent string, a ensemble.PageAnalysis) {
	sb.WriteString(fmt.Sprintf("%sBest method: %s\n", indent, a.Best.Method))
	sb.WriteString(fmt.Sprintf("%sSuccess rate: %d/%d\n", indent, a.SuccessfulMethods, a.TotalMethods))
	if !a.Confidence.Failed() {
		sb.WriteString(fmt.Sprintf("%sAvg confidence: %.1f%%\n", indent, a.Confidence.AverageConfidence))
	}
	sb.WriteString(fmt.Sprintf("%sText preview: %q\n", indent, Preview(a.Best.Text)))
}

// Preview truncates text to PreviewLength characters, marking the cut with "...".
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
