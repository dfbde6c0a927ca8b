// Package report renders a user's scan history for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"github.com/bryanwahyu/medscan/internal/domain/scans"
)

// EmptyHistory is shown when the owner has no scans.
const EmptyHistory = "No scans yet. Upload your first medical image to get started."

// MarkdownWriter outputs the history feed in Markdown.
type MarkdownWriter struct {
	output io.Writer
	now    func() time.Time
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output, now: time.Now}
}

// WithClock pins "x ago" timestamps, mostly for tests.
func (w *MarkdownWriter) WithClock(now func() time.Time) *MarkdownWriter {
	w.now = now
	return w
}

// Write renders list in the order given (newest first from the repository).
func (w *MarkdownWriter) Write(owner string, list []*scans.Scan) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan History")
	md.PlainText("")
	if owner != "" {
		md.PlainTextf("Owner: `%s` · %d scan(s)", owner, len(list))
		md.PlainText("")
	}

	if len(list) == 0 {
		md.PlainText(EmptyHistory)
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	for _, s := range list {
		w.writeScan(md, s)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*" + scans.Disclaimer + "*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeScan(md *markdown.Markdown, s *scans.Scan) {
	md.H2(fmt.Sprintf("%s %s", statusEmoji(s.Status), s.CreatedAt.Local().Format("Jan 2, 2006 15:04")))
	md.PlainText("")

	rows := [][]string{
		{"Scan", "`" + string(s.ID) + "`"},
		{"Uploaded", humanize.RelTime(s.CreatedAt, w.now(), "ago", "from now")},
		{"Status", fmt.Sprintf("%s (%s)", s.Status, s.Status.Icon())},
		{"Image", s.ImageURL},
	}

	if s.Status != scans.StatusCompleted || s.AnalysisResult == nil {
		md.Table(markdown.TableSet{Header: []string{"Field", "Value"}, Rows: rows})
		md.PlainText("")
		if msg := s.Status.Message(); msg != "" {
			md.PlainText("_" + msg + "_")
			md.PlainText("")
		}
		return
	}

	res := s.AnalysisResult
	rows = append(rows,
		[]string{"Risk", res.RiskLevel.Label()},
		[]string{"Confidence", fmt.Sprintf("%.0f%%", res.ConfidenceScore)},
	)
	md.Table(markdown.TableSet{Header: []string{"Field", "Value"}, Rows: rows})
	md.PlainText("")

	md.PlainText("**Findings**")
	md.PlainText("")
	if len(s.DetectedConditions) == 0 {
		md.PlainText("No specific conditions detected.")
	} else {
		md.BulletList(s.DetectedConditions...)
	}
	md.PlainText("")

	if a := strings.TrimSpace(res.Analysis); a != "" {
		md.Details("Analysis", a)
		md.PlainText("")
	}

	if len(res.Recommendations) > 0 {
		md.PlainText("**Recommendations**")
		md.PlainText("")
		md.BulletList(res.Recommendations...)
		md.PlainText("")
	}

	if res.RiskLevel == scans.RiskHigh {
		md.Warning("High risk finding. Please consult a healthcare professional.")
		md.PlainText("")
	}
}

func statusEmoji(st scans.Status) string {
	switch st {
	case scans.StatusCompleted:
		return "✅"
	case scans.StatusFailed:
		return "❌"
	case scans.StatusPending, scans.StatusProcessing:
		return "⏳"
	default:
		return "⚠️"
	}
}
