package audit

import (
	"fmt"
	"strings"

	"github.com/staylio/villa-onboard/models"
)

// RenderReport formats one record's audit result as a human-readable text
// block. The output is deterministic: issues appear in the order Evaluate
// produced them (ascending step, record-level checks last).
func RenderReport(report models.ConsistencyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Consistency report for record %s\n", report.RecordID)
	if report.TotalIssues == 0 {
		fmt.Fprintf(&b, "Overall status: %s (no issues)\n", report.OverallStatus)
		return b.String()
	}

	fmt.Fprintf(&b, "Overall status: %s (%d issues: %d high, %d medium, %d low)\n",
		report.OverallStatus, report.TotalIssues, report.HighIssues, report.MediumIssues, report.LowIssues)

	for _, issue := range report.Issues {
		location := "record"
		if issue.Step != 0 {
			location = fmt.Sprintf("step %d (%s)", issue.Step, issue.StepName)
		}

		fmt.Fprintf(&b, "\n  %-9s %s: %s\n", "["+issue.Severity+"]", location, issue.Type)
		fmt.Fprintf(&b, "            %s\n", issue.Description)
		fmt.Fprintf(&b, "            suggestion: %s\n", issue.Suggestion)
	}

	return b.String()
}

// RenderSummary formats an all-records run: the aggregate counts followed by
// every per-record report.
func RenderSummary(summary models.AuditSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Audited %d records: %d consistent, %d with minor issues, %d with major issues\n",
		summary.TotalRecords, summary.Consistent, summary.MinorIssues, summary.MajorIssues)

	for _, report := range summary.Reports {
		b.WriteString("\n")
		b.WriteString(RenderReport(report))
	}

	return b.String()
}
